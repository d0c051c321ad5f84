package sample

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/matheus3301/sigexport/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, Write(ctx, dir))

	db, err := store.OpenReadOnly(layout.DBPath(dir))
	require.NoError(t, err)
	defer db.Close()

	convs, err := db.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, convs, len(conversations))

	counts, err := db.MessageCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["c-test"])

	for rel := range files {
		_, err := os.Stat(filepath.Join(layout.AttachmentsRoot(dir), filepath.FromSlash(rel)))
		require.NoError(t, err)
	}

	require.Error(t, Write(ctx, dir), "refuses to overwrite an existing store")
}
