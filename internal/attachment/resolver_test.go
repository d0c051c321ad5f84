package attachment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/sigexport/internal/bus"
	"github.com/matheus3301/sigexport/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentAt = time.Date(2021, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		index int
		base  string
		want  string
	}{
		{"plain", 0, "photo.jpg", "2021-03-04T05-06-07.890_00_photo.jpg"},
		{"index padded", 7, "a.png", "2021-03-04T05-06-07.890_07_a.png"},
		{"spaces", 1, "my file.pdf", "2021-03-04T05-06-07.890_01_my_file.pdf"},
		{"slash comma colon", 2, "a/b,c:d.txt", "2021-03-04T05-06-07.890_02_a-bc-d.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(sentAt, tt.index, tt.base))
		})
	}
}

func TestSourcePath(t *testing.T) {
	got := SourcePath("/sig/attachments.noindex", `ab\abcdef`)
	assert.Equal(t, filepath.Join("/sig/attachments.noindex", "ab", "abcdef"), got)
}

func conversation(atts ...*model.Attachment) *model.Conversation {
	return &model.Conversation{
		Contact: &model.Contact{ID: "c", Name: "Test"},
		Messages: []*model.Message{
			{SentAt: sentAt.UnixMilli(), Attachments: atts},
		},
	}
}

func TestPlanExtensions(t *testing.T) {
	root := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	require.NoError(t, os.WriteFile(filepath.Join(root, "sniffme"), png, 0o644))

	atts := []*model.Attachment{
		{Path: "a1", FileName: "photo.jpg", ContentType: "image/jpeg"},
		{Path: "a2", ContentType: "audio/aac"},
		{Path: "a3", FileName: "voice", ContentType: "weird"},
		{Path: "sniffme"},
		{FileName: "lost.jpg"},
	}
	r := NewResolver(root, time.UTC, nil, nil)
	copies := r.Plan(conversation(atts...), "/out/media")

	require.Len(t, copies, 4)
	assert.Equal(t, "2021-03-04T05-06-07.890_00_photo.jpg", atts[0].ResolvedName)
	assert.Equal(t, "2021-03-04T05-06-07.890_01_None.aac", atts[1].ResolvedName)
	assert.Equal(t, "2021-03-04T05-06-07.890_02_voice.weird", atts[2].ResolvedName)
	assert.Equal(t, "2021-03-04T05-06-07.890_03_None.png", atts[3].ResolvedName)
	assert.Empty(t, atts[4].ResolvedName, "attachment without path is not referenced")

	assert.Equal(t, filepath.Join(root, "a1"), copies[0].Src)
	assert.Equal(t, filepath.Join("/out/media", atts[0].ResolvedName), copies[0].Dst)
}

func TestPlanDeterministicAndUnique(t *testing.T) {
	build := func() *model.Conversation {
		return &model.Conversation{
			Contact: &model.Contact{Name: "Test"},
			Messages: []*model.Message{
				{SentAt: sentAt.UnixMilli(), Attachments: []*model.Attachment{{Path: "x", FileName: "a.jpg"}}},
				{SentAt: sentAt.UnixMilli(), Attachments: []*model.Attachment{{Path: "y", FileName: "a.jpg"}}},
			},
		}
	}
	r := NewResolver(t.TempDir(), time.UTC, nil, nil)

	first, second := build(), build()
	r.Plan(first, "m")
	r.Plan(second, "m")

	a := first.Messages[0].Attachments[0].ResolvedName
	b := first.Messages[1].Attachments[0].ResolvedName
	assert.NotEqual(t, a, b)
	assert.Equal(t, "2021-03-04T05-06-07.890_00_a_2.jpg", b)
	assert.Equal(t, a, second.Messages[0].Attachments[0].ResolvedName)
	assert.Equal(t, b, second.Messages[1].Attachments[0].ResolvedName)
}

func TestPlanUniqueWithoutExtension(t *testing.T) {
	root := t.TempDir()
	// Missing sources cannot be sniffed, so neither name gets an extension.
	conv := &model.Conversation{
		Contact: &model.Contact{Name: "Test"},
		Messages: []*model.Message{
			{SentAt: sentAt.UnixMilli(), Attachments: []*model.Attachment{{Path: "x"}}},
			{SentAt: sentAt.UnixMilli(), Attachments: []*model.Attachment{{Path: "y"}}},
		},
	}
	NewResolver(root, time.UTC, nil, nil).Plan(conv, "m")

	assert.Equal(t, "2021-03-04T05-06-07.890_00_None", conv.Messages[0].Attachments[0].ResolvedName)
	assert.Equal(t, "2021-03-04T05-06-07.890_00_None_2", conv.Messages[1].Attachments[0].ResolvedName)
}

func TestPlanPublishesSkip(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("export.", 4)
	defer unsub()

	r := NewResolver(t.TempDir(), time.UTC, b, nil)
	r.Plan(conversation(&model.Attachment{FileName: "x.jpg"}), "m")

	select {
	case evt := <-ch:
		assert.Equal(t, bus.KindAttachmentSkipped, evt.Kind)
		p, ok := evt.Payload.(bus.AttachmentPayload)
		require.True(t, ok)
		assert.Equal(t, "Test", p.Conversation)
	case <-time.After(time.Second):
		t.Fatal("no skip event")
	}
}

func TestExecute(t *testing.T) {
	root := t.TempDir()
	media := t.TempDir()
	src := filepath.Join(root, "present")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	r := NewResolver(root, time.UTC, nil, nil)
	n, err := r.Execute(context.Background(), "Test", []Copy{
		{Src: src, Dst: filepath.Join(media, "out")},
		{Src: filepath.Join(root, "missing"), Dst: filepath.Join(media, "gone")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(media, "out"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	info, err := os.Stat(filepath.Join(media, "out"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime))

	_, err = os.Stat(filepath.Join(media, "gone"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewResolver(t.TempDir(), time.UTC, nil, nil)
	n, err := r.Execute(ctx, "Test", []Copy{{Src: "a", Dst: "b"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
