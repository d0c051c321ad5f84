// Package sample writes a small plaintext Signal data directory for trying the exporter.
package sample

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/matheus3301/sigexport/internal/store"
)

// A 1x1 transparent PNG.
var pixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// Start is the send time of the first sample message.
var Start = time.Date(2023, 5, 1, 9, 30, 0, 0, time.UTC)

var conversations = []store.ConversationRow{
	{ID: "c-test", Type: "private", Phone: "+15550001", Name: "Test"},
	{ID: "c-bob", Type: "private", Phone: "+15550002", ProfileName: "Bob 🍕"},
	{ID: "c-family", Type: "group", Name: "Family", Members: "+15550001 +15550002 +15550099"},
	{ID: "c-quiet", Type: "private", Phone: "+15550003", Name: "Quiet"},
}

var files = map[string][]byte{
	"ab/abcdef01": pixel,
	"cd/cdef0102": []byte("sample voice note"),
}

func at(minutes int) int64 {
	return Start.Add(time.Duration(minutes) * time.Minute).UnixMilli()
}

func messages() []store.MessageRow {
	payloads := []struct {
		conv string
		json string
	}{
		{"c-test", fmt.Sprintf(`{"type":"outgoing","sent_at":%d,"body":"Hello there"}`, at(0))},
		{"c-test", fmt.Sprintf(`{"type":"outgoing","sent_at":%d,"body":"","attachments":[{"path":"ab\\abcdef01","fileName":"beach.png","contentType":"image/png"}]}`, at(1))},
		{"c-test", fmt.Sprintf(`{"type":"outgoing","sent_at":%d,"attachments":[{"path":"cd/cdef0102","contentType":"audio/aac"}]}`, at(2))},
		{"c-bob", fmt.Sprintf(`{"type":"incoming","sent_at":%d,"source":"+15550002","body":"Pizza tonight? https://example.com/menu","reactions":[{"fromId":"c-test","emoji":"👍"}]}`, at(3))},
		{"c-bob", fmt.Sprintf(`{"type":"outgoing","sent_at":%d,"body":"Sure!","quote":{"text":"Pizza tonight?"}}`, at(4))},
		{"c-bob", fmt.Sprintf(`{"type":"call-history","sent_at":%d,"callHistoryDetails":{"wasIncoming":true}}`, at(5))},
		{"c-family", fmt.Sprintf(`{"type":"incoming","sent_at":%d,"source":"+15550002","body":"Hi all"}`, at(6))},
		{"c-family", fmt.Sprintf(`{"type":"incoming","timestamp":%d,"source":"+15550099","sticker":{"data":{"emoji":"🎉"}}}`, at(7))},
		{"", fmt.Sprintf(`{"type":"incoming","sent_at":%d,"body":"orphan"}`, at(8))},
	}
	rows := make([]store.MessageRow, 0, len(payloads))
	for _, p := range payloads {
		rows = append(rows, store.MessageRow{Payload: []byte(p.json), ConversationID: p.conv})
	}
	return rows
}

// Write creates a plaintext Signal data directory at dir: a migrated sql/db.sqlite with a
// few conversations and the attachment files they reference.
func Write(ctx context.Context, dir string) error {
	dbPath := layout.DBPath(dir)
	if _, err := os.Stat(dbPath); err == nil {
		return fmt.Errorf("%s already exists", dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, _, err := db.CreateSchema(); err != nil {
		return err
	}

	for _, c := range conversations {
		if err := db.InsertConversation(ctx, c); err != nil {
			return fmt.Errorf("insert conversation %s: %w", c.ID, err)
		}
	}
	if err := db.InsertMessages(ctx, messages()); err != nil {
		return err
	}

	root := layout.AttachmentsRoot(dir)
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
