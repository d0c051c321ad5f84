package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// InsertConversation writes a conversation row. Empty fields are stored as NULL.
func (db *DB) InsertConversation(ctx context.Context, c ConversationRow) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO conversations (id, type, e164, name, profileName, members)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, nullable(c.Type), nullable(c.Phone), nullable(c.Name), nullable(c.ProfileName), nullable(c.Members))
	return err
}

// InsertMessages writes message rows in one transaction. The indexed columns are copied
// out of the JSON payload the same way Signal Desktop denormalizes them.
func (db *DB) InsertMessages(ctx context.Context, msgs []MessageRow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range msgs {
		p := gjson.ParseBytes(m.Payload)
		id := p.Get("id").String()
		if id == "" {
			id = uuid.NewString()
		}
		var sentAt sql.NullInt64
		if v := p.Get("sent_at"); v.Exists() {
			sentAt = sql.NullInt64{Int64: v.Int(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, json, conversationId, sent_at, received_at, type, body, hasAttachments)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, string(m.Payload), nullable(m.ConversationID), sentAt,
			p.Get("received_at").Int(), p.Get("type").String(), p.Get("body").String(),
			len(p.Get("attachments").Array()) > 0); err != nil {
			return fmt.Errorf("insert message %q: %w", id, err)
		}
	}
	return tx.Commit()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
