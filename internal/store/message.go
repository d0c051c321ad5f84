package store

import (
	"context"
	"database/sql"
)

// ScanMessages streams every message row ordered by send time, ties broken by rowid.
// Iteration stops at the first error returned by fn.
func (db *DB) ScanMessages(ctx context.Context, fn func(MessageRow) error) error {
	rows, err := db.QueryContext(ctx, `
		SELECT json, conversationId
		FROM messages
		ORDER BY sent_at, rowid`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			payload sql.NullString
			convID  sql.NullString
		)
		if err := rows.Scan(&payload, &convID); err != nil {
			return err
		}
		if err := fn(MessageRow{Payload: []byte(payload.String), ConversationID: convID.String}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// MessageCounts returns the number of messages per conversation id.
func (db *DB) MessageCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT conversationId, COUNT(*)
		FROM messages
		WHERE conversationId IS NOT NULL
		GROUP BY conversationId`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
