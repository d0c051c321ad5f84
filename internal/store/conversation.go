package store

import (
	"context"
	"database/sql"
)

// ListConversations returns every conversation row in store id order. The order is what
// decides which contact keeps a bare name when sanitized names collide.
func (db *DB) ListConversations(ctx context.Context) ([]ConversationRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT type, id, e164, name, profileName, members
		FROM conversations
		ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []ConversationRow
	for rows.Next() {
		var (
			typ, phone, name, profile, members sql.NullString
			c                                  ConversationRow
		)
		if err := rows.Scan(&typ, &c.ID, &phone, &name, &profile, &members); err != nil {
			return nil, err
		}
		c.Type = typ.String
		c.Phone = phone.String
		c.Name = name.String
		c.ProfileName = profile.String
		c.Members = members.String
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
