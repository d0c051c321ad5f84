package store

// ConversationRow is one raw row of the conversations table. Empty strings stand for NULL.
type ConversationRow struct {
	Type        string
	ID          string
	Phone       string
	Name        string
	ProfileName string
	Members     string
}

// MessageRow is one raw row of the messages table: the JSON payload and its owner.
type MessageRow struct {
	Payload        []byte
	ConversationID string
}
