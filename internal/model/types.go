package model

import "time"

// Kind tags which variant of Message a payload decoded into.
type Kind int

const (
	KindOther Kind = iota
	KindOutgoing
	KindIncoming
	KindCall
)

// ParseKind maps the payload "type" field onto a Kind.
func ParseKind(s string) Kind {
	switch s {
	case "outgoing":
		return KindOutgoing
	case "incoming":
		return KindIncoming
	case "call-history":
		return KindCall
	default:
		return KindOther
	}
}

func (k Kind) String() string {
	switch k {
	case KindOutgoing:
		return "outgoing"
	case KindIncoming:
		return "incoming"
	case KindCall:
		return "call"
	default:
		return "other"
	}
}

// Contact is a person or group in the archive.
type Contact struct {
	ID          string
	DisplayName string
	ProfileName string
	Phone       string
	IsGroup     bool
	// Members holds display names of group members, or raw tokens when unresolved.
	Members []string
	// Name is the sanitized, archive-unique name used for directories and senders.
	Name string
}

// Attachment is a media file referenced by a message.
type Attachment struct {
	Path        string
	FileName    string
	ContentType string
	// ResolvedName is filled in by the attachment resolver. Empty means skipped.
	ResolvedName string
}

// Reaction is an emoji reaction left on a message by another conversation member.
type Reaction struct {
	FromID string
	Emoji  string
}

// Message is one decoded message payload.
type Message struct {
	ConversationID string
	Kind           Kind
	// SentAt is the resolved send time in ms since the epoch.
	SentAt int64
	// TimestampField names the payload field SentAt came from; empty means the epoch fallback.
	TimestampField string
	Body           string
	Source         string
	Attachments    []*Attachment
	Reactions      []Reaction
	Quote          string
	CallIncoming   bool
	StickerEmoji   string
}

// Time returns SentAt in the given location.
func (m *Message) Time(loc *time.Location) time.Time {
	return time.UnixMilli(m.SentAt).In(loc)
}

// Conversation is the ordered message history of one contact.
type Conversation struct {
	Contact  *Contact
	Messages []*Message
}
