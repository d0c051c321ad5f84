package bus

import "time"

// Event kinds published during an export run. Subscribers filter by prefix, e.g. "run.".
const (
	KindStageChanged         = "run.stage_changed"
	KindConversationExported = "export.conversation"
	KindAttachmentSkipped    = "export.attachment_skipped"
	KindConversationMerged   = "merge.conversation"
	KindConversationCopied   = "merge.copied"
	KindPageRendered         = "html.conversation"
)

// Event represents a progress event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// ConversationPayload identifies the conversation an event refers to.
type ConversationPayload struct {
	Name     string
	Messages int
}

// AttachmentPayload describes an attachment that was not exported.
type AttachmentPayload struct {
	Conversation string
	Path         string
	Reason       string
}
