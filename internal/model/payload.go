package model

import "github.com/tidwall/gjson"

// timestampFields is the precedence order for a message's send time.
var timestampFields = []string{"sent_at", "timestamp", "received_at"}

// DecodeMessage turns a raw message payload into a Message. Decoding is tolerant: every
// field is read on its own, missing or mistyped fields fall back to zero values and
// unknown fields are ignored.
func DecodeMessage(payload []byte, conversationID string) *Message {
	p := gjson.ParseBytes(payload)

	m := &Message{
		ConversationID: conversationID,
		Kind:           ParseKind(p.Get("type").String()),
		Body:           p.Get("body").String(),
		Source:         p.Get("source").String(),
		Quote:          p.Get("quote.text").String(),
	}

	for _, field := range timestampFields {
		if v := p.Get(field); v.Type == gjson.Number {
			m.SentAt = v.Int()
			m.TimestampField = field
			break
		}
	}

	if m.Kind == KindCall {
		m.CallIncoming = p.Get("callHistoryDetails.wasIncoming").Bool()
	}

	if sticker := p.Get("sticker"); sticker.IsObject() {
		m.StickerEmoji = sticker.Get("data.emoji").String()
		if m.StickerEmoji == "" {
			m.StickerEmoji = sticker.Get("emoji").String()
		}
	}

	for _, a := range p.Get("attachments").Array() {
		if !a.IsObject() {
			continue
		}
		m.Attachments = append(m.Attachments, &Attachment{
			Path:        a.Get("path").String(),
			FileName:    a.Get("fileName").String(),
			ContentType: a.Get("contentType").String(),
		})
	}

	for _, r := range p.Get("reactions").Array() {
		m.Reactions = append(m.Reactions, Reaction{
			FromID: r.Get("fromId").String(),
			Emoji:  r.Get("emoji").String(),
		})
	}

	return m
}
