package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheus3301/sigexport/internal/store"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Source is the read side of the record store.
type Source interface {
	ListConversations(ctx context.Context) ([]store.ConversationRow, error)
	ScanMessages(ctx context.Context, fn func(store.MessageRow) error) error
}

// BuildOptions narrows what ends up in the archive.
type BuildOptions struct {
	// Chats keeps only conversations whose raw name or profile name is listed. Empty keeps all.
	Chats        []string
	IncludeEmpty bool
}

// Archive is the normalized chat model of one export run.
type Archive struct {
	Contacts      *Contacts
	Conversations []*Conversation
}

// Builder turns raw store rows into an Archive.
type Builder struct {
	opts   BuildOptions
	logger *zap.Logger
}

// NewBuilder creates a model builder.
func NewBuilder(opts BuildOptions, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, logger: logger}
}

// LoadContacts reads every conversation row into contacts with final sanitized names.
func (b *Builder) LoadContacts(ctx context.Context, src Source) (*Contacts, []store.ConversationRow, error) {
	rows, err := src.ListConversations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list conversations: %w", err)
	}

	list := make([]*Contact, 0, len(rows))
	for _, r := range rows {
		display := r.Name
		if display == "" {
			display = r.ProfileName
		}
		list = append(list, &Contact{
			ID:          r.ID,
			DisplayName: display,
			ProfileName: r.ProfileName,
			Phone:       r.Phone,
			IsGroup:     r.Type == "group",
		})
	}
	contacts := NewContacts(list)

	for i, r := range rows {
		if list[i].IsGroup {
			list[i].Members = resolveMembers(r.Members, contacts)
		}
	}

	AssignNames(list)
	b.logger.Debug("contacts loaded", zap.Int("contacts", len(list)))
	return contacts, rows, nil
}

// Build loads contacts, then streams messages into their conversations. Contact names are
// final before any message is attached, since rendering depends on them.
func (b *Builder) Build(ctx context.Context, src Source) (*Archive, error) {
	contacts, rows, err := b.LoadContacts(ctx, src)
	if err != nil {
		return nil, err
	}

	var convs []*Conversation
	byID := make(map[string]*Conversation)
	for _, r := range rows {
		if !b.Selected(r) {
			continue
		}
		ct, _ := contacts.Get(r.ID)
		conv := &Conversation{Contact: ct}
		convs = append(convs, conv)
		byID[r.ID] = conv
	}

	dropped := 0
	err = src.ScanMessages(ctx, func(row store.MessageRow) error {
		if row.ConversationID == "" {
			dropped++
			return nil
		}
		conv, ok := byID[row.ConversationID]
		if !ok {
			return nil
		}
		if !gjson.ValidBytes(row.Payload) {
			b.logger.Warn("malformed message payload, using fallbacks",
				zap.String("conversation", conv.Contact.Name))
		}
		msg := DecodeMessage(row.Payload, row.ConversationID)
		if msg.TimestampField == "" {
			b.logger.Debug("no timestamp, date set to 1970",
				zap.String("conversation", conv.Contact.Name))
		}
		conv.Messages = append(conv.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	if dropped > 0 {
		b.logger.Debug("dropped messages without conversation", zap.Int("count", dropped))
	}

	if !b.opts.IncludeEmpty {
		convs = lo.Filter(convs, func(c *Conversation, _ int) bool { return len(c.Messages) > 0 })
	}

	return &Archive{Contacts: contacts, Conversations: convs}, nil
}

// Selected reports whether the chat filter keeps the conversation in r.
func (b *Builder) Selected(r store.ConversationRow) bool {
	if len(b.opts.Chats) == 0 {
		return true
	}
	return (r.Name != "" && lo.Contains(b.opts.Chats, r.Name)) ||
		(r.ProfileName != "" && lo.Contains(b.opts.Chats, r.ProfileName))
}

// resolveMembers maps whitespace separated phone tokens to display names.
func resolveMembers(raw string, contacts *Contacts) []string {
	return lo.Map(strings.Fields(raw), func(token string, _ int) string {
		if ct, ok := contacts.ByPhone(token); ok && ct.DisplayName != "" {
			return ct.DisplayName
		}
		return token
	})
}
