package export

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/matheus3301/sigexport/internal/model"
	"github.com/matheus3301/sigexport/internal/status"
)

// Chat describes one conversation available in the source.
type Chat struct {
	Name     string
	Group    bool
	Phone    string
	Members  []string
	Messages int
}

// ListChats reads the contact set and message counts without writing anything. The chat
// filter applies as it does to an export.
func (e *Engine) ListChats(ctx context.Context) ([]Chat, error) {
	chats, err := e.listChats(ctx)
	if err != nil {
		e.machine.Fail()
		return nil, err
	}
	return chats, e.machine.Transition(status.Done)
}

func (e *Engine) listChats(ctx context.Context) ([]Chat, error) {
	if err := e.reset(); err != nil {
		return nil, err
	}
	if err := e.machine.Transition(status.Loading); err != nil {
		return nil, err
	}
	db, cleanup, err := e.openSource(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cleanup() }()

	builder := model.NewBuilder(model.BuildOptions{Chats: e.opts.Chats}, e.logger)
	contacts, rows, err := builder.LoadContacts(ctx, db)
	if err != nil {
		return nil, err
	}
	counts, err := db.MessageCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	var chats []Chat
	for _, r := range rows {
		c, ok := contacts.Get(r.ID)
		if !ok || !builder.Selected(r) {
			continue
		}
		n := counts[c.ID]
		if n == 0 && !e.opts.IncludeEmpty {
			continue
		}
		chats = append(chats, Chat{
			Name:     c.Name,
			Group:    c.IsGroup,
			Phone:    c.Phone,
			Members:  c.Members,
			Messages: n,
		})
	}
	slices.SortFunc(chats, func(a, b Chat) int { return cmp.Compare(a.Name, b.Name) })
	return chats, nil
}
