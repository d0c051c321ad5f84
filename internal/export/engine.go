// Package export runs a complete export: read the Signal store, write transcripts and
// media, merge a previous export and render HTML.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/matheus3301/sigexport/internal/attachment"
	"github.com/matheus3301/sigexport/internal/bus"
	"github.com/matheus3301/sigexport/internal/htmlpage"
	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/matheus3301/sigexport/internal/lock"
	"github.com/matheus3301/sigexport/internal/merge"
	"github.com/matheus3301/sigexport/internal/model"
	"github.com/matheus3301/sigexport/internal/status"
	"github.com/matheus3301/sigexport/internal/store"
	"github.com/matheus3301/sigexport/internal/transcript"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDestinationExists is returned when the destination is already there and overwriting
// was not requested.
var ErrDestinationExists = errors.New("destination already exists, use --overwrite")

// Options configures one export run.
type Options struct {
	Source string
	Dest   string
	// Old is a previous export to merge into Dest. Empty skips merging.
	Old          string
	Overwrite    bool
	Plaintext    bool
	Decrypter    store.Decrypter
	Quote        bool
	HTML         bool
	Paginate     int
	Chats        []string
	IncludeEmpty bool
	Workers      int
	Location     *time.Location
	Stylesheet   string
}

// Summary reports what a run produced.
type Summary struct {
	Conversations int
	Messages      int
	Attachments   int
	Merged        []string
	Copied        []string
	Pages         int
}

// Engine orchestrates export runs.
type Engine struct {
	opts    Options
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger
}

// NewEngine creates an export engine.
func NewEngine(opts Options, b *bus.Bus, m *status.Machine, logger *zap.Logger) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, bus: b, machine: m, logger: logger}
}

// Run performs the export. Nothing is written to the destination until the source has been
// read and every fatal check passed.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	summary, err := e.run(ctx)
	if err != nil {
		e.machine.Fail()
		return nil, err
	}
	return summary, e.machine.Transition(status.Done)
}

func (e *Engine) run(ctx context.Context) (*Summary, error) {
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
	defer func() {
		if err := cleanup(); err != nil {
			e.logger.Warn("source cleanup failed", zap.Error(err))
		}
	}()

	if err := e.machine.Transition(status.Building); err != nil {
		return nil, err
	}
	builder := model.NewBuilder(model.BuildOptions{Chats: e.opts.Chats, IncludeEmpty: e.opts.IncludeEmpty}, e.logger)
	archive, err := builder.Build(ctx, db)
	if err != nil {
		return nil, err
	}
	e.logger.Info("archive loaded",
		zap.Int("contacts", archive.Contacts.Len()),
		zap.Int("conversations", len(archive.Conversations)))

	if err := e.checkDestination(); err != nil {
		return nil, err
	}
	lk, err := lock.Acquire(e.opts.Dest)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lk.Release(); err != nil {
			e.logger.Warn("error releasing lock", zap.Error(err))
		}
	}()

	if err := e.machine.Transition(status.Exporting); err != nil {
		return nil, err
	}
	summary, err := e.exportConversations(ctx, archive)
	if err != nil {
		return nil, err
	}

	if e.opts.Old != "" {
		if err := e.machine.Transition(status.Merging); err != nil {
			return nil, err
		}
		e.logger.Info("merging previous export, no existing files are deleted or overwritten",
			zap.String("old", e.opts.Old))
		res, err := merge.New(e.opts.Workers, e.bus, e.logger).Exports(ctx, e.opts.Dest, e.opts.Old)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		summary.Merged, summary.Copied = res.Merged, res.Copied
	}

	if e.opts.HTML {
		if err := e.machine.Transition(status.Rendering); err != nil {
			return nil, err
		}
		pages, err := e.renderHTML(ctx)
		if err != nil {
			return nil, err
		}
		summary.Pages = pages
	}

	e.logger.Info("export finished",
		zap.String("dest", e.opts.Dest),
		zap.Int("conversations", summary.Conversations),
		zap.Int("messages", summary.Messages),
		zap.Int("attachments", summary.Attachments))
	return summary, nil
}

// reset returns a machine left over from a previous run to Idle.
func (e *Engine) reset() error {
	switch e.machine.Current() {
	case status.Done, status.Failed:
		return e.machine.Transition(status.Idle)
	}
	return nil
}

func (e *Engine) openSource(ctx context.Context) (*store.DB, func() error, error) {
	e.logger.Debug("opening source", zap.String("source", e.opts.Source), zap.Bool("plaintext", e.opts.Plaintext))
	db, cleanup, err := store.OpenSource(ctx, store.SourceOptions{
		Dir:       e.opts.Source,
		Plaintext: e.opts.Plaintext,
		Decrypter: e.opts.Decrypter,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}
	return db, cleanup, nil
}

func (e *Engine) checkDestination() error {
	info, err := os.Stat(e.opts.Dest)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination %s is not a directory", e.opts.Dest)
	}
	if !e.opts.Overwrite {
		return fmt.Errorf("%s: %w", e.opts.Dest, ErrDestinationExists)
	}
	return nil
}

type conversationResult struct {
	messages    int
	attachments int
}

func (e *Engine) exportConversations(ctx context.Context, archive *model.Archive) (*Summary, error) {
	resolver := attachment.NewResolver(layout.AttachmentsRoot(e.opts.Source), e.opts.Location, e.bus, e.logger)
	renderer := transcript.NewRenderer(archive.Contacts, transcript.Options{Quote: e.opts.Quote, Location: e.opts.Location}, e.logger)

	results := make([]conversationResult, len(archive.Conversations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, conv := range archive.Conversations {
		g.Go(func() error {
			res, err := e.exportConversation(ctx, conv, resolver, renderer)
			if err != nil {
				return fmt.Errorf("export %s: %w", conv.Contact.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Conversations: len(archive.Conversations)}
	for _, r := range results {
		summary.Messages += r.messages
		summary.Attachments += r.attachments
	}
	return summary, nil
}

func (e *Engine) exportConversation(ctx context.Context, conv *model.Conversation, resolver *attachment.Resolver, renderer *transcript.Renderer) (conversationResult, error) {
	name := conv.Contact.Name
	if err := layout.EnsureChatDir(e.opts.Dest, name); err != nil {
		return conversationResult{}, err
	}

	copies := resolver.Plan(conv, layout.MediaPath(e.opts.Dest, name))
	copied, err := resolver.Execute(ctx, name, copies)
	if err != nil {
		return conversationResult{}, err
	}

	if err := transcript.WriteFile(layout.TranscriptPath(e.opts.Dest, name), renderer.Conversation(conv)); err != nil {
		return conversationResult{}, fmt.Errorf("write transcript: %w", err)
	}

	e.logger.Debug("conversation exported",
		zap.String("conversation", name),
		zap.Int("messages", len(conv.Messages)),
		zap.Int("attachments", copied))
	e.publish(bus.KindConversationExported, name, len(conv.Messages))
	return conversationResult{messages: len(conv.Messages), attachments: copied}, nil
}

func (e *Engine) renderHTML(ctx context.Context) (int, error) {
	if err := htmlpage.WriteStylesheet(e.opts.Dest, e.opts.Stylesheet, e.logger); err != nil {
		return 0, fmt.Errorf("write stylesheet: %w", err)
	}
	names, err := layout.ChatDirs(e.opts.Dest)
	if err != nil {
		return 0, fmt.Errorf("list conversations: %w", err)
	}

	renderer := htmlpage.NewRenderer(e.opts.Paginate, e.logger)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := renderer.Conversation(e.opts.Dest, name)
			if err != nil {
				return fmt.Errorf("html for %s: %w", name, err)
			}
			e.publish(bus.KindPageRendered, name, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(names), nil
}

func (e *Engine) publish(kind, name string, messages int) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(bus.Event{Kind: kind, Payload: bus.ConversationPayload{Name: name, Messages: messages}})
}
