// Package progress prints export progress from bus events.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
	"github.com/matheus3301/sigexport/internal/bus"
	"github.com/matheus3301/sigexport/internal/status"
)

var stageLabels = map[status.Stage]string{
	status.Loading:   "Fetching data",
	status.Building:  "Building chat model",
	status.Exporting: "Copying attachments and writing transcripts",
	status.Merging:   "Merging previous export",
	status.Rendering: "Creating HTML files",
	status.Done:      "Done!",
	status.Failed:    "Export failed",
}

// Options controls what the reporter prints.
type Options struct {
	// Verbose adds a line per conversation.
	Verbose bool
	Colours bool
}

// Reporter writes one line per stage change, and per conversation when verbose.
type Reporter struct {
	out   io.Writer
	opts  Options
	unsub func()
	done  chan struct{}
	mu    sync.Mutex
}

// New creates a reporter writing to out.
func New(out io.Writer, opts Options) *Reporter {
	return &Reporter{out: out, opts: opts}
}

// Start subscribes to every event on b.
func (r *Reporter) Start(b *bus.Bus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return
	}
	ch, unsub := b.Subscribe("", 256)
	r.unsub = unsub
	r.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		for evt := range ch {
			if line := r.format(evt); line != "" {
				fmt.Fprintln(r.out, line)
			}
		}
	}(r.done)
}

// Stop unsubscribes and returns once every buffered event has been printed.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return
	}
	r.unsub()
	<-r.done
	r.done = nil
}

func (r *Reporter) format(evt bus.Event) string {
	switch p := evt.Payload.(type) {
	case status.StageChange:
		label, ok := stageLabels[p.To]
		if !ok {
			return ""
		}
		switch p.To {
		case status.Done:
			return r.paint(label, color.FgGreen, color.OpBold)
		case status.Failed:
			return r.paint(label, color.FgRed, color.OpBold)
		default:
			return r.paint(label, color.FgCyan)
		}
	case bus.ConversationPayload:
		if !r.opts.Verbose {
			return ""
		}
		switch evt.Kind {
		case bus.KindConversationExported:
			return fmt.Sprintf("\t%s: %d messages", p.Name, p.Messages)
		case bus.KindConversationMerged:
			return fmt.Sprintf("\tmerged %s: %d messages", p.Name, p.Messages)
		case bus.KindConversationCopied:
			return fmt.Sprintf("\tcopied %s from old export", p.Name)
		case bus.KindPageRendered:
			return fmt.Sprintf("\thtml for %s", p.Name)
		}
	case bus.AttachmentPayload:
		if r.opts.Verbose {
			return r.paint(fmt.Sprintf("\tattachment skipped in %s: %s (%s)", p.Conversation, p.Path, p.Reason), color.FgYellow)
		}
	}
	return ""
}

func (r *Reporter) paint(s string, c ...color.Color) string {
	if !r.opts.Colours {
		return s
	}
	return color.New(c...).Render(s)
}
