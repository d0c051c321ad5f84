// Package htmlpage renders conversation transcripts as paginated static HTML.
package htmlpage

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"

	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/matheus3301/sigexport/internal/transcript"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

//go:embed style.css
var defaultStylesheet []byte

// Span is the half-open range of message indexes shown on one page.
type Span struct {
	Start, End int
}

// Paginate splits n messages into pages of size. A size of zero or less puts everything
// on one page. There is always at least one page.
func Paginate(n, size int) []Span {
	if size <= 0 || n <= size {
		return []Span{{0, n}}
	}
	pages := make([]Span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		pages = append(pages, Span{start, min(start+size, n)})
	}
	return pages
}

// Renderer turns transcripts into HTML pages.
type Renderer struct {
	perPage int
	md      goldmark.Markdown
	logger  *zap.Logger
}

// NewRenderer creates a renderer putting perPage messages on each page.
func NewRenderer(perPage int, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{perPage: perPage, md: newMarkdown(), logger: logger}
}

// Render produces the HTML document for a conversation.
func (r *Renderer) Render(name string, records []transcript.Record) ([]byte, error) {
	spans := Paginate(len(records), r.perPage)
	last := len(spans) - 1
	data := pageData{Name: name, LastPage: last}

	for i, span := range spans {
		page := pageView{
			Index:   i,
			HasPrev: i > 0,
			Prev:    i - 1,
			HasNext: i < last,
			Next:    i + 1,
		}
		for _, rec := range records[span.Start:span.End] {
			page.Messages = append(page.Messages, r.message(name, rec))
		}
		data.Pages = append(data.Pages, page)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) message(name string, rec transcript.Record) messageView {
	parts := rec.Split()
	class := "msg"
	if rec.Sender == transcript.Me {
		class = "msg me"
	}
	return messageView{
		Class:     class,
		Date:      rec.Date,
		Time:      rec.Time,
		Sender:    rec.Sender,
		Quote:     parts.Quote,
		Body:      r.body(name, rec, parts.Text),
		Reactions: strings.Join(parts.Reactions, " "),
	}
}

func (r *Renderer) body(name string, rec transcript.Record, text string) template.HTML {
	log := r.logger.With(zap.String("conversation", name), zap.String("date", rec.Date+" "+rec.Time))

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		log.Warn("markdown conversion failed, using plain text", zap.Error(err))
		return template.HTML(template.HTMLEscapeString(text))
	}
	out, err := embedMedia(buf.String())
	if err != nil {
		log.Warn("media embedding failed", zap.Error(err))
		return template.HTML(buf.String())
	}
	return template.HTML(out)
}

// Conversation reads the transcript of the named conversation below dest and writes its
// index.html next to it. It returns the number of messages rendered.
func (r *Renderer) Conversation(dest, name string) (int, error) {
	records, leading, err := transcript.ReadFile(layout.TranscriptPath(dest, name))
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("no transcript, rendering empty page", zap.String("conversation", name))
	} else if err != nil {
		return 0, fmt.Errorf("read transcript: %w", err)
	}
	if leading != "" {
		r.logger.Warn("text before the first message skipped", zap.String("conversation", name))
	}

	doc, err := r.Render(name, records)
	if err != nil {
		return 0, err
	}
	if err := layout.WriteFileAtomic(layout.HTMLPath(dest, name), doc); err != nil {
		return 0, fmt.Errorf("write html: %w", err)
	}
	return len(records), nil
}

// WriteStylesheet places the stylesheet at the export root. custom names a file to use
// instead of the built-in one; if it cannot be read the built-in one is used and a
// warning logged.
func WriteStylesheet(dest, custom string, logger *zap.Logger) error {
	css := defaultStylesheet
	if custom != "" {
		data, err := os.ReadFile(custom)
		if err != nil {
			logger.Warn("stylesheet not found, using the built-in one",
				zap.String("path", custom),
				zap.String("dest", layout.StylesheetPath(dest)),
				zap.Error(err))
		} else {
			css = data
		}
	}
	return layout.WriteFileAtomic(layout.StylesheetPath(dest), css)
}
