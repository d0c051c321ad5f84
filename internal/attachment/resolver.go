package attachment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/matheus3301/sigexport/internal/bus"
	"github.com/matheus3301/sigexport/internal/model"
	"go.uber.org/zap"
)

// DateLayout is the timestamp prefix of every resolved attachment name.
const DateLayout = "2006-01-02T15-04-05.000"

// Placeholder stands in for a missing declared file name.
const Placeholder = "None"

var nameReplacer = strings.NewReplacer(" ", "_", "/", "-", ",", "", ":", "-")

// Copy is one planned file copy from the Signal attachment store into an export.
type Copy struct {
	Src string
	Dst string
}

// Resolver assigns export names to attachments and copies their files.
type Resolver struct {
	root   string
	loc    *time.Location
	bus    *bus.Bus
	logger *zap.Logger
}

// NewResolver creates a resolver reading attachments below root.
func NewResolver(root string, loc *time.Location, b *bus.Bus, logger *zap.Logger) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{root: root, loc: loc, bus: b, logger: logger}
}

// Name builds the export file name of the index-th attachment of a message sent at t.
func Name(t time.Time, index int, base string) string {
	return nameReplacer.Replace(fmt.Sprintf("%s_%02d_%s", t.Format(DateLayout), index, base))
}

// SourcePath maps a stored attachment path to a file below root. Backslashes left by
// Windows clients are treated as separators.
func SourcePath(root, stored string) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(stored, `\`, "/")))
}

// Plan sets ResolvedName on every exportable attachment of conv and returns the copies
// needed to place them in mediaDir. Attachments without a stored path are skipped and
// keep an empty ResolvedName.
func (r *Resolver) Plan(conv *model.Conversation, mediaDir string) []Copy {
	var copies []Copy
	used := make(map[string]bool)
	for _, msg := range conv.Messages {
		sent := msg.Time(r.loc)
		for i, att := range msg.Attachments {
			if att.Path == "" {
				r.skip(conv, att, sent, "no stored path")
				continue
			}
			src := SourcePath(r.root, att.Path)
			base := r.baseName(att, src)
			name := unique(Name(sent, i, base), base, used)
			used[name] = true
			att.ResolvedName = name
			copies = append(copies, Copy{Src: src, Dst: filepath.Join(mediaDir, name)})
		}
	}
	return copies
}

// baseName returns the declared file name, or the placeholder, with an extension taken
// from the content type or from sniffing the source file when the name has none.
func (r *Resolver) baseName(att *model.Attachment, src string) string {
	name := att.FileName
	if name == "" {
		name = Placeholder
	}
	if strings.Contains(name, ".") {
		return name
	}
	if att.ContentType != "" {
		ct := att.ContentType
		if _, sub, ok := strings.Cut(ct, "/"); ok {
			ct = sub
		}
		return name + "." + ct
	}
	mt, err := mimetype.DetectFile(src)
	if err != nil {
		r.logger.Debug("could not sniff attachment type", zap.String("path", src), zap.Error(err))
		return name
	}
	return name + mt.Extension()
}

// unique appends _2, _3, ... before the extension of base until name is unused. A base
// without an extension gets the suffix at the end.
func unique(name, base string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	ext := filepath.Ext(nameReplacer.Replace(base))
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !used[candidate] {
			return candidate
		}
	}
}

func (r *Resolver) skip(conv *model.Conversation, att *model.Attachment, sent time.Time, reason string) {
	r.logger.Warn("attachment skipped",
		zap.String("conversation", conv.Contact.Name),
		zap.String("date", sent.Format("2006-01-02 15:04")),
		zap.String("path", att.Path),
		zap.String("reason", reason))
	if r.bus != nil {
		r.bus.Publish(bus.Event{
			Kind:    bus.KindAttachmentSkipped,
			Payload: bus.AttachmentPayload{Conversation: conv.Contact.Name, Path: att.Path, Reason: reason},
		})
	}
}

// Execute performs the copies. A missing or unreadable source file is logged and skipped.
// It returns the number of files copied.
func (r *Resolver) Execute(ctx context.Context, conversation string, copies []Copy) (int, error) {
	copied := 0
	for _, c := range copies {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		if err := CopyFile(c.Src, c.Dst); err != nil {
			r.logger.Warn("attachment not copied",
				zap.String("conversation", conversation),
				zap.String("path", c.Src),
				zap.Error(err))
			if r.bus != nil {
				r.bus.Publish(bus.Event{
					Kind:    bus.KindAttachmentSkipped,
					Payload: bus.AttachmentPayload{Conversation: conversation, Path: c.Src, Reason: err.Error()},
				})
			}
			continue
		}
		copied++
	}
	return copied, nil
}

// CopyFile copies src to dst and carries over the modification time.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
