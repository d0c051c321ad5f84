// Package merge folds a previous export into a fresh one without losing or duplicating
// messages or media.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matheus3301/sigexport/internal/attachment"
	"github.com/matheus3301/sigexport/internal/bus"
	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/matheus3301/sigexport/internal/transcript"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Records returns old followed by new with later duplicates removed. Records compare by
// their exact text.
func Records(old, new []string) []string {
	all := make([]string, 0, len(old)+len(new))
	all = append(all, old...)
	all = append(all, new...)
	return lo.Uniq(all)
}

// Result summarizes a directory level merge.
type Result struct {
	Merged []string
	Copied []string
}

// Merger merges export directories.
type Merger struct {
	workers int
	bus     *bus.Bus
	logger  *zap.Logger
}

// New creates a merger running up to workers conversations at once.
func New(workers int, b *bus.Bus, logger *zap.Logger) *Merger {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{workers: workers, bus: b, logger: logger}
}

// Chat merges the transcript at oldPath into newPath. A missing or empty old transcript
// leaves newPath untouched. When the new transcript is empty the old one is kept as is.
// Text before the first message of either file is kept ahead of the merged records.
func (m *Merger) Chat(newPath, oldPath string) (int, error) {
	log := m.logger.With(zap.String("path", newPath))

	oldRecs, oldLeading, err := transcript.ReadFile(oldPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("no old transcript, nothing to merge", zap.String("old", oldPath))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read old transcript: %w", err)
	}
	if len(oldRecs) == 0 && oldLeading == "" {
		log.Debug("old transcript is empty, nothing to merge")
		return 0, nil
	}

	newRecs, newLeading, err := transcript.ReadFile(newPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("read new transcript: %w", err)
	}
	if len(newRecs) == 0 {
		log.Debug("no new messages, keeping old transcript")
	}

	merged := Records(transcript.Raw(oldRecs), transcript.Raw(newRecs))
	leading := lo.Uniq(lo.Compact([]string{oldLeading, newLeading}))
	if len(leading) > 0 {
		log.Info("keeping text found before the first message", zap.String("old", oldPath))
	}
	if err := transcript.WriteFile(newPath, append(leading, merged...)); err != nil {
		return 0, fmt.Errorf("write merged transcript: %w", err)
	}
	log.Debug("transcript merged",
		zap.Int("old", len(oldRecs)),
		zap.Int("new", len(newRecs)),
		zap.Int("merged", len(merged)))
	return len(merged), nil
}

// Attachments copies every file in oldMedia that newMedia lacks. Existing files are never
// overwritten. It returns the number of files copied.
func Attachments(newMedia, oldMedia string) (int, error) {
	entries, err := os.ReadDir(oldMedia)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read old media: %w", err)
	}
	if err := os.MkdirAll(newMedia, 0o755); err != nil {
		return 0, fmt.Errorf("create media dir: %w", err)
	}

	copied := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		dst := filepath.Join(newMedia, e.Name())
		if _, err := os.Lstat(dst); err == nil {
			continue
		}
		if err := attachment.CopyFile(filepath.Join(oldMedia, e.Name()), dst); err != nil {
			return copied, fmt.Errorf("copy %s: %w", e.Name(), err)
		}
		copied++
	}
	return copied, nil
}

// Exports merges every conversation directory of the export at old into dest. Directories
// that exist only in old are copied over whole.
func (m *Merger) Exports(ctx context.Context, dest, old string) (*Result, error) {
	names, err := layout.ChatDirs(old)
	if err != nil {
		return nil, fmt.Errorf("list old export: %w", err)
	}

	merged := make([]bool, len(names))
	copied := make([]bool, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			oldDir := layout.ChatDir(old, name)
			newDir := layout.ChatDir(dest, name)

			if _, err := os.Stat(newDir); errors.Is(err, fs.ErrNotExist) {
				if err := copyTree(oldDir, newDir); err != nil {
					return fmt.Errorf("copy %s: %w", name, err)
				}
				copied[i] = true
				m.logger.Info("conversation copied from old export", zap.String("conversation", name))
				m.publish(bus.KindConversationCopied, name, 0)
				return nil
			}

			files, err := Attachments(layout.MediaPath(dest, name), layout.MediaPath(old, name))
			if err != nil {
				return fmt.Errorf("merge media of %s: %w", name, err)
			}
			n, err := m.Chat(layout.TranscriptPath(dest, name), layout.TranscriptPath(old, name))
			if err != nil {
				return fmt.Errorf("merge %s: %w", name, err)
			}
			merged[i] = true
			m.logger.Info("conversation merged",
				zap.String("conversation", name),
				zap.Int("messages", n),
				zap.Int("media_copied", files))
			m.publish(bus.KindConversationMerged, name, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i, name := range names {
		switch {
		case merged[i]:
			res.Merged = append(res.Merged, name)
		case copied[i]:
			res.Copied = append(res.Copied, name)
		}
	}
	return res, nil
}

func (m *Merger) publish(kind, name string, messages int) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(bus.Event{Kind: kind, Payload: bus.ConversationPayload{Name: name, Messages: messages}})
}

// copyTree copies the directory src to dst, keeping modification times of files.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return attachment.CopyFile(path, target)
		default:
			return nil
		}
	})
}
