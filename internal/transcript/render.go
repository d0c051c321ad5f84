package transcript

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/matheus3301/sigexport/internal/model"
	"go.uber.org/zap"
)

const (
	// Me is the sender of outgoing messages.
	Me = "Me"
	// NoSender marks messages whose author cannot be resolved.
	NoSender = "No-Sender"
)

var imageExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "tif": true, "tiff": true,
}

// Options controls transcript rendering.
type Options struct {
	Quote    bool
	Location *time.Location
}

// Renderer turns messages into transcript records.
type Renderer struct {
	contacts *model.Contacts
	opts     Options
	logger   *zap.Logger
}

// NewRenderer creates a renderer resolving senders and reactions against contacts.
func NewRenderer(contacts *model.Contacts, opts Options, logger *zap.Logger) *Renderer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{contacts: contacts, opts: opts, logger: logger}
}

// Conversation renders every message of conv, one record each.
func (r *Renderer) Conversation(conv *model.Conversation) []string {
	records := make([]string, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		records = append(records, r.Render(conv, msg))
	}
	return records
}

// Render returns the record for msg, terminated by a newline. It only reads its inputs.
func (r *Renderer) Render(conv *model.Conversation, msg *model.Message) string {
	date := msg.Time(r.opts.Location).Format(DateLayout)
	log := r.logger.With(zap.String("conversation", conv.Contact.Name), zap.String("date", date))
	if msg.TimestampField == "" {
		log.Debug("no timestamp, date set to 1970")
	}

	var b strings.Builder
	b.WriteString("[" + date + "] " + r.sender(conv, msg, log) + ": ")

	if r.opts.Quote && msg.Quote != "" {
		b.WriteString(quoteBlock(msg.Quote))
	}

	b.WriteString(strings.ReplaceAll(body(msg), "`", ""))
	b.WriteString("  ")

	for _, att := range msg.Attachments {
		if att.ResolvedName == "" {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(att.ResolvedName), "."))
		if imageExts[ext] {
			b.WriteString("!")
		}
		ref := "./" + layout.MediaDir + "/" + strings.ReplaceAll(att.ResolvedName, " ", "%20")
		b.WriteString("[" + att.ResolvedName + "](" + ref + ")  ")
	}

	if reactions := r.reactions(msg, log); len(reactions) > 0 {
		b.WriteString(reactionLine(reactions))
	}

	b.WriteString("\n")
	return b.String()
}

func body(msg *model.Message) string {
	switch {
	case msg.Kind == model.KindCall && msg.CallIncoming:
		return "Incoming call"
	case msg.Kind == model.KindCall:
		return "Outgoing call"
	case msg.StickerEmoji != "":
		return msg.StickerEmoji
	default:
		return msg.Body
	}
}

func (r *Renderer) sender(conv *model.Conversation, msg *model.Message, log *zap.Logger) string {
	if msg.Kind == model.KindOutgoing {
		return Me
	}
	if !conv.Contact.IsGroup {
		return conv.Contact.Name
	}
	if msg.Source != "" {
		if ct, ok := r.contacts.ByPhone(msg.Source); ok {
			return ct.Name
		}
	}
	log.Debug("no sender")
	return NoSender
}

func (r *Renderer) reactions(msg *model.Message, log *zap.Logger) []string {
	var out []string
	for _, re := range msg.Reactions {
		ct, ok := r.contacts.Get(re.FromID)
		if !ok {
			log.Warn("reaction author not found", zap.String("from_id", re.FromID))
			continue
		}
		out = append(out, ct.Name+": "+re.Emoji)
	}
	return out
}
