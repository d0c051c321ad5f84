// Package transcript renders conversations into Markdown transcripts and parses them back.
//
// Grammar version 1. A transcript is a sequence of records. A record starts with a header
// line
//
//	[YYYY-MM-DD HH:MM] sender: text
//
// (a comma after the date is accepted when reading) and owns every following line that is
// not itself a header. Bodies are not escaped, so a body line that looks like a header
// starts a new record when read back. CRLF line endings are read as LF.
//
// Inside a body, a quoted reply comes first, framed as
//
//	\n>\n> quoted text\n>\n
//
// and reactions come last on their own line as "(- Name: emoji, Name: emoji -)".
package transcript

import (
	"regexp"
	"strings"
)

// GrammarVersion identifies the line grammar shared by Render and Parse.
const GrammarVersion = 1

// DateLayout is the header timestamp layout.
const DateLayout = "2006-01-02 15:04"

var (
	headerPattern   = regexp.MustCompile(`^(\[\d{4}-\d{2}-\d{2},? \d{2}:\d{2}\])(.*?:)(.*\n)`)
	quotePattern    = regexp.MustCompile(`(?s)^\n>\n> (.*?)\n>\n`)
	reactionPattern = regexp.MustCompile(`\n\(- (.*) -\)\n?$`)
)

const reactionSep = ", "

func quoteBlock(quote string) string {
	return "\n>\n> " + quote + "\n>\n"
}

func reactionLine(reactions []string) string {
	return "\n(- " + strings.Join(reactions, reactionSep) + " -)"
}

// Record is one message as read back from a transcript.
type Record struct {
	Date   string
	Time   string
	Sender string
	// Body is the text after "sender: " including continuation lines.
	Body string
	// Raw is the exact record text, header line plus continuation lines.
	Raw string
}

// Parse splits text into records. Text before the first header cannot be attributed to a
// record and is returned separately.
func Parse(text string) (records []Record, leading string) {
	if text == "" {
		return nil, ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	var lead strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			if len(records) == 0 {
				lead.WriteString(line)
				continue
			}
			last := &records[len(records)-1]
			last.Body += line
			last.Raw += line
			continue
		}
		stamp := strings.ReplaceAll(strings.Trim(m[1], "[]"), ",", "")
		date, clock, _ := strings.Cut(stamp, " ")
		records = append(records, Record{
			Date:   date,
			Time:   clock,
			Sender: strings.TrimSpace(strings.TrimSuffix(m[2], ":")),
			Body:   strings.TrimPrefix(m[3], " "),
			Raw:    line,
		})
	}
	return records, lead.String()
}

// Parts is a record body split into its framed sections.
type Parts struct {
	Quote     string
	Text      string
	Reactions []string
}

// Split separates the leading quote block and the trailing reaction line from the
// message text.
func (r Record) Split() Parts {
	var p Parts
	body := r.Body
	if m := reactionPattern.FindStringSubmatchIndex(body); m != nil {
		p.Reactions = strings.Split(body[m[2]:m[3]], reactionSep)
		body = body[:m[0]]
	}
	if m := quotePattern.FindStringSubmatchIndex(body); m != nil {
		p.Quote = body[m[2]:m[3]]
		body = body[m[1]:]
	}
	p.Text = body
	return p
}

// Raw returns the exact text of each record.
func Raw(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Raw
	}
	return out
}
