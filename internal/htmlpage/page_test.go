package htmlpage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/sigexport/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []Span
	}{
		{"five by two", 5, 2, []Span{{0, 2}, {2, 4}, {4, 5}}},
		{"exact fit", 4, 2, []Span{{0, 2}, {2, 4}}},
		{"unbounded", 5, 0, []Span{{0, 5}}},
		{"negative", 5, -1, []Span{{0, 5}}},
		{"empty", 0, 2, []Span{{0, 0}}},
		{"fewer than a page", 3, 100, []Span{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.n, tt.size))
		})
	}
}

func records(n int) []transcript.Record {
	var b strings.Builder
	for i := range n {
		b.WriteString("[2021-01-01 10:0" + string(rune('0'+i)) + "] Me: message-" + string(rune('a'+i)) + "  \n")
	}
	recs, _ := transcript.Parse(b.String())
	return recs
}

func TestRenderPaginationBoundaries(t *testing.T) {
	doc, err := NewRenderer(2, nil).Render("Test", records(5))
	require.NoError(t, err)
	out := string(doc)

	for i := range 3 {
		assert.Contains(t, out, "id='pg"+string(rune('0'+i))+"'")
	}
	assert.NotContains(t, out, "id='pg3'")
	assert.Contains(t, out, "<a href='#pg2'>LAST</a>")

	first := out[strings.Index(out, "id='pg0'"):strings.Index(out, "id='pg1'")]
	assert.Contains(t, first, "<div class=prev>PREV</div>")
	assert.Contains(t, first, "<a href='#pg1'>NEXT</a>")

	lastPage := out[strings.Index(out, "id='pg2'"):]
	assert.Contains(t, lastPage, "<a href='#pg1'>PREV</a>")
	assert.Contains(t, lastPage, "<div class=next>NEXT</div>")

	for i := range 5 {
		assert.Equal(t, 1, strings.Count(out, "message-"+string(rune('a'+i))))
	}
	assert.Equal(t, 5, strings.Count(out, "<div class='msg me'>"))
}

func TestRenderSinglePage(t *testing.T) {
	doc, err := NewRenderer(0, nil).Render("Test", records(5))
	require.NoError(t, err)
	out := string(doc)
	assert.Equal(t, 1, strings.Count(out, "class=page"))
	assert.Contains(t, out, "<div class=prev>PREV</div>")
	assert.Contains(t, out, "<div class=next>NEXT</div>")
}

func TestRenderMessageParts(t *testing.T) {
	text := "[2021-01-01 10:00] Alice: \n>\n> the quote\n>\nreply with https://example.com  " +
		"![p.jpg](./media/p.jpg)  [v.aac](./media/v.aac)  [m.mp4](./media/m.mp4)  \n(- Bob: 👍, Me: ❤️ -)\n"
	recs, _ := transcript.Parse(text)
	require.Len(t, recs, 1)

	doc, err := NewRenderer(10, nil).Render("Test", recs)
	require.NoError(t, err)
	out := string(doc)

	assert.Contains(t, out, "<div class='msg'>")
	assert.Contains(t, out, "<span class=sender>Alice</span>")
	assert.Contains(t, out, "<div class=quote>the quote</div>")
	assert.Contains(t, out, "<span class=reaction>Bob: 👍 Me: ❤️</span>")
	assert.NotContains(t, out, "(-")
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, "<figure>")
	assert.Contains(t, out, `class="modal-state"`)
	assert.Contains(t, out, `<audio controls=""><source src="./media/v.aac" type="audio/aac"/></audio>`)
	assert.Contains(t, out, `<video controls=""><source src="./media/m.mp4" type="video/mp4"/></video>`)
}

func TestRenderQuoteKeepsReplyText(t *testing.T) {
	text := "[2021-01-01 10:00] Me: \n>\n> first\nsecond\n>\nanswer\n> not a quote  \n"
	recs, _ := transcript.Parse(text)
	require.Len(t, recs, 1)

	doc, err := NewRenderer(10, nil).Render("Test", recs)
	require.NoError(t, err)
	out := string(doc)

	assert.Contains(t, out, "<div class=quote>first\nsecond</div>")
	assert.Contains(t, out, "answer")
	assert.Contains(t, out, "<blockquote>")
	assert.Contains(t, out, "not a quote")
	assert.NotContains(t, out, "second\n&gt;")
}

func TestRenderEscapesMarkup(t *testing.T) {
	recs, _ := transcript.Parse("[2021-01-01 10:00] Alice: <script>alert(1)</script>  \n")
	doc, err := NewRenderer(10, nil).Render("<b>Test</b>", recs)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "<script>alert(1)</script>")
	assert.Contains(t, string(doc), "<title>&lt;b&gt;Test&lt;/b&gt;</title>")
}

func TestEmbedMediaLeavesLocalLinks(t *testing.T) {
	out, err := embedMedia(`<p><a href="./media/doc.pdf">doc.pdf</a></p>`)
	require.NoError(t, err)
	assert.Equal(t, `<p><a href="./media/doc.pdf">doc.pdf</a></p>`, out)
}

func TestConversation(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "Test"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "Test", "index.md"),
		[]byte("junk\n[2021-01-01 10:00] Me: hello  \n"), 0o644))

	n, err := NewRenderer(100, nil).Conversation(dest, "Test")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc, err := os.ReadFile(filepath.Join(dest, "Test", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "hello")
	assert.NotContains(t, string(doc), "junk")
}

func TestWriteStylesheet(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, WriteStylesheet(dest, "", zap.NewNop()))
	data, err := os.ReadFile(filepath.Join(dest, "style.css"))
	require.NoError(t, err)
	assert.Equal(t, defaultStylesheet, data)

	custom := filepath.Join(t.TempDir(), "mine.css")
	require.NoError(t, os.WriteFile(custom, []byte("body{}"), 0o644))
	require.NoError(t, WriteStylesheet(dest, custom, zap.NewNop()))
	data, _ = os.ReadFile(filepath.Join(dest, "style.css"))
	assert.Equal(t, "body{}", string(data))

	require.NoError(t, WriteStylesheet(dest, filepath.Join(dest, "missing.css"), zap.NewNop()))
	data, _ = os.ReadFile(filepath.Join(dest, "style.css"))
	assert.Equal(t, defaultStylesheet, data)
}
