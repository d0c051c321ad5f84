package htmlpage

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var audioTypes = map[string]string{
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.Linkify))
}

// embedMedia rewrites rendered Markdown: external links open in a new tab, images become
// click-to-enlarge figures and links to audio or video files become players.
func embedMedia(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	var replace [][2]*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Img:
				if src := attr(n, "src"); src != "" {
					replace = append(replace, [2]*html.Node{n, figure(src, attr(n, "alt"))})
					return
				}
			case atom.A:
				href := attr(n, "href")
				ext := strings.ToLower(path.Ext(hrefPath(href)))
				if typ, ok := audioTypes[ext]; ok {
					replace = append(replace, [2]*html.Node{n, player(atom.Audio, href, typ)})
					return
				}
				if typ, ok := videoTypes[ext]; ok {
					replace = append(replace, [2]*html.Node{n, player(atom.Video, href, typ)})
					return
				}
				if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
					setAttr(n, "target", "_blank")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)

	for _, r := range replace {
		r[0].Parent.InsertBefore(r[1], r[0])
		r[0].Parent.RemoveChild(r[0])
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func hrefPath(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return u.Path
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func element(a atom.Atom, as []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: as}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func attrs(kv ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return out
}

// figure builds a lightbox: the thumbnail toggles a hidden checkbox that shows a full
// size overlay.
func figure(src, alt string) *html.Node {
	id := alt
	if id == "" {
		id = src
	}
	return element(atom.Figure, nil,
		element(atom.Label, attrs("for", id),
			element(atom.Img, attrs("loading", "lazy", "src", src, "alt", alt))),
		element(atom.Input, attrs("class", "modal-state", "id", id, "type", "checkbox")),
		element(atom.Div, attrs("class", "modal"),
			element(atom.Label, attrs("for", id),
				element(atom.Div, attrs("class", "modal-content"),
					element(atom.Img, attrs("class", "modal-photo", "loading", "lazy", "src", src, "alt", alt))))),
	)
}

func player(a atom.Atom, src, typ string) *html.Node {
	return element(a, attrs("controls", ""),
		element(atom.Source, attrs("src", src, "type", typ)))
}
