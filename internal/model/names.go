package model

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/kyokomi/emoji/v2"
)

// Unnamed replaces names that sanitize to nothing.
const Unnamed = "unnamed"

var demojizer = sync.OnceValue(func() *strings.Replacer {
	type pair struct{ glyph, alias string }
	var pairs []pair
	for glyph, aliases := range emoji.RevCodeMap() {
		if glyph == "" || len(aliases) == 0 {
			continue
		}
		// Alias order in the map is not stable; pick the smallest one so names are
		// the same on every run.
		pairs = append(pairs, pair{glyph: glyph, alias: slices.Min(aliases)})
	}
	// Longest glyph first so multi-rune sequences win over their prefixes.
	slices.SortFunc(pairs, func(a, b pair) int {
		if c := cmp.Compare(len(b.glyph), len(a.glyph)); c != 0 {
			return c
		}
		return cmp.Compare(a.glyph, b.glyph)
	})
	args := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		args = append(args, p.glyph, p.alias)
	}
	return strings.NewReplacer(args...)
})

// Demojize replaces emoji glyphs with their :alias: text form.
func Demojize(s string) string {
	return demojizer().Replace(s)
}

// Sanitize reduces a name to letters and digits after spelling out emoji. Names that
// end up empty become "unnamed".
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range Demojize(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return Unnamed
	}
	return b.String()
}

// AssignNames sets Contact.Name for every contact: display name, else phone number,
// sanitized. A name already taken by an earlier contact gets the smallest free integer
// suffix starting at 2, so the first contact seen keeps the bare name.
func AssignNames(contacts []*Contact) {
	used := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		base := c.DisplayName
		if base == "" {
			base = c.Phone
		}
		name := Sanitize(base)
		if used[name] {
			n := 2
			for used[name+strconv.Itoa(n)] {
				n++
			}
			name += strconv.Itoa(n)
		}
		used[name] = true
		c.Name = name
	}
}
