// Package textnorm turns the catalog's rich-text fields into plain prose.
package textnorm

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Normalize strips markup from s, then removes literal `\n` and `\t`
// escape sequences and every double space. The double-space removal is a
// single left-to-right pass: a run of three spaces leaves one behind.
func Normalize(s string) string {
	out := StripTags(s)
	out = strings.ReplaceAll(out, `\n`, "")
	out = strings.ReplaceAll(out, `\t`, "")
	return strings.ReplaceAll(out, "  ", "")
}

// StripTags returns the text content of an HTML fragment. Entities are
// decoded, script and style bodies dropped, and block element boundaries
// become a single space between text runs.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	boundary := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way we keep what we have.
			return b.String()

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(z.Text())
			if boundary {
				if strings.TrimSpace(text) == "" {
					continue
				}
				if b.Len() > 0 && !endsWithSpace(b.String()) && !startsWithSpace(text) {
					b.WriteByte(' ')
				}
				boundary = false
			}
			b.WriteString(text)

		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				skip++
				continue
			}
			if isBlock(a) {
				boundary = true
			}

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isBlock(atom.Lookup(name)) {
				boundary = true
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
				continue
			}
			if isBlock(a) {
				boundary = true
			}
		}
	}
}

func endsWithSpace(s string) bool {
	return s != "" && (s[len(s)-1] == ' ' || s[len(s)-1] == '\n' || s[len(s)-1] == '\t')
}

func startsWithSpace(s string) bool {
	return s != "" && (s[0] == ' ' || s[0] == '\n' || s[0] == '\t')
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Li, atom.Ul, atom.Ol,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Table, atom.Tr, atom.Td, atom.Th, atom.Blockquote,
		atom.Section, atom.Article, atom.Header, atom.Footer, atom.Hr, atom.Pre:
		return true
	}
	return false
}
