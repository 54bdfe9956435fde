// Package titletext turns a heading title string into rich inline content.
// Titles promoted out of raw passthrough text may carry light markup
// (emphasis, inline code); parsing them through goldmark recovers it. On
// anything the walker does not understand, the whole title falls back to a
// single plain text run.
package titletext

import (
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mega65/bookfilter/internal/pandoc"
)

var md = goldmark.New()

// Inlines parses title as a single line of Markdown and converts the
// result to pandoc inlines. Unsupported constructs make the whole title
// fall back to one plain Str.
func Inlines(title string) []pandoc.Inline {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	src := []byte(title)
	root := md.Parser().Parse(text.NewReader(src))

	para := root.FirstChild()
	if para == nil || para.NextSibling() != nil {
		return plain(title)
	}
	out, ok := convertChildren(para, src)
	if !ok || len(out) == 0 {
		return plain(title)
	}
	return out
}

func plain(title string) []pandoc.Inline {
	return []pandoc.Inline{&pandoc.Str{Text: title}}
}

func convertChildren(n gast.Node, src []byte) ([]pandoc.Inline, bool) {
	var out []pandoc.Inline
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		inls, ok := convertNode(c, src)
		if !ok {
			return nil, false
		}
		out = append(out, inls...)
	}
	return out, true
}

func convertNode(n gast.Node, src []byte) ([]pandoc.Inline, bool) {
	switch n := n.(type) {
	case *gast.Text:
		return words(string(n.Segment.Value(src))), true
	case *gast.String:
		return words(string(n.Value)), true
	case *gast.Emphasis:
		content, ok := convertChildren(n, src)
		if !ok {
			return nil, false
		}
		f := pandoc.Emph
		if n.Level >= 2 {
			f = pandoc.Strong
		}
		return []pandoc.Inline{&pandoc.Formatted{Fmt: f, Content: content}}, true
	case *gast.CodeSpan:
		var b strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			t, ok := c.(*gast.Text)
			if !ok {
				return nil, false
			}
			b.Write(t.Segment.Value(src))
		}
		return []pandoc.Inline{&pandoc.Code{Text: b.String()}}, true
	default:
		return nil, false
	}
}

// words splits literal text into Str and Space tokens the way pandoc
// tokenizes prose.
func words(s string) []pandoc.Inline {
	var out []pandoc.Inline
	fields := strings.Fields(s)
	leading := strings.HasPrefix(s, " ")
	trailing := strings.HasSuffix(s, " ")
	for i, w := range fields {
		if i > 0 || leading {
			out = append(out, &pandoc.Space{})
		}
		out = append(out, &pandoc.Str{Text: w})
	}
	if trailing && len(fields) > 0 {
		out = append(out, &pandoc.Space{})
	}
	return out
}
