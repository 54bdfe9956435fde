package bookfilter

import (
	"strings"

	"github.com/mega65/bookfilter/internal/pandoc"
)

// Size markers and the style classes they map to.
var sizeMarkerClasses = map[string]string{
	`\huge`:  "size-huge",
	`\small`: "size-small",
}

// sizeMarkPass scopes \huge and \small markers to exactly the next
// text-bearing inline within the same paragraph.
//
// The pending style is threaded through the fold as an explicit value and
// dies with the inline sequence, so state never leaks across paragraphs. A
// second marker before the first is consumed overwrites it; a marker with
// no following text is silently dropped.
type sizeMarkPass struct{}

func (sizeMarkPass) Name() string { return "sizemark" }

func (sizeMarkPass) Apply(blocks []pandoc.Block) []pandoc.Block {
	return pandoc.MapInlines(blocks, applySizeMarkers)
}

func applySizeMarkers(inlines []pandoc.Inline) []pandoc.Inline {
	out := make([]pandoc.Inline, 0, len(inlines))
	pending := "" // style class awaiting its text token, "" when none

	for _, inl := range inlines {
		if class, ok := sizeMarkerClass(inl); ok {
			pending = class
			continue
		}
		if class, rest, ok := fusedSizeMarker(inl); ok {
			// Marker fused with its text in one token applies directly.
			out = append(out, pandoc.SpanWith([]string{class}, &pandoc.Str{Text: rest}))
			pending = ""
			continue
		}
		if pending != "" && isTextBearing(inl) {
			out = append(out, pandoc.SpanWith([]string{pending}, inl))
			pending = ""
			continue
		}
		out = append(out, inl)
	}
	return out
}

// sizeMarkerClass recognizes a standalone marker token.
func sizeMarkerClass(inl pandoc.Inline) (string, bool) {
	var text string
	switch inl := inl.(type) {
	case *pandoc.RawInline:
		text = strings.TrimSpace(inl.Text)
	case *pandoc.Str:
		text = inl.Text
	default:
		return "", false
	}
	class, ok := sizeMarkerClasses[text]
	return class, ok
}

// fusedSizeMarker recognizes a text token that begins with a marker, like
// "\huge0", and returns the class and the trailing text.
func fusedSizeMarker(inl pandoc.Inline) (class, rest string, ok bool) {
	s, isStr := inl.(*pandoc.Str)
	if !isStr {
		return "", "", false
	}
	for marker, class := range sizeMarkerClasses {
		if strings.HasPrefix(s.Text, marker) && len(s.Text) > len(marker) {
			rest := s.Text[len(marker):]
			// A letter continues the command name (\smallskip), so the
			// token is a longer command, not a fused marker.
			if isASCIILetter(rest[0]) {
				continue
			}
			return class, rest, true
		}
	}
	return "", "", false
}

// isTextBearing reports whether the inline can carry a size style: a text
// run, inline code, or a raw text token.
func isTextBearing(inl pandoc.Inline) bool {
	switch inl.(type) {
	case *pandoc.Str, *pandoc.Code, *pandoc.RawInline:
		return true
	default:
		return false
	}
}
