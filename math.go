package bookfilter

import (
	"regexp"
	"strings"

	"github.com/mega65/bookfilter/internal/pandoc"
)

var (
	loneLetterPattern = regexp.MustCompile(`^[A-Za-z]$`)
	powerOfTenPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\\times10\^(?:\{([^}]*)\}|(\d))$`)
	productPattern    = regexp.MustCompile(`^(.+?)\\times(.+)$`)
	dottedIdentifier  = regexp.MustCompile(`^(\d+)\.([A-Za-z][A-Za-z0-9]*)$`)
)

// mathPass renders a small set of inline-math literals as ordinary text so
// the converter never falls back to math rendering for them: the pi glyph,
// multiplication and inequality signs, scientific notation with a true
// superscript, and single-letter variables. Anything else stays a math
// node for the converter's default handling.
type mathPass struct{}

func (mathPass) Name() string { return "math" }

func (mathPass) Apply(blocks []pandoc.Block) []pandoc.Block {
	return pandoc.MapInlines(blocks, expandMathLiterals)
}

func expandMathLiterals(inlines []pandoc.Inline) []pandoc.Inline {
	out := make([]pandoc.Inline, 0, len(inlines))
	for _, inl := range inlines {
		m, ok := inl.(*pandoc.Math)
		if !ok || m.MathType != "InlineMath" {
			out = append(out, inl)
			continue
		}
		if repl, ok := mathLiteral(m.Text); ok {
			out = append(out, repl...)
			continue
		}
		out = append(out, inl)
	}
	return out
}

// mathLiteral matches a whitespace-normalized math expression against the
// literal rule set. The boolean reports whether any rule applied.
func mathLiteral(text string) ([]pandoc.Inline, bool) {
	expr := stripSpace(text)
	switch expr {
	case `\pi`:
		return []pandoc.Inline{pandoc.SpanWith([]string{"graphicsymbol"}, &pandoc.Str{Text: "π"})}, true
	case `\times`:
		return []pandoc.Inline{&pandoc.Str{Text: "×"}}, true
	case `\neq`:
		return []pandoc.Inline{&pandoc.Str{Text: "≠"}}, true
	}
	if loneLetterPattern.MatchString(expr) {
		return []pandoc.Inline{&pandoc.Formatted{Fmt: pandoc.Emph, Content: []pandoc.Inline{&pandoc.Str{Text: expr}}}}, true
	}
	if m := powerOfTenPattern.FindStringSubmatch(expr); m != nil {
		exp := m[2]
		if exp == "" {
			exp = m[3]
		}
		return []pandoc.Inline{
			&pandoc.Str{Text: m[1]},
			&pandoc.Space{},
			&pandoc.Str{Text: "×10"},
			&pandoc.Formatted{Fmt: pandoc.Superscript, Content: []pandoc.Inline{&pandoc.Str{Text: exp}}},
		}, true
	}
	if m := dottedIdentifier.FindStringSubmatch(expr); m != nil {
		return []pandoc.Inline{
			&pandoc.Str{Text: m[1] + "."},
			&pandoc.Formatted{Fmt: pandoc.Emph, Content: []pandoc.Inline{&pandoc.Str{Text: m[2]}}},
		}, true
	}
	if m := productPattern.FindStringSubmatch(expr); m != nil {
		return []pandoc.Inline{
			&pandoc.Str{Text: m[1]},
			&pandoc.Space{},
			&pandoc.Str{Text: "×"},
			&pandoc.Space{},
			&pandoc.Str{Text: m[2]},
		}, true
	}
	return nil, false
}

// stripSpace removes all whitespace; spacing carries no meaning in the
// literal patterns.
func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
