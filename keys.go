package bookfilter

import (
	"regexp"
	"strings"

	"github.com/mega65/bookfilter/internal/pandoc"
)

// Key and symbol commands recognized by the expander. Longer names come
// first so the leftmost-first alternation never truncates a command.
var keyCommandPattern = regexp.MustCompile(
	`\\(megasymbolkey|screentextwide|megakeywhite|graphicsymbol|screentext|specialkey|symbolfont|megakey|widekey|stw)`)

// unescapeSpecials reverses LaTeX backslash escapes of the special
// characters $ % # & _ { } and the backslash itself.
var unescapeSpecials = regexp.MustCompile(`\\([$%#&_{}\\])`)

// topBottomSep splits a specialkey argument into its two lines.
const topBottomSep = `\\`

// keysPass expands the book's custom inline key and symbol commands into
// styled spans. Commands may sit whole inside one text token, be split
// across adjacent text/space/break tokens, or appear nested inside
// emphasis, spans, quotes, citations and links. An argument with no
// closing delimiter before the sequence ends fails open: the literal
// command text is re-emitted unmodified.
type keysPass struct{}

func (keysPass) Name() string { return "keys" }

func (keysPass) Apply(blocks []pandoc.Block) []pandoc.Block {
	return pandoc.MapInlines(blocks, expandKeyMacros)
}

func expandKeyMacros(inlines []pandoc.Inline) []pandoc.Inline {
	out := make([]pandoc.Inline, 0, len(inlines))
	for i := 0; i < len(inlines); {
		text, ok := inlineText(inlines[i])
		if !ok || !strings.Contains(text, `\`) {
			out = append(out, inlines[i])
			i++
			continue
		}
		nodes, consumed, matched := expandInToken(inlines, i)
		if !matched {
			// No expansion happened: keep the original token byte-identical.
			out = append(out, inlines[i])
			i++
			continue
		}
		out = append(out, nodes...)
		i += consumed
	}
	return out
}

// expandInToken scans the text of inlines[start] for key commands,
// collecting arguments across following tokens when necessary. It reports
// how many tokens it consumed and whether any expansion took place.
func expandInToken(inlines []pandoc.Inline, start int) (nodes []pandoc.Inline, consumed int, matched bool) {
	text, _ := inlineText(inlines[start])
	makeText := textMakerFor(inlines[start])
	consumed = 1

	for {
		name, cmdStart, cmdEnd := findKeyCommand(text)
		if cmdStart < 0 {
			if text != "" {
				nodes = append(nodes, makeText(text))
			}
			return nodes, consumed, matched
		}
		if pre := text[:cmdStart]; pre != "" {
			nodes = append(nodes, makeText(pre))
		}

		if name == "megasymbolkey" {
			nodes = append(nodes, megaSymbolSpan())
			text = strings.TrimPrefix(text[cmdEnd:], "{}")
			matched = true
			continue
		}

		rest := text[cmdEnd:]
		if rest != "" && rest[0] != '{' && rest[0] != '(' {
			// Not a command use after all; keep the literal and move on.
			nodes = append(nodes, makeText(text[cmdStart:cmdEnd]))
			text = rest
			continue
		}

		var arg, tail string
		var next int
		var closed bool
		if rest != "" {
			arg, tail, next, closed = collectArgument(inlines, start+consumed, rest[1:], closeDelim(rest[0]))
		} else {
			arg, tail, next, closed = collectOpenArgument(inlines, start+consumed)
		}
		if !closed {
			// Unclosed argument fails open: re-emit the command literally
			// and leave the following tokens untouched.
			nodes = append(nodes, makeText(text[cmdStart:]))
			return nodes, consumed, matched
		}
		nodes = append(nodes, expandKeyCommand(name, arg))
		matched = true
		if next > start+consumed {
			consumed = next - start
			makeText = textMakerFor(inlines[next-1])
		}
		text = tail
	}
}

// collectArgument gathers argument text starting inside the current token
// (head, after the open delimiter) and continuing across following tokens
// until the close delimiter. Spaces and line breaks contribute a single
// literal space. Returns the argument, the leftover tail text of the last
// consumed token, and the index just past the consumed tokens.
func collectArgument(inlines []pandoc.Inline, from int, head string, close byte) (arg, tail string, next int, ok bool) {
	if idx := strings.IndexByte(head, close); idx >= 0 {
		return head[:idx], head[idx+1:], from, true
	}
	var b strings.Builder
	b.WriteString(head)
	for k := from; k < len(inlines); k++ {
		switch inl := inlines[k].(type) {
		case *pandoc.Space, *pandoc.SoftBreak, *pandoc.LineBreak:
			b.WriteByte(' ')
		case *pandoc.Str:
			if idx := strings.IndexByte(inl.Text, close); idx >= 0 {
				b.WriteString(inl.Text[:idx])
				return b.String(), inl.Text[idx+1:], k + 1, true
			}
			b.WriteString(inl.Text)
		case *pandoc.RawInline:
			if idx := strings.IndexByte(inl.Text, close); idx >= 0 {
				b.WriteString(inl.Text[:idx])
				return b.String(), inl.Text[idx+1:], k + 1, true
			}
			b.WriteString(inl.Text)
		default:
			return "", "", from, false
		}
	}
	return "", "", from, false
}

// collectOpenArgument handles a command whose token ends right at the
// command name: the open delimiter must start a following text token,
// optionally after spaces.
func collectOpenArgument(inlines []pandoc.Inline, from int) (arg, tail string, next int, ok bool) {
	for k := from; k < len(inlines); k++ {
		switch inl := inlines[k].(type) {
		case *pandoc.Space, *pandoc.SoftBreak, *pandoc.LineBreak:
			continue
		case *pandoc.Str:
			if inl.Text == "" || (inl.Text[0] != '{' && inl.Text[0] != '(') {
				return "", "", from, false
			}
			return collectArgument(inlines, k+1, inl.Text[1:], closeDelim(inl.Text[0]))
		case *pandoc.RawInline:
			if inl.Text == "" || (inl.Text[0] != '{' && inl.Text[0] != '(') {
				return "", "", from, false
			}
			return collectArgument(inlines, k+1, inl.Text[1:], closeDelim(inl.Text[0]))
		default:
			return "", "", from, false
		}
	}
	return "", "", from, false
}

func closeDelim(open byte) byte {
	if open == '(' {
		return ')'
	}
	return '}'
}

// findKeyCommand locates the first recognized command in text. A match
// immediately followed by a letter belongs to some longer unknown command
// and is skipped.
func findKeyCommand(text string) (name string, start, end int) {
	offset := 0
	for {
		loc := keyCommandPattern.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			return "", -1, -1
		}
		s, e := offset+loc[0], offset+loc[1]
		if e < len(text) && isASCIILetter(text[e]) {
			offset = e
			continue
		}
		return text[offset+loc[2] : offset+loc[3]], s, e
	}
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// expandKeyCommand renders a command and its collected argument.
func expandKeyCommand(name, arg string) pandoc.Inline {
	switch name {
	case "specialkey":
		top, bottom, _ := strings.Cut(unescapeDollar(arg), topBottomSep)
		return pandoc.SpanWith([]string{"key", "specialkey"},
			pandoc.SpanWith([]string{"k-top"}, &pandoc.Str{Text: top}),
			pandoc.SpanWith([]string{"k-bot"}, &pandoc.Str{Text: bottom}),
		)
	case "megakey", "megakeywhite", "widekey":
		return pandoc.SpanWith([]string{"key", name}, &pandoc.Str{Text: unescapeDollar(arg)})
	case "screentext", "screentextwide", "stw":
		if name == "stw" {
			name = "screentextwide"
		}
		return pandoc.SpanWith([]string{name}, &pandoc.Str{Text: unescapeLatex(arg)})
	case "symbolfont", "graphicsymbol":
		return pandoc.SpanWith([]string{name}, &pandoc.Str{Text: arg})
	default:
		return &pandoc.Str{Text: `\` + name + `{` + arg + `}`}
	}
}

// megaSymbolSpan renders the zero-argument MEGA key command as its glyph.
func megaSymbolSpan() pandoc.Inline {
	return pandoc.SpanWith([]string{"key", "megasymbolkey"}, &pandoc.Str{Text: "M"})
}

func unescapeDollar(s string) string {
	return strings.ReplaceAll(s, `\$`, `$`)
}

func unescapeLatex(s string) string {
	return unescapeSpecials.ReplaceAllString(s, "$1")
}

// inlineText returns the literal text of a token the expander can scan.
func inlineText(inl pandoc.Inline) (string, bool) {
	switch inl := inl.(type) {
	case *pandoc.Str:
		return inl.Text, true
	case *pandoc.RawInline:
		return inl.Text, true
	default:
		return "", false
	}
}

// textMakerFor re-emits split text segments as the same node kind as the
// token they came from.
func textMakerFor(inl pandoc.Inline) func(string) pandoc.Inline {
	if ri, ok := inl.(*pandoc.RawInline); ok {
		format := ri.Format
		return func(s string) pandoc.Inline { return &pandoc.RawInline{Format: format, Text: s} }
	}
	return func(s string) pandoc.Inline { return &pandoc.Str{Text: s} }
}
