package pandoc

import "strings"

// Stringify flattens an inline list to its literal text. Space and soft
// breaks become a single space, hard breaks a newline; formatting wrappers
// contribute the text of their content.
func Stringify(inlines []Inline) string {
	var b strings.Builder
	writeInlines(&b, inlines)
	return b.String()
}

func writeInlines(b *strings.Builder, inlines []Inline) {
	for _, inl := range inlines {
		switch inl := inl.(type) {
		case *Str:
			b.WriteString(inl.Text)
		case *Space, *SoftBreak:
			b.WriteByte(' ')
		case *LineBreak:
			b.WriteByte('\n')
		case *Code:
			b.WriteString(inl.Text)
		case *Math:
			b.WriteString(inl.Text)
		case *RawInline:
			b.WriteString(inl.Text)
		case *Formatted:
			writeInlines(b, inl.Content)
		case *Quoted:
			writeInlines(b, inl.Content)
		case *Cite:
			writeInlines(b, inl.Content)
		case *Link:
			writeInlines(b, inl.Content)
		case *Image:
			writeInlines(b, inl.Content)
		case *Span:
			writeInlines(b, inl.Content)
		}
	}
}

// BlockText returns the literal text of a block: raw and code blocks yield
// their source text, inline-bearing blocks their stringified content, and
// containers the text of their children joined by newlines.
func BlockText(b Block) string {
	switch b := b.(type) {
	case *RawBlock:
		return b.Text
	case *CodeBlock:
		return b.Text
	case *Plain:
		return Stringify(b.Inlines)
	case *Para:
		return Stringify(b.Inlines)
	case *Header:
		return Stringify(b.Inlines)
	case *Div:
		parts := make([]string, 0, len(b.Blocks))
		for _, child := range b.Blocks {
			parts = append(parts, BlockText(child))
		}
		return strings.Join(parts, "\n")
	case *BlockQuote:
		parts := make([]string, 0, len(b.Blocks))
		for _, child := range b.Blocks {
			parts = append(parts, BlockText(child))
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
