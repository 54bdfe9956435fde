package pandoc

import "encoding/json"

// Attr is the pandoc attribute triple: identifier, classes, key/value pairs.
type Attr struct {
	Identifier string
	Classes    []string
	KeyVals    [][2]string
}

// HasClass reports whether the attribute carries the given class.
func (a Attr) HasClass(s string) bool {
	for _, c := range a.Classes {
		if c == s {
			return true
		}
	}
	return false
}

// Block is a top-level structural unit of a document.
type Block interface {
	block()
}

// Inline is a unit of content within a block.
type Inline interface {
	inline()
}

// Plain is a paragraph without paragraph semantics (list items, table cells).
type Plain struct {
	Inlines []Inline
}

// Para is an ordinary paragraph.
type Para struct {
	Inlines []Inline
}

// CodeBlock is a verbatim block with attributes.
type CodeBlock struct {
	Attr Attr
	Text string
}

// RawBlock is literal source text the upstream reader did not recognize.
type RawBlock struct {
	Format string
	Text   string
}

// BlockQuote wraps nested blocks.
type BlockQuote struct {
	Blocks []Block
}

// BulletList holds one block list per item.
type BulletList struct {
	Items [][]Block
}

// OrderedList holds numbering attributes plus one block list per item.
type OrderedList struct {
	Start int
	Style string
	Delim string
	Items [][]Block
}

// Header is a heading at the given level.
type Header struct {
	Level   int
	Attr    Attr
	Inlines []Inline
}

// HorizontalRule is a thematic break.
type HorizontalRule struct{}

// Div is a generic attributed block container.
type Div struct {
	Attr   Attr
	Blocks []Block
}

// OpaqueBlock preserves an unrecognized block node as raw JSON.
type OpaqueBlock struct {
	Raw json.RawMessage
}

func (*Plain) block()          {}
func (*Para) block()           {}
func (*CodeBlock) block()      {}
func (*RawBlock) block()       {}
func (*BlockQuote) block()     {}
func (*BulletList) block()     {}
func (*OrderedList) block()    {}
func (*Header) block()         {}
func (*HorizontalRule) block() {}
func (*Div) block()            {}
func (*OpaqueBlock) block()    {}

// Str is a text run.
type Str struct {
	Text string
}

// Space is an inter-word space.
type Space struct{}

// SoftBreak is a soft line break.
type SoftBreak struct{}

// LineBreak is a hard line break.
type LineBreak struct{}

// Fmt identifies the wrapper kind of a Formatted inline.
type Fmt int

// Formatted wrapper kinds, in pandoc tag order.
const (
	Emph Fmt = iota
	Underline
	Strong
	Strikeout
	Superscript
	Subscript
	SmallCaps
)

var fmtTags = [...]string{"Emph", "Underline", "Strong", "Strikeout", "Superscript", "Subscript", "SmallCaps"}

func (f Fmt) String() string {
	if int(f) < len(fmtTags) {
		return fmtTags[f]
	}
	return "Fmt(?)"
}

// Formatted is an emphasis-style wrapper around inline content.
type Formatted struct {
	Fmt     Fmt
	Content []Inline
}

// Quoted is quoted inline content.
type Quoted struct {
	QuoteType string // SingleQuote or DoubleQuote
	Content   []Inline
}

// Cite is a citation; the citation metadata round-trips opaquely.
type Cite struct {
	Citations json.RawMessage
	Content   []Inline
}

// Code is inline verbatim text.
type Code struct {
	Attr Attr
	Text string
}

// Math is an inline or display math expression.
type Math struct {
	MathType string // InlineMath or DisplayMath
	Text     string
}

// RawInline is literal inline source text.
type RawInline struct {
	Format string
	Text   string
}

// Link is a hyperlink with inline content and a target.
type Link struct {
	Attr    Attr
	Content []Inline
	URL     string
	Title   string
}

// Image is an image with alt content and a target.
type Image struct {
	Attr    Attr
	Content []Inline
	URL     string
	Title   string
}

// Note is a footnote containing blocks.
type Note struct {
	Blocks []Block
}

// Span is an attributed inline container.
type Span struct {
	Attr    Attr
	Content []Inline
}

// OpaqueInline preserves an unrecognized inline node as raw JSON.
type OpaqueInline struct {
	Raw json.RawMessage
}

func (*Str) inline()          {}
func (*Space) inline()        {}
func (*SoftBreak) inline()    {}
func (*LineBreak) inline()    {}
func (*Formatted) inline()    {}
func (*Quoted) inline()       {}
func (*Cite) inline()         {}
func (*Code) inline()         {}
func (*Math) inline()         {}
func (*RawInline) inline()    {}
func (*Link) inline()         {}
func (*Image) inline()        {}
func (*Note) inline()         {}
func (*Span) inline()         {}
func (*OpaqueInline) inline() {}

// Document is a parsed pandoc document. Meta and the API version are kept
// opaque; the filters only rewrite Blocks.
type Document struct {
	APIVersion json.RawMessage
	Meta       json.RawMessage
	Blocks     []Block
}

// SpanWith builds a styled span carrying only the given classes.
func SpanWith(classes []string, content ...Inline) *Span {
	return &Span{Attr: Attr{Classes: classes}, Content: content}
}

// InlineAnchor builds a zero-width inline anchor carrying only an id.
func InlineAnchor(id string) *Span {
	return &Span{Attr: Attr{Identifier: id}}
}

// BlockAnchor builds a zero-width block anchor carrying only an id.
func BlockAnchor(id string) *Div {
	return &Div{Attr: Attr{Identifier: id}}
}
