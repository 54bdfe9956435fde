package bookfilter

import (
	"regexp"
	"strings"

	"github.com/mega65/bookfilter/internal/pandoc"
	"github.com/mega65/bookfilter/internal/titletext"
)

var (
	// chapterPattern matches a chapter declaration anywhere in raw text.
	chapterPattern = regexp.MustCompile(`\\chapter\{([^}]*)\}`)

	// wholeChapterPattern matches raw text that is nothing but a chapter
	// declaration.
	wholeChapterPattern = regexp.MustCompile(`^\s*\\chapter\{([^}]*)\}\s*$`)

	// labelLeadPattern matches a label declaration at the start of raw text.
	labelLeadPattern = regexp.MustCompile(`^\s*\\label\{([^}]*)\}`)
)

// The C64/C65/MEGA65 modes section must start its own output page during
// chunking, so it is promoted to a level-2 heading with a fixed id that the
// chunker splits on.
const (
	modesSectionMarker = `\section{C64, C65 and MEGA65 Modes}`
	modesSectionTitle  = "C64, C65 and MEGA65 Modes"
	modesSectionID     = "mega65-modes"
)

// chapterPass promotes chapter and section declarations that leaked into
// raw passthrough nodes into genuine heading nodes. A label declaration
// immediately following a promoted chapter becomes the heading's own id
// instead of a separate anchor, so cross-references land on the heading
// itself.
type chapterPass struct{}

func (chapterPass) Name() string { return "chapters" }

func (chapterPass) Apply(blocks []pandoc.Block) []pandoc.Block {
	return pandoc.MapBlocks(blocks, promoteHeadings)
}

func promoteHeadings(blocks []pandoc.Block) []pandoc.Block {
	out := make([]pandoc.Block, 0, len(blocks))
	for i := 0; i < len(blocks); {
		switch b := blocks[i].(type) {
		case *pandoc.RawBlock:
			if m := wholeChapterPattern.FindStringSubmatch(b.Text); m != nil {
				h := chapterHeading(m[1])
				i++
				i += absorbLabelBlock(h, blocks[i:])
				out = append(out, h)
				continue
			}
			if strings.Contains(b.Text, modesSectionMarker) {
				out = append(out, promoteModesSection(b)...)
				i++
				continue
			}
			if chapterPattern.MatchString(b.Text) {
				promoted, absorbed := promoteEmbeddedChapters(b, blocks[i+1:])
				out = append(out, promoted...)
				i += 1 + absorbed
				continue
			}
		case *pandoc.Para:
			if heading, residual, ok := splitChapterPara(b); ok {
				i++
				i += absorbLabelBlock(heading, blocks[i:])
				out = append(out, heading)
				if residual != nil {
					out = append(out, residual)
				}
				continue
			}
		}
		out = append(out, blocks[i])
		i++
	}
	return out
}

func chapterHeading(title string) *pandoc.Header {
	return &pandoc.Header{Level: 1, Inlines: titletext.Inlines(title)}
}

// absorbLabelBlock attaches a label-only raw block at the head of rest to
// the heading's id and reports how many blocks it consumed.
func absorbLabelBlock(h *pandoc.Header, rest []pandoc.Block) int {
	if h.Attr.Identifier != "" || len(rest) == 0 {
		return 0
	}
	rb, ok := rest[0].(*pandoc.RawBlock)
	if !ok {
		return 0
	}
	m := labelOnlyPattern.FindStringSubmatch(rb.Text)
	if m == nil {
		return 0
	}
	h.Attr.Identifier = m[1]
	return 1
}

// promoteModesSection splits the raw node around the named section marker.
// A label directly after the marker turns into a plain anchor after the
// heading; it does not replace the heading's fixed id.
func promoteModesSection(rb *pandoc.RawBlock) []pandoc.Block {
	idx := strings.Index(rb.Text, modesSectionMarker)
	pre := rb.Text[:idx]
	post := rb.Text[idx+len(modesSectionMarker):]

	var out []pandoc.Block
	if strings.TrimSpace(pre) != "" {
		out = append(out, &pandoc.RawBlock{Format: rb.Format, Text: pre})
	}
	out = append(out, &pandoc.Header{
		Level:   2,
		Attr:    pandoc.Attr{Identifier: modesSectionID},
		Inlines: titletext.Inlines(modesSectionTitle),
	})
	if m := labelLeadPattern.FindStringSubmatch(post); m != nil {
		out = append(out, pandoc.BlockAnchor(m[1]))
		post = post[len(m[0]):]
	}
	if strings.TrimSpace(post) != "" {
		out = append(out, &pandoc.RawBlock{Format: rb.Format, Text: post})
	}
	return out
}

// promoteEmbeddedChapters extracts every chapter declaration from a larger
// raw node, keeping surrounding literal text as passthrough nodes. A label
// following the last declaration may live in the next sibling block; the
// returned count says how many siblings were consumed.
func promoteEmbeddedChapters(rb *pandoc.RawBlock, rest []pandoc.Block) ([]pandoc.Block, int) {
	var out []pandoc.Block
	text := rb.Text
	var last *pandoc.Header
	for {
		loc := chapterPattern.FindStringSubmatchIndex(text)
		if loc == nil {
			break
		}
		if pre := text[:loc[0]]; strings.TrimSpace(pre) != "" {
			out = append(out, &pandoc.RawBlock{Format: rb.Format, Text: pre})
		}
		h := chapterHeading(text[loc[2]:loc[3]])
		text = text[loc[1]:]
		if m := labelLeadPattern.FindStringSubmatch(text); m != nil {
			h.Attr.Identifier = m[1]
			text = text[len(m[0]):]
		}
		out = append(out, h)
		last = h
	}
	tail := strings.TrimSpace(text) != ""
	if tail {
		out = append(out, &pandoc.RawBlock{Format: rb.Format, Text: text})
	}
	if last != nil && !tail {
		return out, absorbLabelBlock(last, rest)
	}
	return out, 0
}

// splitChapterPara handles a chapter declaration appearing as a raw inline
// inside an otherwise normal paragraph: the declaration becomes a heading
// and the remaining inlines a residual paragraph.
func splitChapterPara(p *pandoc.Para) (*pandoc.Header, pandoc.Block, bool) {
	for i, inl := range p.Inlines {
		ri, ok := inl.(*pandoc.RawInline)
		if !ok {
			continue
		}
		m := wholeChapterPattern.FindStringSubmatch(ri.Text)
		if m == nil {
			continue
		}
		rest := make([]pandoc.Inline, 0, len(p.Inlines)-1)
		rest = append(rest, p.Inlines[:i]...)
		rest = append(rest, p.Inlines[i+1:]...)
		h := chapterHeading(m[1])
		if len(rest) > 0 {
			if lead, ok := rest[0].(*pandoc.RawInline); ok {
				if lm := labelOnlyPattern.FindStringSubmatch(lead.Text); lm != nil {
					h.Attr.Identifier = lm[1]
					rest = rest[1:]
				}
			}
		}
		rest = trimEdgeSpace(rest)
		if len(rest) == 0 {
			return h, nil, true
		}
		return h, &pandoc.Para{Inlines: rest}, true
	}
	return nil, nil, false
}

// trimEdgeSpace drops leading and trailing space tokens left behind by a
// removed inline.
func trimEdgeSpace(inlines []pandoc.Inline) []pandoc.Inline {
	for len(inlines) > 0 {
		if _, ok := inlines[0].(*pandoc.Space); !ok {
			break
		}
		inlines = inlines[1:]
	}
	for len(inlines) > 0 {
		if _, ok := inlines[len(inlines)-1].(*pandoc.Space); !ok {
			break
		}
		inlines = inlines[:len(inlines)-1]
	}
	return inlines
}
