package bookfilter

import (
	"regexp"

	"github.com/mega65/bookfilter/internal/pandoc"
)

// labelPattern matches a LaTeX label declaration anywhere in raw text.
var labelPattern = regexp.MustCompile(`\\label\{([^}]*)\}`)

// labelOnlyPattern matches raw text that is nothing but a label declaration.
var labelOnlyPattern = regexp.MustCompile(`^\s*\\label\{([^}]*)\}\s*$`)

// anchorPass converts \label markers that leaked into raw passthrough nodes
// into zero-width anchor nodes carrying the label as their id. Raw nodes
// without a label pass through untouched, so the pass is idempotent.
type anchorPass struct{}

func (anchorPass) Name() string { return "anchors" }

func (anchorPass) Apply(blocks []pandoc.Block) []pandoc.Block {
	blocks = pandoc.MapBlocks(blocks, extractBlockAnchors)
	return pandoc.MapInlines(blocks, extractInlineAnchors)
}

func extractBlockAnchors(blocks []pandoc.Block) []pandoc.Block {
	out := make([]pandoc.Block, 0, len(blocks))
	for _, b := range blocks {
		if rb, ok := b.(*pandoc.RawBlock); ok {
			if m := labelPattern.FindStringSubmatch(rb.Text); m != nil {
				out = append(out, pandoc.BlockAnchor(m[1]))
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func extractInlineAnchors(inlines []pandoc.Inline) []pandoc.Inline {
	out := make([]pandoc.Inline, 0, len(inlines))
	for _, inl := range inlines {
		if ri, ok := inl.(*pandoc.RawInline); ok {
			if m := labelPattern.FindStringSubmatch(ri.Text); m != nil {
				out = append(out, pandoc.InlineAnchor(m[1]))
				continue
			}
		}
		out = append(out, inl)
	}
	return out
}
