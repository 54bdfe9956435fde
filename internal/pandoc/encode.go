package pandoc

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a Document back to pandoc JSON, preserving the input's
// API version and metadata.
func Encode(doc *Document) ([]byte, error) {
	blocks := make([]any, 0, len(doc.Blocks))
	for i, b := range doc.Blocks {
		eb, err := encodeBlock(b)
		if err != nil {
			return nil, fmt.Errorf("block[%d]: %w", i, err)
		}
		blocks = append(blocks, eb)
	}
	apiVersion := doc.APIVersion
	if apiVersion == nil {
		apiVersion = json.RawMessage(`[1,23,1]`)
	}
	meta := doc.Meta
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}
	return json.Marshal(map[string]any{
		"pandoc-api-version": apiVersion,
		"meta":               meta,
		"blocks":             blocks,
	})
}

func tagged(t string, c any) map[string]any {
	if c == nil {
		return map[string]any{"t": t}
	}
	return map[string]any{"t": t, "c": c}
}

func encodeAttr(a Attr) []any {
	classes := a.Classes
	if classes == nil {
		classes = []string{}
	}
	kvs := make([][2]string, len(a.KeyVals))
	copy(kvs, a.KeyVals)
	return []any{a.Identifier, classes, kvs}
}

func encodeBlocks(blocks []Block) ([]any, error) {
	out := make([]any, 0, len(blocks))
	for _, b := range blocks {
		eb, err := encodeBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, eb)
	}
	return out, nil
}

func encodeBlockItems(items [][]Block) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		ei, err := encodeBlocks(item)
		if err != nil {
			return nil, err
		}
		out = append(out, ei)
	}
	return out, nil
}

func encodeBlock(b Block) (any, error) {
	switch b := b.(type) {
	case *Plain:
		inl, err := encodeInlines(b.Inlines)
		if err != nil {
			return nil, err
		}
		return tagged("Plain", inl), nil
	case *Para:
		inl, err := encodeInlines(b.Inlines)
		if err != nil {
			return nil, err
		}
		return tagged("Para", inl), nil
	case *CodeBlock:
		return tagged("CodeBlock", []any{encodeAttr(b.Attr), b.Text}), nil
	case *RawBlock:
		return tagged("RawBlock", []any{b.Format, b.Text}), nil
	case *BlockQuote:
		bb, err := encodeBlocks(b.Blocks)
		if err != nil {
			return nil, err
		}
		return tagged("BlockQuote", bb), nil
	case *BulletList:
		items, err := encodeBlockItems(b.Items)
		if err != nil {
			return nil, err
		}
		return tagged("BulletList", items), nil
	case *OrderedList:
		items, err := encodeBlockItems(b.Items)
		if err != nil {
			return nil, err
		}
		listAttr := []any{b.Start, tagged(b.Style, nil), tagged(b.Delim, nil)}
		return tagged("OrderedList", []any{listAttr, items}), nil
	case *Header:
		inl, err := encodeInlines(b.Inlines)
		if err != nil {
			return nil, err
		}
		return tagged("Header", []any{b.Level, encodeAttr(b.Attr), inl}), nil
	case *HorizontalRule:
		return tagged("HorizontalRule", nil), nil
	case *Div:
		bb, err := encodeBlocks(b.Blocks)
		if err != nil {
			return nil, err
		}
		return tagged("Div", []any{encodeAttr(b.Attr), bb}), nil
	case *OpaqueBlock:
		return b.Raw, nil
	default:
		return nil, fmt.Errorf("pandoc: unknown block type %T", b)
	}
}

func encodeInlines(inlines []Inline) ([]any, error) {
	out := make([]any, 0, len(inlines))
	for _, inl := range inlines {
		ei, err := encodeInline(inl)
		if err != nil {
			return nil, err
		}
		out = append(out, ei)
	}
	return out, nil
}

func encodeInline(inl Inline) (any, error) {
	switch inl := inl.(type) {
	case *Str:
		return tagged("Str", inl.Text), nil
	case *Space:
		return tagged("Space", nil), nil
	case *SoftBreak:
		return tagged("SoftBreak", nil), nil
	case *LineBreak:
		return tagged("LineBreak", nil), nil
	case *Formatted:
		content, err := encodeInlines(inl.Content)
		if err != nil {
			return nil, err
		}
		return tagged(inl.Fmt.String(), content), nil
	case *Quoted:
		content, err := encodeInlines(inl.Content)
		if err != nil {
			return nil, err
		}
		return tagged("Quoted", []any{tagged(inl.QuoteType, nil), content}), nil
	case *Cite:
		content, err := encodeInlines(inl.Content)
		if err != nil {
			return nil, err
		}
		citations := inl.Citations
		if citations == nil {
			citations = json.RawMessage(`[]`)
		}
		return tagged("Cite", []any{citations, content}), nil
	case *Code:
		return tagged("Code", []any{encodeAttr(inl.Attr), inl.Text}), nil
	case *Math:
		return tagged("Math", []any{tagged(inl.MathType, nil), inl.Text}), nil
	case *RawInline:
		return tagged("RawInline", []any{inl.Format, inl.Text}), nil
	case *Link:
		content, err := encodeInlines(inl.Content)
		if err != nil {
			return nil, err
		}
		return tagged("Link", []any{encodeAttr(inl.Attr), content, []any{inl.URL, inl.Title}}), nil
	case *Image:
		content, err := encodeInlines(inl.Content)
		if err != nil {
			return nil, err
		}
		return tagged("Image", []any{encodeAttr(inl.Attr), content, []any{inl.URL, inl.Title}}), nil
	case *Note:
		bb, err := encodeBlocks(inl.Blocks)
		if err != nil {
			return nil, err
		}
		return tagged("Note", bb), nil
	case *Span:
		content, err := encodeInlines(inl.Content)
		if err != nil {
			return nil, err
		}
		return tagged("Span", []any{encodeAttr(inl.Attr), content}), nil
	case *OpaqueInline:
		return inl.Raw, nil
	default:
		return nil, fmt.Errorf("pandoc: unknown inline type %T", inl)
	}
}
