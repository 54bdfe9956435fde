package pandoc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode is wrapped by all decoding failures.
var ErrDecode = errors.New("pandoc: malformed AST JSON")

// node is the pandoc wire form of a tagged AST constructor.
type node struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c,omitempty"`
}

type wireDoc struct {
	APIVersion json.RawMessage   `json:"pandoc-api-version"`
	Meta       json.RawMessage   `json:"meta"`
	Blocks     []json.RawMessage `json:"blocks"`
}

// Decode parses a pandoc JSON document into a Document.
func Decode(data []byte) (*Document, error) {
	var w wireDoc
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	blocks, err := decodeBlocks(w.Blocks)
	if err != nil {
		return nil, err
	}
	return &Document{APIVersion: w.APIVersion, Meta: w.Meta, Blocks: blocks}, nil
}

func decodeBlocks(raws []json.RawMessage) ([]Block, error) {
	blocks := make([]Block, 0, len(raws))
	for i, raw := range raws {
		b, err := decodeBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("block[%d]: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func decodeBlockList(raw json.RawMessage) ([]Block, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, fmt.Errorf("%w: block list: %v", ErrDecode, err)
	}
	return decodeBlocks(raws)
}

func decodeBlockListList(raw json.RawMessage) ([][]Block, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, fmt.Errorf("%w: block list list: %v", ErrDecode, err)
	}
	items := make([][]Block, 0, len(raws))
	for _, r := range raws {
		bb, err := decodeBlockList(r)
		if err != nil {
			return nil, err
		}
		items = append(items, bb)
	}
	return items, nil
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	switch n.T {
	case "Plain":
		inl, err := decodeInlineList(n.C)
		if err != nil {
			return nil, err
		}
		return &Plain{Inlines: inl}, nil
	case "Para":
		inl, err := decodeInlineList(n.C)
		if err != nil {
			return nil, err
		}
		return &Para{Inlines: inl}, nil
	case "CodeBlock":
		var c struct {
			Attr json.RawMessage
			Text string
		}
		if err := decodePair(n.C, &c.Attr, &c.Text); err != nil {
			return nil, err
		}
		attr, err := decodeAttr(c.Attr)
		if err != nil {
			return nil, err
		}
		return &CodeBlock{Attr: attr, Text: c.Text}, nil
	case "RawBlock":
		var format, text string
		if err := decodePair(n.C, &format, &text); err != nil {
			return nil, err
		}
		return &RawBlock{Format: format, Text: text}, nil
	case "BlockQuote":
		bb, err := decodeBlockList(n.C)
		if err != nil {
			return nil, err
		}
		return &BlockQuote{Blocks: bb}, nil
	case "BulletList":
		items, err := decodeBlockListList(n.C)
		if err != nil {
			return nil, err
		}
		return &BulletList{Items: items}, nil
	case "OrderedList":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 2); err != nil {
			return nil, err
		}
		var listAttr []json.RawMessage
		if err := decodeTuple(parts[0], &listAttr, 3); err != nil {
			return nil, err
		}
		ol := &OrderedList{}
		if err := json.Unmarshal(listAttr[0], &ol.Start); err != nil {
			return nil, fmt.Errorf("%w: list start: %v", ErrDecode, err)
		}
		var err error
		if ol.Style, err = decodeTag(listAttr[1]); err != nil {
			return nil, err
		}
		if ol.Delim, err = decodeTag(listAttr[2]); err != nil {
			return nil, err
		}
		if ol.Items, err = decodeBlockListList(parts[1]); err != nil {
			return nil, err
		}
		return ol, nil
	case "Header":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 3); err != nil {
			return nil, err
		}
		h := &Header{}
		if err := json.Unmarshal(parts[0], &h.Level); err != nil {
			return nil, fmt.Errorf("%w: header level: %v", ErrDecode, err)
		}
		var err error
		if h.Attr, err = decodeAttr(parts[1]); err != nil {
			return nil, err
		}
		if h.Inlines, err = decodeInlineList(parts[2]); err != nil {
			return nil, err
		}
		return h, nil
	case "HorizontalRule":
		return &HorizontalRule{}, nil
	case "Div":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 2); err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		bb, err := decodeBlockList(parts[1])
		if err != nil {
			return nil, err
		}
		return &Div{Attr: attr, Blocks: bb}, nil
	default:
		// Tables, definition lists and anything newer round-trip untouched.
		return &OpaqueBlock{Raw: raw}, nil
	}
}

func decodeInlineList(raw json.RawMessage) ([]Inline, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, fmt.Errorf("%w: inline list: %v", ErrDecode, err)
	}
	inlines := make([]Inline, 0, len(raws))
	for i, r := range raws {
		inl, err := decodeInline(r)
		if err != nil {
			return nil, fmt.Errorf("inline[%d]: %w", i, err)
		}
		inlines = append(inlines, inl)
	}
	return inlines, nil
}

func decodeInline(raw json.RawMessage) (Inline, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	switch n.T {
	case "Str":
		var text string
		if err := json.Unmarshal(n.C, &text); err != nil {
			return nil, fmt.Errorf("%w: Str: %v", ErrDecode, err)
		}
		return &Str{Text: text}, nil
	case "Space":
		return &Space{}, nil
	case "SoftBreak":
		return &SoftBreak{}, nil
	case "LineBreak":
		return &LineBreak{}, nil
	case "Emph", "Underline", "Strong", "Strikeout", "Superscript", "Subscript", "SmallCaps":
		content, err := decodeInlineList(n.C)
		if err != nil {
			return nil, err
		}
		return &Formatted{Fmt: fmtFromTag(n.T), Content: content}, nil
	case "Quoted":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 2); err != nil {
			return nil, err
		}
		qt, err := decodeTag(parts[0])
		if err != nil {
			return nil, err
		}
		content, err := decodeInlineList(parts[1])
		if err != nil {
			return nil, err
		}
		return &Quoted{QuoteType: qt, Content: content}, nil
	case "Cite":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 2); err != nil {
			return nil, err
		}
		content, err := decodeInlineList(parts[1])
		if err != nil {
			return nil, err
		}
		return &Cite{Citations: parts[0], Content: content}, nil
	case "Code":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 2); err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		var text string
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, fmt.Errorf("%w: Code: %v", ErrDecode, err)
		}
		return &Code{Attr: attr, Text: text}, nil
	case "Math":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 2); err != nil {
			return nil, err
		}
		mt, err := decodeTag(parts[0])
		if err != nil {
			return nil, err
		}
		var text string
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, fmt.Errorf("%w: Math: %v", ErrDecode, err)
		}
		return &Math{MathType: mt, Text: text}, nil
	case "RawInline":
		var format, text string
		if err := decodePair(n.C, &format, &text); err != nil {
			return nil, err
		}
		return &RawInline{Format: format, Text: text}, nil
	case "Link", "Image":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 3); err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		content, err := decodeInlineList(parts[1])
		if err != nil {
			return nil, err
		}
		var url, title string
		if err := decodePair(parts[2], &url, &title); err != nil {
			return nil, err
		}
		if n.T == "Link" {
			return &Link{Attr: attr, Content: content, URL: url, Title: title}, nil
		}
		return &Image{Attr: attr, Content: content, URL: url, Title: title}, nil
	case "Note":
		bb, err := decodeBlockList(n.C)
		if err != nil {
			return nil, err
		}
		return &Note{Blocks: bb}, nil
	case "Span":
		var parts []json.RawMessage
		if err := decodeTuple(n.C, &parts, 2); err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		content, err := decodeInlineList(parts[1])
		if err != nil {
			return nil, err
		}
		return &Span{Attr: attr, Content: content}, nil
	default:
		return &OpaqueInline{Raw: raw}, nil
	}
}

func fmtFromTag(tag string) Fmt {
	for i, t := range fmtTags {
		if t == tag {
			return Fmt(i)
		}
	}
	return Emph
}

// decodeTuple unmarshals a fixed-arity JSON array.
func decodeTuple(raw json.RawMessage, parts *[]json.RawMessage, n int) error {
	if err := json.Unmarshal(raw, parts); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(*parts) != n {
		return fmt.Errorf("%w: want %d-tuple, got %d elements", ErrDecode, n, len(*parts))
	}
	return nil
}

// decodePair unmarshals a 2-tuple into two typed destinations.
func decodePair(raw json.RawMessage, a, b any) error {
	var parts []json.RawMessage
	if err := decodeTuple(raw, &parts, 2); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[0], a); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := json.Unmarshal(parts[1], b); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// decodeTag unmarshals a nullary constructor like {"t":"InlineMath"}.
func decodeTag(raw json.RawMessage) (string, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return n.T, nil
}

func decodeAttr(raw json.RawMessage) (Attr, error) {
	var parts []json.RawMessage
	if err := decodeTuple(raw, &parts, 3); err != nil {
		return Attr{}, err
	}
	var a Attr
	if err := json.Unmarshal(parts[0], &a.Identifier); err != nil {
		return Attr{}, fmt.Errorf("%w: attr identifier: %v", ErrDecode, err)
	}
	if err := json.Unmarshal(parts[1], &a.Classes); err != nil {
		return Attr{}, fmt.Errorf("%w: attr classes: %v", ErrDecode, err)
	}
	if err := json.Unmarshal(parts[2], &a.KeyVals); err != nil {
		return Attr{}, fmt.Errorf("%w: attr key/vals: %v", ErrDecode, err)
	}
	return a, nil
}
