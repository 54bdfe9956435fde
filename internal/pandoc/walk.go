package pandoc

// MapInlines applies fn to every inline sequence in the block list,
// including sequences nested inside containers. Children are transformed
// before their parent sequence so fn always sees already-rewritten content.
// Input nodes are not mutated; rewritten branches are fresh nodes.
func MapInlines(blocks []Block, fn func([]Inline) []Inline) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, mapBlockInlines(b, fn))
	}
	return out
}

func mapBlockInlines(b Block, fn func([]Inline) []Inline) Block {
	switch b := b.(type) {
	case *Plain:
		return &Plain{Inlines: fn(mapInlineChildren(b.Inlines, fn))}
	case *Para:
		return &Para{Inlines: fn(mapInlineChildren(b.Inlines, fn))}
	case *Header:
		return &Header{Level: b.Level, Attr: b.Attr, Inlines: fn(mapInlineChildren(b.Inlines, fn))}
	case *BlockQuote:
		return &BlockQuote{Blocks: MapInlines(b.Blocks, fn)}
	case *Div:
		return &Div{Attr: b.Attr, Blocks: MapInlines(b.Blocks, fn)}
	case *BulletList:
		return &BulletList{Items: mapItems(b.Items, fn)}
	case *OrderedList:
		return &OrderedList{Start: b.Start, Style: b.Style, Delim: b.Delim, Items: mapItems(b.Items, fn)}
	default:
		return b
	}
}

func mapItems(items [][]Block, fn func([]Inline) []Inline) [][]Block {
	out := make([][]Block, 0, len(items))
	for _, item := range items {
		out = append(out, MapInlines(item, fn))
	}
	return out
}

func mapInlineChildren(inlines []Inline, fn func([]Inline) []Inline) []Inline {
	out := make([]Inline, 0, len(inlines))
	for _, inl := range inlines {
		switch inl := inl.(type) {
		case *Formatted:
			out = append(out, &Formatted{Fmt: inl.Fmt, Content: fn(mapInlineChildren(inl.Content, fn))})
		case *Quoted:
			out = append(out, &Quoted{QuoteType: inl.QuoteType, Content: fn(mapInlineChildren(inl.Content, fn))})
		case *Cite:
			out = append(out, &Cite{Citations: inl.Citations, Content: fn(mapInlineChildren(inl.Content, fn))})
		case *Link:
			out = append(out, &Link{Attr: inl.Attr, Content: fn(mapInlineChildren(inl.Content, fn)), URL: inl.URL, Title: inl.Title})
		case *Span:
			out = append(out, &Span{Attr: inl.Attr, Content: fn(mapInlineChildren(inl.Content, fn))})
		case *Note:
			out = append(out, &Note{Blocks: MapInlines(inl.Blocks, fn)})
		default:
			out = append(out, inl)
		}
	}
	return out
}

// MapBlocks applies fn to every block sequence in the tree, children first.
// fn may merge, split, replace or drop nodes but never reorders them.
func MapBlocks(blocks []Block, fn func([]Block) []Block) []Block {
	mapped := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		mapped = append(mapped, mapBlockChildren(b, fn))
	}
	return fn(mapped)
}

func mapBlockChildren(b Block, fn func([]Block) []Block) Block {
	switch b := b.(type) {
	case *BlockQuote:
		return &BlockQuote{Blocks: MapBlocks(b.Blocks, fn)}
	case *Div:
		return &Div{Attr: b.Attr, Blocks: MapBlocks(b.Blocks, fn)}
	case *BulletList:
		items := make([][]Block, 0, len(b.Items))
		for _, item := range b.Items {
			items = append(items, MapBlocks(item, fn))
		}
		return &BulletList{Items: items}
	case *OrderedList:
		items := make([][]Block, 0, len(b.Items))
		for _, item := range b.Items {
			items = append(items, MapBlocks(item, fn))
		}
		return &OrderedList{Start: b.Start, Style: b.Style, Delim: b.Delim, Items: items}
	default:
		return b
	}
}
