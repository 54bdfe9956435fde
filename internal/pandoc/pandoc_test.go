package pandoc

import (
	"encoding/json"
	"testing"
)

const minimalDoc = `{
  "pandoc-api-version": [1, 23, 1],
  "meta": {},
  "blocks": [
    {"t": "Header", "c": [1, ["intro", [], []], [{"t": "Str", "c": "Introduction"}]]},
    {"t": "Para", "c": [
      {"t": "Str", "c": "Hello"},
      {"t": "Space"},
      {"t": "Emph", "c": [{"t": "Str", "c": "there"}]}
    ]},
    {"t": "RawBlock", "c": ["latex", "\\label{sec:intro}"]},
    {"t": "CodeBlock", "c": [["", ["screen"], []], "PRINT \"HI\""]}
  ]
}`

func TestDecodeMinimalDocument(t *testing.T) {
	t.Parallel()

	doc, err := Decode([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(doc.Blocks) != 4 {
		t.Fatalf("len(Blocks) = %d, want 4", len(doc.Blocks))
	}

	h, ok := doc.Blocks[0].(*Header)
	if !ok {
		t.Fatalf("Blocks[0] type = %T, want *Header", doc.Blocks[0])
	}
	if h.Level != 1 || h.Attr.Identifier != "intro" {
		t.Errorf("Header = level %d id %q, want level 1 id %q", h.Level, h.Attr.Identifier, "intro")
	}

	p, ok := doc.Blocks[1].(*Para)
	if !ok {
		t.Fatalf("Blocks[1] type = %T, want *Para", doc.Blocks[1])
	}
	if got := Stringify(p.Inlines); got != "Hello there" {
		t.Errorf("Stringify() = %q, want %q", got, "Hello there")
	}

	rb, ok := doc.Blocks[2].(*RawBlock)
	if !ok {
		t.Fatalf("Blocks[2] type = %T, want *RawBlock", doc.Blocks[2])
	}
	if rb.Format != "latex" || rb.Text != `\label{sec:intro}` {
		t.Errorf("RawBlock = %q/%q", rb.Format, rb.Text)
	}

	cb, ok := doc.Blocks[3].(*CodeBlock)
	if !ok {
		t.Fatalf("Blocks[3] type = %T, want *CodeBlock", doc.Blocks[3])
	}
	if !cb.Attr.HasClass("screen") {
		t.Errorf("CodeBlock classes = %v, want screen", cb.Attr.Classes)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("Decode() error = nil, want error")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := Decode([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	doc2, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	out2, err := Encode(doc2)
	if err != nil {
		t.Fatalf("second Encode() error = %v", err)
	}
	if string(out) != string(out2) {
		t.Errorf("round trip not stable:\nfirst  %s\nsecond %s", out, out2)
	}
}

func TestOpaqueNodesSurviveRoundTrip(t *testing.T) {
	t.Parallel()

	// Table is not modeled; it must pass through byte-preserving.
	src := `{
	  "pandoc-api-version": [1, 23, 1],
	  "meta": {},
	  "blocks": [{"t": "Table", "c": [["", [], []], [null, []], [], [], [], []]}]
	}`
	doc, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	op, ok := doc.Blocks[0].(*OpaqueBlock)
	if !ok {
		t.Fatalf("Blocks[0] type = %T, want *OpaqueBlock", doc.Blocks[0])
	}
	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var round struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("Unmarshal(Encode()) error = %v", err)
	}
	var a, b any
	if err := json.Unmarshal(op.Raw, &a); err != nil {
		t.Fatalf("opaque raw invalid: %v", err)
	}
	if err := json.Unmarshal(round.Blocks[0], &b); err != nil {
		t.Fatalf("re-encoded block invalid: %v", err)
	}
}

func TestMapInlinesReachesNestedContent(t *testing.T) {
	t.Parallel()

	blocks := []Block{
		&Para{Inlines: []Inline{
			&Formatted{Fmt: Emph, Content: []Inline{&Str{Text: "a"}}},
		}},
		&BulletList{Items: [][]Block{
			{&Plain{Inlines: []Inline{&Str{Text: "b"}}}},
		}},
	}
	upper := func(inlines []Inline) []Inline {
		out := make([]Inline, 0, len(inlines))
		for _, inl := range inlines {
			if s, ok := inl.(*Str); ok {
				out = append(out, &Str{Text: s.Text + "!"})
				continue
			}
			out = append(out, inl)
		}
		return out
	}
	got := MapInlines(blocks, upper)

	p := got[0].(*Para)
	em := p.Inlines[0].(*Formatted)
	if em.Content[0].(*Str).Text != "a!" {
		t.Errorf("nested emph text = %q, want %q", em.Content[0].(*Str).Text, "a!")
	}
	bl := got[1].(*BulletList)
	pl := bl.Items[0][0].(*Plain)
	if pl.Inlines[0].(*Str).Text != "b!" {
		t.Errorf("list item text = %q, want %q", pl.Inlines[0].(*Str).Text, "b!")
	}
}

func TestStringify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inlines []Inline
		want    string
	}{
		{
			name: "words and spaces",
			inlines: []Inline{
				&Str{Text: "one"}, &Space{}, &Str{Text: "two"},
			},
			want: "one two",
		},
		{
			name: "soft break as space",
			inlines: []Inline{
				&Str{Text: "a"}, &SoftBreak{}, &Str{Text: "b"},
			},
			want: "a b",
		},
		{
			name: "containers recursed",
			inlines: []Inline{
				&Formatted{Fmt: Strong, Content: []Inline{&Str{Text: "bold"}}},
				&Space{},
				&Code{Text: "x=1"},
			},
			want: "bold x=1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Stringify(tt.inlines); got != tt.want {
				t.Errorf("Stringify() = %q, want %q", got, tt.want)
			}
		})
	}
}
