package bookfilter

import (
	"testing"

	"github.com/mega65/bookfilter/internal/pandoc"
)

func applyKeys(blocks []pandoc.Block) []pandoc.Inline {
	return keysPass{}.Apply(blocks)[0].(*pandoc.Para).Inlines
}

func rawPara(text string) []pandoc.Block {
	return []pandoc.Block{&pandoc.Para{Inlines: []pandoc.Inline{
		&pandoc.RawInline{Format: "latex", Text: text},
	}}}
}

func TestKeysPassSimpleCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		wantClasses []string
		wantText    string
	}{
		{
			name:        "megakey",
			raw:         `\megakey{RETURN}`,
			wantClasses: []string{"key", "megakey"},
			wantText:    "RETURN",
		},
		{
			name:        "megakeywhite",
			raw:         `\megakeywhite{F1}`,
			wantClasses: []string{"key", "megakeywhite"},
			wantText:    "F1",
		},
		{
			name:        "widekey with escaped dollar",
			raw:         `\widekey{\$}`,
			wantClasses: []string{"key", "widekey"},
			wantText:    "$",
		},
		{
			name:        "screentext unescapes latex specials",
			raw:         `\screentext{A\_B\%C}`,
			wantClasses: []string{"screentext"},
			wantText:    "A_B%C",
		},
		{
			name:        "stw aliases screentextwide",
			raw:         `\stw{READY.}`,
			wantClasses: []string{"screentextwide"},
			wantText:    "READY.",
		},
		{
			name:        "paren delimited argument",
			raw:         `\screentext(HELLO)`,
			wantClasses: []string{"screentext"},
			wantText:    "HELLO",
		},
		{
			name:        "symbolfont keeps argument verbatim",
			raw:         `\symbolfont{\_}`,
			wantClasses: []string{"symbolfont"},
			wantText:    `\_`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inlines := applyKeys(rawPara(tt.raw))
			if len(inlines) != 1 {
				t.Fatalf("len(inlines) = %d, want 1", len(inlines))
			}
			span, ok := inlines[0].(*pandoc.Span)
			if !ok {
				t.Fatalf("inline type = %T, want *pandoc.Span", inlines[0])
			}
			for _, class := range tt.wantClasses {
				if !span.Attr.HasClass(class) {
					t.Errorf("classes = %v, want %v", span.Attr.Classes, tt.wantClasses)
				}
			}
			if text := pandoc.Stringify(span.Content); text != tt.wantText {
				t.Errorf("span text = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestKeysPassSpecialKeyTopBottom(t *testing.T) {
	t.Parallel()

	inlines := applyKeys(rawPara(`\specialkey{INST\\DEL}`))
	if len(inlines) != 1 {
		t.Fatalf("len(inlines) = %d, want 1", len(inlines))
	}
	span := inlines[0].(*pandoc.Span)
	if !span.Attr.HasClass("specialkey") {
		t.Fatalf("classes = %v, want specialkey", span.Attr.Classes)
	}
	if len(span.Content) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(span.Content))
	}
	top := span.Content[0].(*pandoc.Span)
	bottom := span.Content[1].(*pandoc.Span)
	if !top.Attr.HasClass("k-top") || pandoc.Stringify(top.Content) != "INST" {
		t.Errorf("top = %v %q, want k-top %q", top.Attr.Classes, pandoc.Stringify(top.Content), "INST")
	}
	if !bottom.Attr.HasClass("k-bot") || pandoc.Stringify(bottom.Content) != "DEL" {
		t.Errorf("bottom = %v %q, want k-bot %q", bottom.Attr.Classes, pandoc.Stringify(bottom.Content), "DEL")
	}
}

func TestKeysPassMegaSymbolKey(t *testing.T) {
	t.Parallel()

	inlines := applyKeys(rawPara(`\megasymbolkey{}`))
	if len(inlines) != 1 {
		t.Fatalf("len(inlines) = %d, want 1", len(inlines))
	}
	span := inlines[0].(*pandoc.Span)
	if !span.Attr.HasClass("megasymbolkey") {
		t.Errorf("classes = %v, want megasymbolkey", span.Attr.Classes)
	}
	if text := pandoc.Stringify(span.Content); text != "M" {
		t.Errorf("span text = %q, want %q", text, "M")
	}
}

func TestKeysPassArgumentSpansTokens(t *testing.T) {
	t.Parallel()

	blocks := []pandoc.Block{&pandoc.Para{Inlines: []pandoc.Inline{
		&pandoc.RawInline{Format: "latex", Text: `\megakey{CURSOR`},
		&pandoc.Space{},
		&pandoc.Str{Text: `UP}`},
	}}}
	inlines := applyKeys(blocks)

	if len(inlines) != 1 {
		t.Fatalf("len(inlines) = %d, want 1", len(inlines))
	}
	span := inlines[0].(*pandoc.Span)
	if text := pandoc.Stringify(span.Content); text != "CURSOR UP" {
		t.Errorf("span text = %q, want %q", text, "CURSOR UP")
	}
}

func TestKeysPassSurroundingTextKept(t *testing.T) {
	t.Parallel()

	inlines := applyKeys(rawPara(`press \megakey{RUN/STOP} now`))
	if len(inlines) != 3 {
		t.Fatalf("len(inlines) = %d, want 3", len(inlines))
	}
	pre, ok := inlines[0].(*pandoc.RawInline)
	if !ok || pre.Text != "press " {
		t.Errorf("leading inline = %#v, want RawInline %q", inlines[0], "press ")
	}
	span := inlines[1].(*pandoc.Span)
	if text := pandoc.Stringify(span.Content); text != "RUN/STOP" {
		t.Errorf("span text = %q, want %q", text, "RUN/STOP")
	}
	post, ok := inlines[2].(*pandoc.RawInline)
	if !ok || post.Text != " now" {
		t.Errorf("trailing inline = %#v, want RawInline %q", inlines[2], " now")
	}
}

func TestKeysPassUnclosedArgumentFailsOpen(t *testing.T) {
	t.Parallel()

	blocks := rawPara(`\screentext{abc`)
	inlines := applyKeys(blocks)
	if len(inlines) != 1 {
		t.Fatalf("len(inlines) = %d, want 1", len(inlines))
	}
	raw, ok := inlines[0].(*pandoc.RawInline)
	if !ok {
		t.Fatalf("inline type = %T, want *pandoc.RawInline", inlines[0])
	}
	if raw.Text != `\screentext{abc` {
		t.Errorf("text = %q, want original %q", raw.Text, `\screentext{abc`)
	}
}

func TestKeysPassSkipsLongerUnknownCommands(t *testing.T) {
	t.Parallel()

	const text = `\megakeyboard{layout}`
	inlines := applyKeys(rawPara(text))
	if len(inlines) != 1 {
		t.Fatalf("len(inlines) = %d, want 1", len(inlines))
	}
	raw, ok := inlines[0].(*pandoc.RawInline)
	if !ok || raw.Text != text {
		t.Errorf("inline = %#v, want untouched RawInline %q", inlines[0], text)
	}
}

func TestKeysPassExpandsInsideEmphasis(t *testing.T) {
	t.Parallel()

	blocks := []pandoc.Block{&pandoc.Para{Inlines: []pandoc.Inline{
		&pandoc.Formatted{Fmt: pandoc.Emph, Content: []pandoc.Inline{
			&pandoc.RawInline{Format: "latex", Text: `\megakey{HELP}`},
		}},
	}}}
	inlines := applyKeys(blocks)

	emph := inlines[0].(*pandoc.Formatted)
	span, ok := emph.Content[0].(*pandoc.Span)
	if !ok {
		t.Fatalf("nested inline type = %T, want *pandoc.Span", emph.Content[0])
	}
	if text := pandoc.Stringify(span.Content); text != "HELP" {
		t.Errorf("span text = %q, want %q", text, "HELP")
	}
}
