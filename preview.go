package bookfilter

import (
	_ "embed"
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/mega65/bookfilter/internal/pandoc"
)

//go:embed assets/preview.css
var previewBaseCSS string

// PreviewRenderer renders a filtered document to a quick standalone HTML
// page so filter output can be inspected without running the full converter
// toolchain. Screen blocks are syntax-highlighted; highlighting uses CSS
// classes so the embedded stylesheet can restyle them.
type PreviewRenderer struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
	lexer     chroma.Lexer
}

// NewPreviewRenderer creates a PreviewRenderer. BASIC listings have no
// dedicated lexer, so the fallback (plain) lexer keeps screen text verbatim.
func NewPreviewRenderer() *PreviewRenderer {
	lexer := lexers.Get("basic")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := styles.Get("friendly")
	if style == nil {
		style = styles.Fallback
	}
	return &PreviewRenderer{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     style,
		lexer:     chroma.Coalesce(lexer),
	}
}

// Render produces a complete HTML page for the document.
func (r *PreviewRenderer) Render(doc *pandoc.Document) (string, error) {
	if doc == nil || len(doc.Blocks) == 0 {
		return "", ErrEmptyDocument
	}

	var css strings.Builder
	css.WriteString(previewBaseCSS)
	if err := r.formatter.WriteCSS(&css, r.style); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLRender, err)
	}

	var body strings.Builder
	for _, b := range doc.Blocks {
		if err := r.renderBlock(&body, b); err != nil {
			return "", err
		}
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	page.WriteString(css.String())
	page.WriteString("</style>\n</head>\n<body>\n")
	page.WriteString(body.String())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

func (r *PreviewRenderer) renderBlock(w *strings.Builder, b pandoc.Block) error {
	switch b := b.(type) {
	case *pandoc.Header:
		id := ""
		if b.Attr.Identifier != "" {
			id = fmt.Sprintf(" id=%q", b.Attr.Identifier)
		}
		fmt.Fprintf(w, "<h%d%s>%s</h%d>\n", b.Level, id, renderInlines(b.Inlines), b.Level)
	case *pandoc.Para:
		fmt.Fprintf(w, "<p>%s</p>\n", renderInlines(b.Inlines))
	case *pandoc.Plain:
		fmt.Fprintf(w, "<p>%s</p>\n", renderInlines(b.Inlines))
	case *pandoc.CodeBlock:
		if b.Attr.HasClass(screenStyleClass) {
			return r.renderScreenBlock(w, b.Text)
		}
		fmt.Fprintf(w, "<pre><code>%s</code></pre>\n", html.EscapeString(b.Text))
	case *pandoc.Div:
		if b.Attr.Identifier != "" && len(b.Blocks) == 0 {
			fmt.Fprintf(w, "<div id=%q></div>\n", b.Attr.Identifier)
			return nil
		}
		for _, inner := range b.Blocks {
			if err := r.renderBlock(w, inner); err != nil {
				return err
			}
		}
	case *pandoc.BulletList:
		w.WriteString("<ul>\n")
		for _, item := range b.Items {
			w.WriteString("<li>")
			for _, inner := range item {
				if err := r.renderBlock(w, inner); err != nil {
					return err
				}
			}
			w.WriteString("</li>\n")
		}
		w.WriteString("</ul>\n")
	case *pandoc.OrderedList:
		w.WriteString("<ol>\n")
		for _, item := range b.Items {
			w.WriteString("<li>")
			for _, inner := range item {
				if err := r.renderBlock(w, inner); err != nil {
					return err
				}
			}
			w.WriteString("</li>\n")
		}
		w.WriteString("</ol>\n")
	case *pandoc.BlockQuote:
		w.WriteString("<blockquote>\n")
		for _, inner := range b.Blocks {
			if err := r.renderBlock(w, inner); err != nil {
				return err
			}
		}
		w.WriteString("</blockquote>\n")
	case *pandoc.HorizontalRule:
		w.WriteString("<hr>\n")
	case *pandoc.RawBlock:
		// Unprocessed source; shown as a comment so leaks are visible.
		fmt.Fprintf(w, "<!-- raw %s: %s -->\n", b.Format, html.EscapeString(b.Text))
	}
	return nil
}

func (r *PreviewRenderer) renderScreenBlock(w *strings.Builder, text string) error {
	iterator, err := r.lexer.Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHTMLRender, err)
	}
	w.WriteString(`<div class="screen">`)
	if err := r.formatter.Format(w, r.style, iterator); err != nil {
		return fmt.Errorf("%w: %v", ErrHTMLRender, err)
	}
	w.WriteString("</div>\n")
	return nil
}

func renderInlines(inlines []pandoc.Inline) string {
	var b strings.Builder
	for _, inl := range inlines {
		renderInline(&b, inl)
	}
	return b.String()
}

func renderInline(b *strings.Builder, inl pandoc.Inline) {
	switch inl := inl.(type) {
	case *pandoc.Str:
		b.WriteString(html.EscapeString(inl.Text))
	case *pandoc.Space, *pandoc.SoftBreak:
		b.WriteByte(' ')
	case *pandoc.LineBreak:
		b.WriteString("<br>\n")
	case *pandoc.Formatted:
		tag := inlineTag(inl.Fmt)
		b.WriteString("<" + tag + ">")
		b.WriteString(renderInlines(inl.Content))
		b.WriteString("</" + tag + ">")
	case *pandoc.Code:
		b.WriteString("<code>" + html.EscapeString(inl.Text) + "</code>")
	case *pandoc.Span:
		if inl.Attr.Identifier != "" && len(inl.Content) == 0 {
			fmt.Fprintf(b, "<span id=%q></span>", inl.Attr.Identifier)
			return
		}
		fmt.Fprintf(b, "<span class=%q>%s</span>",
			strings.Join(inl.Attr.Classes, " "), renderInlines(inl.Content))
	case *pandoc.Link:
		fmt.Fprintf(b, "<a href=%q>%s</a>", inl.URL, renderInlines(inl.Content))
	case *pandoc.Quoted:
		b.WriteString("“" + renderInlines(inl.Content) + "”")
	case *pandoc.Math:
		b.WriteString("<em>" + html.EscapeString(inl.Text) + "</em>")
	case *pandoc.RawInline:
		b.WriteString(html.EscapeString(inl.Text))
	}
}

func inlineTag(f pandoc.Fmt) string {
	switch f {
	case pandoc.Strong:
		return "strong"
	case pandoc.Superscript:
		return "sup"
	case pandoc.Subscript:
		return "sub"
	default:
		return "em"
	}
}
