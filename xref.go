package bookfilter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// refTarget is where a label resolves to: the page holding the id and the
// display text of the nearest heading.
type refTarget struct {
	File string
	Text string
}

var (
	vrefPattern     = regexp.MustCompile(`\\vref\{([^}]+)\}`)
	bookvrefPattern = regexp.MustCompile(`\\bookvref\{([^}]+)\}`)
	localAnchor     = regexp.MustCompile(`(?i)<a([^>]*)\shref="#([^"]+)"([^>]*)>([\s\S]*?)</a>`)
	anyTag          = regexp.MustCompile(`<[^>]+>`)

	glyphFixups = []struct {
		pattern *regexp.Regexp
		repl    string
	}{
		{regexp.MustCompile(`\$\\cdots\$`), "⋯"},
		{regexp.MustCompile(`\\\(\\cdots\\\)`), "⋯"},
		{regexp.MustCompile(`\\cdots`), "⋯"},
		{regexp.MustCompile(`\\textregistered\s*\{\}?`), "<sup>®</sup>"},
		{regexp.MustCompile(`\\texttrademark\s*\{\}?`), "<sup>™</sup>"},
		{regexp.MustCompile(`\\textregistered\b`), "<sup>®</sup>"},
		{regexp.MustCompile(`\\texttrademark\b`), "<sup>™</sup>"},
		{regexp.MustCompile(`\\newline\s*`), "<br />"},
		{regexp.MustCompile(`\\newpage\s*`), ""},
		{regexp.MustCompile(`\\vspace\*?\{[^}]*\}\s*`), ""},
		{regexp.MustCompile(`\\ldots`), "…"},
		{regexp.MustCompile(`\\pagenumbering\{bychapter\}`), ""},
	}
)

// XRefFixer repairs cross-references in a directory of chunked HTML pages:
// leftover \vref markers become links, same-page anchors whose target lives
// on another page are retargeted, stray LaTeX glyph commands are replaced,
// and filenames containing colons (invalid on some filesystems and in some
// EPUB readers) are renamed with links updated.
type XRefFixer struct{}

// FixDirectory rewrites every .html file under dir in place.
func (f *XRefFixer) FixDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}

	renames, err := renameColonFiles(dir)
	if err != nil {
		return err
	}

	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return err
	}
	sort.Strings(pages)

	targets := make(map[string]refTarget)
	for _, page := range pages {
		data, err := os.ReadFile(page)
		if err != nil {
			return err
		}
		collectIDs(filepath.Base(page), data, targets)
	}

	for _, page := range pages {
		data, err := os.ReadFile(page)
		if err != nil {
			return err
		}
		fixed := rewritePage(filepath.Base(page), string(data), targets, renames)
		if fixed != string(data) {
			if err := os.WriteFile(page, []byte(fixed), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// collectIDs walks a page's DOM, mapping every heading id to its text and
// every other id-bearing element to the text of the nearest preceding
// heading.
func collectIDs(fileName string, data []byte, targets map[string]refTarget) {
	root, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return
	}
	lastHeading := ""
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			id := attrValue(n, "id")
			if isHeadingTag(n.Data) {
				text := strings.TrimSpace(nodeText(n))
				if text != "" {
					lastHeading = text
				}
				if id != "" {
					display := text
					if display == "" {
						display = id
					}
					targets[id] = refTarget{File: fileName, Text: display}
				}
			} else if id != "" {
				if _, seen := targets[id]; !seen {
					display := lastHeading
					if display == "" {
						display = id
					}
					targets[id] = refTarget{File: fileName, Text: display}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func isHeadingTag(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func rewritePage(fileName, data string, targets map[string]refTarget, renames map[string]string) string {
	data = replaceVrefs(data, targets)
	data = retargetAnchors(fileName, data, targets)
	for _, fix := range glyphFixups {
		data = fix.pattern.ReplaceAllString(data, fix.repl)
	}
	data = updateRenamedLinks(data, renames)
	return data
}

// replaceVrefs turns leftover \vref and \bookvref markers into links. A
// label with no known target becomes a local anchor so the reference is
// still clickable.
func replaceVrefs(data string, targets map[string]refTarget) string {
	repl := func(m string, pat *regexp.Regexp) string {
		label := pat.FindStringSubmatch(m)[1]
		if t, ok := targets[label]; ok {
			return fmt.Sprintf("<a href=%q>%s</a>", t.File+"#"+label, t.Text)
		}
		return fmt.Sprintf("<a href=%q>%s</a>", "#"+label, label)
	}
	data = vrefPattern.ReplaceAllStringFunc(data, func(m string) string { return repl(m, vrefPattern) })
	data = bookvrefPattern.ReplaceAllStringFunc(data, func(m string) string { return repl(m, bookvrefPattern) })
	return data
}

// retargetAnchors rewrites same-page anchors whose target lives on another
// page after chunking. Raw-label link text is replaced with the target
// heading's text.
func retargetAnchors(fileName, data string, targets map[string]refTarget) string {
	return localAnchor.ReplaceAllStringFunc(data, func(m string) string {
		g := localAnchor.FindStringSubmatch(m)
		label := g[2]
		t, ok := targets[label]
		if !ok || t.File == fileName {
			return m
		}
		inner := g[4]
		pretty := strings.TrimSpace(anyTag.ReplaceAllString(inner, ""))
		display := inner
		if pretty == label || strings.HasPrefix(pretty, "sec:") || strings.HasPrefix(pretty, "cha:") {
			display = t.Text
		}
		return fmt.Sprintf("<a%s href=%q%s>%s</a>", g[1], t.File+"#"+label, g[3], display)
	})
}

// renameColonFiles renames output files whose names contain colons, which
// break EPUB packaging and some filesystems.
func renameColonFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	renames := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), ":") {
			continue
		}
		newName := strings.ReplaceAll(e.Name(), ":", "_")
		if err := os.Rename(filepath.Join(dir, e.Name()), filepath.Join(dir, newName)); err != nil {
			return nil, err
		}
		renames[e.Name()] = newName
	}
	return renames, nil
}

func updateRenamedLinks(data string, renames map[string]string) string {
	for oldName, newName := range renames {
		data = strings.ReplaceAll(data, `href="`+oldName+`"`, `href="`+newName+`"`)
		pat := regexp.MustCompile(`href="([^"]*)` + regexp.QuoteMeta(oldName) + `"`)
		data = pat.ReplaceAllString(data, `href="${1}`+newName+`"`)
	}
	return data
}
