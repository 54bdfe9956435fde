package bookfilter

import (
	"regexp"
	"strings"

	"github.com/mega65/bookfilter/internal/pandoc"
)

// Screen-like environments recognized by the normalizer. The tcolorbox form
// wraps either a verbatim block or a line-numbered lstlisting; the named
// forms carry their body directly.
var screenEnvNames = []string{"basiccode", "screencode", "screenoutputlined", "tcolorbox"}

// screenStyleClass tags normalized code blocks for the stylesheet.
const screenStyleClass = "screen"

var (
	// Escaped dollars are introduced upstream to keep pandoc out of math
	// mode inside screen environments; the normalizer reverses them.
	escapedDollar = strings.NewReplacer(`\$`, `$`)

	verbatimBody   = regexp.MustCompile(`(?s)\\begin\{verbatim\}\n?(.*?)(?:\\end\{verbatim\}|$)`)
	lstlistingBody = regexp.MustCompile(`(?s)\\begin\{lstlisting\}[^\n]*\n?(.*?)(?:\\end\{lstlisting\}|$)`)
	tcolorboxBody  = regexp.MustCompile(`(?s)\\begin\{tcolorbox\}[^\n]*\n?(.*)`)
)

// screenPass coalesces screen-like verbatim environments, possibly spanning
// several adjacent nodes, into single code blocks classed "screen".
//
// The collection is an explicit state machine: Idle until a begin marker
// with no matching end marker in the same node, then Collecting until the
// end marker appears in a later node. A second begin marker ends the
// current collection non-greedily; end of input flushes the raw buffer back
// as literal passthrough so nothing is silently lost.
type screenPass struct{}

func (screenPass) Name() string { return "screen" }

func (screenPass) Apply(blocks []pandoc.Block) []pandoc.Block {
	return pandoc.MapBlocks(blocks, normalizeScreenBlocks)
}

// collector holds the in-flight state of a multi-node environment.
type collector struct {
	env string // environment name of the open begin marker
	raw string // literal text collected so far, begin marker included
}

func normalizeScreenBlocks(blocks []pandoc.Block) []pandoc.Block {
	out := make([]pandoc.Block, 0, len(blocks))
	var col *collector

	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		text, textual := screenNodeText(b)

		if col != nil {
			if !textual {
				// A non-textual node cannot continue the environment;
				// flush what we have and fall through to normal handling.
				out = append(out, finishCollector(col))
				col = nil
			} else {
				endIdx := strings.Index(text, endMarker(col.env))
				_, beginIdx := findBeginMarker(text)
				switch {
				case endIdx >= 0 && (beginIdx < 0 || endIdx < beginIdx):
					end := endIdx + len(endMarker(col.env))
					col.raw += "\n" + text[:end]
					out = append(out, finishCollector(col))
					col = nil
					out = append(out, scanScreenText(text[end:], &col)...)
				case beginIdx >= 0:
					// Next environment starts before ours closes; finalize
					// non-greedily and reprocess from the new begin marker.
					col.raw += "\n" + text[:beginIdx]
					out = append(out, finishCollector(col))
					col = nil
					out = append(out, scanScreenText(text[beginIdx:], &col)...)
				default:
					col.raw += "\n" + text
				}
				continue
			}
		}

		switch b := b.(type) {
		case *pandoc.RawBlock:
			if _, at := findBeginMarker(b.Text); at < 0 {
				out = append(out, b)
				continue
			}
			out = append(out, scanScreenText(b.Text, &col)...)
		case *pandoc.Para, *pandoc.Plain:
			if _, at := findBeginMarker(text); at < 0 {
				out = append(out, b)
				continue
			}
			out = append(out, scanScreenText(text, &col)...)
		default:
			out = append(out, b)
		}
	}

	if col != nil {
		// Unclosed environment at end of input: fail open with the literal
		// collected text instead of buffering forever.
		out = append(out, &pandoc.RawBlock{Format: "latex", Text: col.raw})
	}
	return out
}

// scanScreenText walks one node's literal text, emitting passthrough text
// and completed environments. If a begin marker has no end marker in the
// same text, the remaining tail becomes the open collector.
func scanScreenText(text string, col **collector) []pandoc.Block {
	var out []pandoc.Block
	for {
		env, at := findBeginMarker(text)
		if at < 0 {
			if strings.TrimSpace(text) != "" {
				out = append(out, &pandoc.RawBlock{Format: "latex", Text: text})
			}
			return out
		}
		if pre := text[:at]; strings.TrimSpace(pre) != "" {
			out = append(out, &pandoc.RawBlock{Format: "latex", Text: pre})
		}
		rest := text[at:]
		endIdx := strings.Index(rest[len(beginMarker(env)):], endMarker(env))
		if endIdx < 0 {
			*col = &collector{env: env, raw: rest}
			return out
		}
		end := len(beginMarker(env)) + endIdx + len(endMarker(env))
		out = append(out, screenCodeBlock(env, rest[:end]))
		text = rest[end:]
	}
}

// finishCollector turns a collected environment into its code block.
func finishCollector(col *collector) pandoc.Block {
	return screenCodeBlock(col.env, col.raw)
}

// screenCodeBlock extracts the verbatim body from the raw environment text
// and wraps it in a code block tagged with the screen style class.
func screenCodeBlock(env, raw string) *pandoc.CodeBlock {
	body := extractEnvBody(env, raw)
	body = escapedDollar.Replace(body)
	body = strings.Trim(body, "\n")
	return &pandoc.CodeBlock{
		Attr: pandoc.Attr{Classes: []string{screenStyleClass}},
		Text: body,
	}
}

// extractEnvBody returns the content between an environment's markers. The
// end marker may be missing when a collection was finalized non-greedily.
func extractEnvBody(env, raw string) string {
	if env == "tcolorbox" {
		if m := verbatimBody.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
		if m := lstlistingBody.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
		if m := tcolorboxBody.FindStringSubmatch(raw); m != nil {
			return strings.TrimSuffix(m[1], endMarker(env))
		}
		return raw
	}
	body := raw
	if at := strings.Index(body, beginMarker(env)); at >= 0 {
		body = body[at+len(beginMarker(env)):]
	}
	body = strings.TrimSuffix(strings.TrimRight(body, " \t\n"), endMarker(env))
	return body
}

func beginMarker(env string) string { return `\begin{` + env + `}` }
func endMarker(env string) string   { return `\end{` + env + `}` }

// findBeginMarker returns the earliest recognized begin marker in text.
func findBeginMarker(text string) (env string, at int) {
	at = -1
	for _, name := range screenEnvNames {
		if idx := strings.Index(text, beginMarker(name)); idx >= 0 && (at < 0 || idx < at) {
			env, at = name, idx
		}
	}
	return env, at
}

// screenNodeText stringifies the nodes that can carry or continue a screen
// environment: raw segments and the literal text of plain content.
func screenNodeText(b pandoc.Block) (string, bool) {
	switch b := b.(type) {
	case *pandoc.RawBlock:
		return b.Text, true
	case *pandoc.Para:
		return pandoc.Stringify(b.Inlines), true
	case *pandoc.Plain:
		return pandoc.Stringify(b.Inlines), true
	default:
		return "", false
	}
}
