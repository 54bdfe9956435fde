package bookfilter

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var (
	beginDocument = regexp.MustCompile(`(?i)\\begin\{document\}`)
	endDocument   = regexp.MustCompile(`(?i)\\end\{document\}`)

	// Environment markers; names carry no braces or whitespace.
	beginEnvPattern = regexp.MustCompile(`\\begin\s*\{\s*([^{}\s]+)\s*\}`)
	endEnvPattern   = regexp.MustCompile(`\\end\s*\{\s*([^{}\s]+)\s*\}`)

	// Pure-comment lines.
	commentLine = regexp.MustCompile(`(?m)^[ \t]*%[^\n]*\n?`)

	// Formatting commands the LaTeX reader chokes on.
	inlineStripPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\\titleformat\*?\{[^}]*\}[^\n]*`),
		regexp.MustCompile(`\\titleclass\{[^}]*\}[^\n]*`),
		regexp.MustCompile(`\\newpagestyle\{[^}]*\}[^\n]*`),
		regexp.MustCompile(`\\pagecolor\[[^\]]*\]\{[^}]*\}`),
		regexp.MustCompile(`\\pagecolor\{[^}]*\}`),
		regexp.MustCompile(`\\hypersetup\{[^}]*\}`),
		regexp.MustCompile(`\\TOCLevels\{[^}]*\}`),
		regexp.MustCompile(`\\setcounter\{tocdepth\}\{[^}]*\}`),
		regexp.MustCompile(`\\setlength\{\\tabcolsep\}\{[^}]*\}`),
		regexp.MustCompile(`\\ttfamily\b`),
		regexp.MustCompile(`\\Large\b`),
		regexp.MustCompile(`\\normalsize\b`),
		regexp.MustCompile(`\\declaretocfmt\{[^}]*\}[^\n]*`),
		regexp.MustCompile(`\\begin\{adjustwidth\}[^\n]*`),
		regexp.MustCompile(`\\end\{adjustwidth\}`),
	}

	titlePageEnv  = regexp.MustCompile(`\\begin\{titlepage\}[\s\S]*?\\end\{titlepage\}`)
	miniTocEnv    = regexp.MustCompile(`\\begin\{minitocfmt\}[\s\S]*?\\end\{minitocfmt\}`)
	pageBreakCmd  = regexp.MustCompile(`\\pagebreak\b`)
	printElseCond = regexp.MustCompile(`\\ifdefined\\printmanual([\s\S]*?)\\else([\s\S]*?)\\fi`)
	printOnlyCond = regexp.MustCompile(`\\ifdefined\\printmanual([\s\S]*?)\\fi`)

	indexCmd       = regexp.MustCompile(`\\index\{[^{}]*(?:\{\})?[^{}]*\}`)
	pageRefCmd     = regexp.MustCompile(`\\pageref\{[^{}]*(?:\{\})?[^{}]*\}`)
	addContentsCmd = regexp.MustCompile(`\\addtocontents\{[^{}]*(?:\{\})?[^{}]*\}`)
	protectGroup   = regexp.MustCompile(`\{\\protect\}`)
	needSpaceCmd   = regexp.MustCompile(`\\needspace\{[^{}]*(?:\{\})?[^{}]*\}`)
	noPageBreakCmd = regexp.MustCompile(`\\nopagebreak`)

	bookStartCmd    = regexp.MustCompile(`\\megabookstart\{([^}]*)\}\{[^}]*\}`)
	titleStreqDef   = regexp.MustCompile(`\\newcommand\\titlestreq[\s\S]*?\n\}`)
	titlePicDef     = regexp.MustCompile(`\\newcommand\\titlepic[\s\S]*?\n\}`)
	hyppoTrapEnv    = regexp.MustCompile(`\\begin\{hyppotrap\}\{([^}]*)\}\{([^}]*)\}\{([^}]*)\}([\s\S]*?)\\end\{hyppotrap\}`)
	includeGraphics = regexp.MustCompile(`\\includegraphics(?:\[[^\]]*\])?\{([^}]+)\}`)

	strayTableLines = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\\hline.*$`),
		regexp.MustCompile(`(?m)^\\hhline.*$`),
		regexp.MustCompile(`(?m)^\\cline.*$`),
	}
	multiColumnCmd = regexp.MustCompile(`\\multicolumn\{[^}]+\}\{[^}]+\}\{[^}]*\}`)
	cellColorCmd   = regexp.MustCompile(`\\cellcolor\[[^\]]+\]\{[^}]+\}`)

	tabularBlock = regexp.MustCompile(`\\begin\{tabular\*?\}[^}]*\}([\s\S]*?)\\end\{tabular\*?\}`)
	tabularBegin = regexp.MustCompile(`\\begin\{tabular`)
	rowSeparator = regexp.MustCompile(`\\\\\s*\n?`)
	trailingRow  = regexp.MustCompile(`\\\\$`)

	chapterLine       = regexp.MustCompile(`(?m)^[ \t]*\\chapter\s*(\{[^\n]*\})`)
	sectionLine       = regexp.MustCompile(`(?m)^[ \t]*\\section\s*(\{[^\n]*\})`)
	subsectionLine    = regexp.MustCompile(`(?m)^[ \t]*\\subsection\s*(\{[^\n]*\})`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
	modesChapterLine  = regexp.MustCompile(`(?m)^\\chapter\{C64, C65 and MEGA65 Modes\}`)
	nextChapterLine   = regexp.MustCompile(`(?m)^\\chapter\{`)
	anySectionLine    = regexp.MustCompile(`(?m)^\\section\s*\{`)
	anySubsectionLine = regexp.MustCompile(`(?m)^\\subsection\s*\{`)
)

// Environments that frequently break the downstream LaTeX reader. Simple
// tabular stays so the reader can still parse it.
var problemEnvNames = []string{"longtable", "tabular*", "tabularx", "adjustbox", "tikzpicture"}

// Environments the screen-block pass renders later; their bodies must not
// enter math mode.
var dollarEscapeEnvs = []string{"basiccode", "screencode", "screenoutputlined"}

// Table environments convertible to pipe tables.
var tableEnvNames = []string{"tabularx", "longtable", "tabular*", "tabular"}

// TeXPreprocessor defines the contract for LaTeX source preprocessing.
type TeXPreprocessor interface {
	PreprocessTeX(content string) string
}

// BookTeXPreprocessor flattens the book's LaTeX sources into a form the
// downstream reader parses reliably. ImageRoot, when set, is the directory
// image paths are resolved against; image references that resolve to no
// file are dropped.
type BookTeXPreprocessor struct {
	ImageRoot string
}

// PreprocessTeX applies all transformations in dependency order: body
// extraction and macro stripping first, then table and heading repair, then
// the screen-environment and modes-chapter fixups, and finally re-wrapping
// in a minimal document skeleton.
func (p *BookTeXPreprocessor) PreprocessTeX(content string) string {
	content = ExtractBody(content)
	content = StripProblemMacros(content)
	content = StripLineComments(content)
	content = NormalizeArrows(content)
	content = UnwrapNestedTabular(content)
	content = StripProblemEnvs(content)
	content = NormalizeHeadings(content)
	content = CollapseHeadingArguments(content)
	content = EscapeScreenDollars(content)
	content = p.stripMissingImages(content)
	content = SplitModesChapter(content)
	content = DemoteModesChapter(content)
	return WrapDocument(content)
}

// ExtractBody returns the text between \begin{document} and \end{document},
// or the whole input when no document wrapper is found.
func ExtractBody(content string) string {
	start := beginDocument.FindStringIndex(content)
	end := endDocument.FindStringIndex(content)
	if start != nil && end != nil && end[0] > start[1] {
		return content[start[1]:end[0]]
	}
	return content
}

// StripLineComments removes lines that are pure LaTeX comments.
func StripLineComments(content string) string {
	return commentLine.ReplaceAllString(content, "")
}

// StripProblemMacros removes formatting commands and environments that
// confuse the downstream LaTeX reader, resolves print conditionals to
// their screen branch, and rewrites a few custom macros into standard
// heading forms.
func StripProblemMacros(content string) string {
	content = titlePageEnv.ReplaceAllString(content, "\n")
	content = miniTocEnv.ReplaceAllString(content, "\n")
	for _, pat := range inlineStripPatterns {
		content = pat.ReplaceAllString(content, "")
	}
	content = pageBreakCmd.ReplaceAllString(content, "")
	content = printElseCond.ReplaceAllString(content, "$2")
	content = printOnlyCond.ReplaceAllString(content, "")

	content = indexCmd.ReplaceAllString(content, "")
	content = pageRefCmd.ReplaceAllString(content, "")
	content = addContentsCmd.ReplaceAllString(content, "")
	content = protectGroup.ReplaceAllString(content, "")
	content = needSpaceCmd.ReplaceAllString(content, "")
	content = noPageBreakCmd.ReplaceAllString(content, "")

	content = bookStartCmd.ReplaceAllString(content, `\chapter{$1}`)
	content = titleStreqDef.ReplaceAllString(content, "")
	content = titlePicDef.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, `\begin{mega65thanks}`, "")
	content = strings.ReplaceAll(content, `\end{mega65thanks}`, "")

	content = hyppoTrapEnv.ReplaceAllStringFunc(content, func(m string) string {
		g := hyppoTrapEnv.FindStringSubmatch(m)
		header := `\subsection{\texttt{` + g[1] + `} (` + g[2] + `/` + g[3] + `)}` + "\n"
		return header + g[4] + "\n"
	})
	return content
}

var arrowReplacements = []struct {
	pattern *regexp.Regexp
	glyph   string
}{
	{regexp.MustCompile(`\$\s*\\uparrow\s*\$`), "↑"},
	{regexp.MustCompile(`\$\s*\\downarrow\s*\$`), "↓"},
	{regexp.MustCompile(`\$\s*\\leftarrow\s*\$`), "←"},
	{regexp.MustCompile(`\$\s*\\rightarrow\s*\$`), "→"},
	{regexp.MustCompile(`\\uparrow`), "↑"},
	{regexp.MustCompile(`\\downarrow`), "↓"},
	{regexp.MustCompile(`\\leftarrow`), "←"},
	{regexp.MustCompile(`\\rightarrow`), "→"},
}

// NormalizeArrows replaces arrow commands, mathed or bare, with their
// Unicode glyphs.
func NormalizeArrows(content string) string {
	for _, r := range arrowReplacements {
		content = r.pattern.ReplaceAllString(content, r.glyph)
	}
	return content
}

// UnwrapNestedTabular drops the outer wrapper of nested tabular blocks so
// no nested tables reach the reader.
func UnwrapNestedTabular(content string) string {
	for {
		changed := false
		content = tabularBlock.ReplaceAllStringFunc(content, func(m string) string {
			inner := tabularBlock.FindStringSubmatch(m)[1]
			if tabularBegin.MatchString(inner) {
				changed = true
				return inner
			}
			return m
		})
		if !changed {
			return content
		}
	}
}

// StripProblemEnvs removes environments (with nesting) the reader cannot
// handle, center blocks wrapping them, complex tabulars, and stray table
// commands left behind.
func StripProblemEnvs(content string) string {
	content = removeEnvBlocks(content, problemEnvNames, nil)
	content = removeEnvBlocks(content, nil, func(env, body string) bool {
		return env == "center" && (strings.Contains(body, `\begin{longtable}`) ||
			strings.Contains(body, `\begin{tabularx}`) ||
			strings.Contains(body, `\multicolumn`) ||
			strings.Contains(body, `\cellcolor`))
	})
	content = removeEnvBlocks(content, nil, func(env, body string) bool {
		return env == "tabular" && (strings.Contains(body, `\multicolumn`) ||
			strings.Contains(body, `\cellcolor`) ||
			strings.Contains(body, `\hhline`) ||
			strings.Contains(body, `\cline`))
	})
	for _, pat := range strayTableLines {
		content = pat.ReplaceAllString(content, "")
	}
	content = multiColumnCmd.ReplaceAllString(content, "")
	content = cellColorCmd.ReplaceAllString(content, "")
	return content
}

// removeEnvBlocks walks begin/end markers with nesting awareness, dropping
// whole blocks whose environment is listed or matches the predicate. An
// unmatched begin keeps the rest of the text untouched.
func removeEnvBlocks(content string, envNames []string, predicate func(env, body string) bool) string {
	var out strings.Builder
	i := 0
	for i < len(content) {
		mb := beginEnvPattern.FindStringSubmatchIndex(content[i:])
		if mb == nil {
			out.WriteString(content[i:])
			break
		}
		begin := i + mb[0]
		out.WriteString(content[i:begin])
		env := content[i+mb[2] : i+mb[3]]

		j := i + mb[1]
		depth := 1
		bodyEnd := -1
		for j < len(content) && depth > 0 {
			nb := beginEnvPattern.FindStringSubmatchIndex(content[j:])
			ne := endEnvPattern.FindStringSubmatchIndex(content[j:])
			if ne == nil {
				out.WriteString(content[begin:])
				return out.String()
			}
			if nb != nil && nb[0] < ne[0] {
				if content[j+nb[2]:j+nb[3]] == env {
					depth++
				}
				j += nb[1]
				continue
			}
			if content[j+ne[2]:j+ne[3]] == env {
				depth--
			}
			bodyEnd = j + ne[0]
			j += ne[1]
		}

		var body string
		if depth == 0 && bodyEnd >= 0 {
			body = content[i+mb[1] : bodyEnd]
		}
		drop := false
		for _, name := range envNames {
			if env == name {
				drop = true
				break
			}
		}
		if predicate != nil && predicate(env, body) {
			drop = true
		}
		if drop {
			out.WriteString("\n")
		} else {
			out.WriteString(content[begin:j])
		}
		i = j
	}
	return out.String()
}

// ConvertSimpleTables rewrites plain table environments into pipe tables;
// complex tables (multicolumn, cell colors) are dropped.
//
// Not part of PreprocessTeX: pandoc reads the preprocessed source as LaTeX,
// where pipe rows are literal text. Offered for callers feeding a markdown
// reader instead.
func ConvertSimpleTables(content string) string {
	for _, env := range tableEnvNames {
		quoted := regexp.QuoteMeta(env)
		pat := regexp.MustCompile(`\\begin\{` + quoted + `\}\{[^}]*\}([\s\S]*?)\\end\{` + quoted + `\}`)
		content = pat.ReplaceAllStringFunc(content, func(m string) string {
			body := pat.FindStringSubmatch(m)[1]
			if strings.Contains(body, `\multicolumn`) || strings.Contains(body, `\cellcolor`) {
				return "\n"
			}
			return "\n" + tableToPipes(body) + "\n"
		})
	}
	return content
}

func tableToPipes(body string) string {
	var kept []string
	for _, ln := range strings.Split(body, "\n") {
		t := strings.TrimSpace(ln)
		if t != "" && !strings.HasPrefix(t, `\hline`) {
			kept = append(kept, ln)
		}
	}
	var rows [][]string
	for _, part := range rowSeparator.Split(strings.Join(kept, "\n"), -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = trailingRow.ReplaceAllString(part, "")
		cols := strings.Split(part, "&")
		for k := range cols {
			cols[k] = strings.TrimSpace(cols[k])
		}
		rows = append(rows, cols)
	}
	if len(rows) == 0 {
		return ""
	}
	var lines []string
	lines = append(lines, "| "+strings.Join(rows[0], " | ")+" |")
	seps := make([]string, len(rows[0]))
	for k := range seps {
		seps[k] = "---"
	}
	lines = append(lines, "| "+strings.Join(seps, " | ")+" |")
	for _, r := range rows[1:] {
		lines = append(lines, "| "+strings.Join(r, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

// EscapeScreenDollars escapes unescaped $ inside screen-like environments
// so the reader never enters math mode there.
func EscapeScreenDollars(content string) string {
	for _, env := range dollarEscapeEnvs {
		quoted := regexp.QuoteMeta(env)
		pat := regexp.MustCompile(`\\begin\{` + quoted + `\}([\s\S]*?)\\end\{` + quoted + `\}`)
		content = pat.ReplaceAllStringFunc(content, func(m string) string {
			body := pat.FindStringSubmatch(m)[1]
			return `\begin{` + env + `}` + escapeBareDollars(body) + `\end{` + env + `}`
		})
	}
	return content
}

func escapeBareDollars(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && (i == 0 || s[i-1] != '\\') {
			b.WriteString(`\$`)
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// stripMissingImages resolves image references against ImageRoot, adding a
// known extension when the bare path does not exist and dropping references
// that resolve to nothing. Without an ImageRoot all references pass through.
func (p *BookTeXPreprocessor) stripMissingImages(content string) string {
	if p.ImageRoot == "" {
		return content
	}
	exts := []string{".svg", ".png", ".jpg", ".jpeg", ".pdf"}
	return includeGraphics.ReplaceAllStringFunc(content, func(m string) string {
		raw := includeGraphics.FindStringSubmatch(m)[1]
		if _, err := os.Stat(filepath.Join(p.ImageRoot, raw)); err == nil {
			return m
		}
		for _, ext := range exts {
			if _, err := os.Stat(filepath.Join(p.ImageRoot, raw+ext)); err == nil {
				return `\includegraphics{` + raw + ext + `}`
			}
		}
		return ""
	})
}

// NormalizeHeadings surrounds chapter/section headings with blank lines so
// adjacent headings never merge.
func NormalizeHeadings(content string) string {
	content = chapterLine.ReplaceAllString(content, "\n\n\\chapter$1\n\n")
	content = sectionLine.ReplaceAllString(content, "\n\n\\section$1\n\n")
	content = subsectionLine.ReplaceAllString(content, "\n\n\\subsection$1\n\n")
	return content
}

// CollapseHeadingArguments collapses newlines and whitespace runs inside
// heading arguments, parsing balanced braces so nested groups survive.
func CollapseHeadingArguments(content string) string {
	for _, cmd := range []string{"chapter", "section", "subsection", "subsubsection"} {
		content = collapseCommandArgument(content, cmd)
	}
	return content
}

func collapseCommandArgument(content, cmd string) string {
	marker := `\` + cmd
	pos := 0
	for {
		idx := strings.Index(content[pos:], marker)
		if idx == -1 {
			return content
		}
		idx += pos
		braceIdx := strings.IndexByte(content[idx:], '{')
		if braceIdx == -1 {
			pos = idx + 1
			continue
		}
		braceIdx += idx
		j := braceIdx + 1
		depth := 1
		for j < len(content) && depth > 0 {
			switch content[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			j++
		}
		if depth != 0 {
			pos = idx + 1
			continue
		}
		arg := content[braceIdx+1 : j-1]
		collapsed := strings.TrimSpace(whitespaceRun.ReplaceAllString(arg, " "))
		content = content[:braceIdx+1] + collapsed + content[j-1:]
		pos = braceIdx + 1 + len(collapsed) + 1
	}
}

// SplitModesChapter forces a blank-line boundary before the Modes chapter
// so the converter can split the document there.
func SplitModesChapter(content string) string {
	return modesChapterLine.ReplaceAllString(content,
		"\n\n\\clearpage\n\\chapter{C64, C65 and MEGA65 Modes}")
}

// DemoteModesChapter demotes the Modes chapter to a section and its
// internal headings by one level, leaving the rest of the book untouched.
func DemoteModesChapter(content string) string {
	start := modesChapterLine.FindStringIndex(content)
	if start == nil {
		return content
	}
	end := len(content)
	if next := nextChapterLine.FindStringIndex(content[start[0]+1:]); next != nil {
		end = start[0] + 1 + next[0]
	}
	block := content[start[0]:end]
	block = strings.Replace(block,
		`\chapter{C64, C65 and MEGA65 Modes}`,
		`\section{C64, C65 and MEGA65 Modes}`, 1)
	// Demote subsections before sections so each heading moves exactly one
	// level down.
	block = anySubsectionLine.ReplaceAllString(block, `\subsubsection{`)
	lines := strings.Split(block, "\n")
	for i, ln := range lines {
		if ln == `\section{C64, C65 and MEGA65 Modes}` {
			continue
		}
		if loc := anySectionLine.FindStringIndex(ln); loc != nil && loc[0] == 0 {
			lines[i] = `\subsection{` + ln[loc[1]:]
		}
	}
	block = strings.Join(lines, "\n")
	return content[:start[0]] + block + content[end:]
}

// WrapDocument wraps body text in a minimal book skeleton so the reader
// recognizes \chapter headers.
func WrapDocument(body string) string {
	return "\\documentclass{book}\n\\begin{document}\n" + body + "\n\\end{document}\n"
}
