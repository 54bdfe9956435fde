package bookfilter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "wrapped document",
			content: "\\documentclass{book}\n\\begin{document}\nbody text\n\\end{document}\n",
			want:    "\nbody text\n",
		},
		{
			name:    "no wrapper passes through",
			content: "just a fragment",
			want:    "just a fragment",
		},
		{
			name:    "case insensitive markers",
			content: `\BEGIN{DOCUMENT}x\END{DOCUMENT}`,
			want:    "x",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractBody(tt.content); got != tt.want {
				t.Errorf("ExtractBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripLineComments(t *testing.T) {
	t.Parallel()

	in := "keep this\n% a comment line\n  % indented comment\nalso keep\n"
	want := "keep this\nalso keep\n"
	if got := StripLineComments(in); got != want {
		t.Errorf("StripLineComments() = %q, want %q", got, want)
	}
}

func TestNormalizeArrows(t *testing.T) {
	t.Parallel()

	in := `press $\uparrow$ or \downarrow to move`
	got := NormalizeArrows(in)
	if !strings.Contains(got, "↑") || !strings.Contains(got, "↓") {
		t.Errorf("NormalizeArrows() = %q, want arrow glyphs", got)
	}
	if strings.Contains(got, `\uparrow`) || strings.Contains(got, "$") {
		t.Errorf("NormalizeArrows() = %q, left arrow command or math delimiter behind", got)
	}
}

func TestStripProblemMacrosPrintConditional(t *testing.T) {
	t.Parallel()

	in := `before \ifdefined\printmanual PRINT ONLY\else SCREEN ONLY\fi after`
	got := StripProblemMacros(in)
	if strings.Contains(got, "PRINT ONLY") {
		t.Errorf("print branch survived: %q", got)
	}
	if !strings.Contains(got, "SCREEN ONLY") {
		t.Errorf("screen branch lost: %q", got)
	}
}

func TestStripProblemMacrosBookStart(t *testing.T) {
	t.Parallel()

	got := StripProblemMacros(`\megabookstart{MEGA65 Book}{2}`)
	if got != `\chapter{MEGA65 Book}` {
		t.Errorf("StripProblemMacros() = %q, want %q", got, `\chapter{MEGA65 Book}`)
	}
}

func TestStripProblemMacrosHyppoTrap(t *testing.T) {
	t.Parallel()

	in := "\\begin{hyppotrap}{setname}{00}{02}\nSets the name.\n\\end{hyppotrap}"
	got := StripProblemMacros(in)
	if !strings.Contains(got, `\subsection{\texttt{setname} (00/02)}`) {
		t.Errorf("hyppotrap heading missing: %q", got)
	}
	if !strings.Contains(got, "Sets the name.") {
		t.Errorf("hyppotrap body lost: %q", got)
	}
}

func TestStripProblemMacrosIndexAndPageRefs(t *testing.T) {
	t.Parallel()

	in := `see\index{POKE} page \pageref{cha:basic} for more`
	got := StripProblemMacros(in)
	if strings.Contains(got, `\index`) || strings.Contains(got, `\pageref`) {
		t.Errorf("index or pageref survived: %q", got)
	}
}

func TestUnwrapNestedTabular(t *testing.T) {
	t.Parallel()

	inner := "\\begin{tabular}{ll}\na & b \\\\\n\\end{tabular}"
	in := "\\begin{tabular}{c}\n" + inner + "\n\\end{tabular}"
	got := UnwrapNestedTabular(in)
	if strings.Count(got, `\begin{tabular}`) != 1 {
		t.Errorf("UnwrapNestedTabular() = %q, want single tabular", got)
	}
	if !strings.Contains(got, "a & b") {
		t.Errorf("inner table body lost: %q", got)
	}
}

func TestStripProblemEnvs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		gone    string
		kept    string
	}{
		{
			name:    "longtable dropped",
			content: "before\n\\begin{longtable}{ll}\nx & y \\\\\n\\end{longtable}\nafter",
			gone:    `\begin{longtable}`,
			kept:    "after",
		},
		{
			name:    "simple tabular kept",
			content: "\\begin{tabular}{ll}\na & b \\\\\n\\end{tabular}",
			gone:    "",
			kept:    `\begin{tabular}`,
		},
		{
			name:    "tabular with multicolumn dropped",
			content: "\\begin{tabular}{ll}\n\\multicolumn{2}{c}{span} \\\\\n\\end{tabular}",
			gone:    `\begin{tabular}`,
			kept:    "",
		},
		{
			name: "center wrapping longtable dropped whole",
			content: "\\begin{center}\n\\begin{longtable}{l}\nrow \\\\\n" +
				"\\end{longtable}\n\\end{center}\ntail",
			gone: `\begin{center}`,
			kept: "tail",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := StripProblemEnvs(tt.content)
			if tt.gone != "" && strings.Contains(got, tt.gone) {
				t.Errorf("%q survived in %q", tt.gone, got)
			}
			if tt.kept != "" && !strings.Contains(got, tt.kept) {
				t.Errorf("%q missing from %q", tt.kept, got)
			}
		})
	}
}

func TestConvertSimpleTables(t *testing.T) {
	t.Parallel()

	in := "\\begin{tabular}{ll}\nName & Value \\\\\nPOKE & 53280 \\\\\n\\end{tabular}"
	got := ConvertSimpleTables(in)
	if !strings.Contains(got, "| Name | Value |") {
		t.Errorf("header row missing: %q", got)
	}
	if !strings.Contains(got, "| --- | --- |") {
		t.Errorf("separator row missing: %q", got)
	}
	if !strings.Contains(got, "| POKE | 53280 |") {
		t.Errorf("data row missing: %q", got)
	}
}

func TestEscapeScreenDollars(t *testing.T) {
	t.Parallel()

	in := "\\begin{screencode}\nN$ PRINT A\\$B\n\\end{screencode}\nprose $x$ stays"
	got := EscapeScreenDollars(in)
	if !strings.Contains(got, `N\$ PRINT`) {
		t.Errorf("bare dollar not escaped: %q", got)
	}
	if strings.Contains(got, `\\$B`) {
		t.Errorf("already escaped dollar doubled: %q", got)
	}
	if !strings.Contains(got, "prose $x$ stays") {
		t.Errorf("math outside screen env touched: %q", got)
	}
}

func TestNormalizeHeadings(t *testing.T) {
	t.Parallel()

	in := "text\n\\chapter{One}\nmore"
	got := NormalizeHeadings(in)
	if !strings.Contains(got, "\n\n\\chapter{One}\n\n") {
		t.Errorf("heading not isolated: %q", got)
	}
}

func TestCollapseHeadingArguments(t *testing.T) {
	t.Parallel()

	in := "\\section{Split\n  across   lines}"
	got := CollapseHeadingArguments(in)
	if got != `\section{Split across lines}` {
		t.Errorf("CollapseHeadingArguments() = %q, want %q", got, `\section{Split across lines}`)
	}
}

func TestCollapseHeadingArgumentsNestedBraces(t *testing.T) {
	t.Parallel()

	in := "\\chapter{Using \\texttt{POKE}\nsafely}"
	got := CollapseHeadingArguments(in)
	if got != `\chapter{Using \texttt{POKE} safely}` {
		t.Errorf("CollapseHeadingArguments() = %q, want nested group intact", got)
	}
}

func TestDemoteModesChapter(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		`\chapter{Introduction}`,
		`\section{Welcome}`,
		`\chapter{C64, C65 and MEGA65 Modes}`,
		`\section{C64 Mode}`,
		`\subsection{Entering}`,
		`\chapter{Next}`,
		`\section{After}`,
	}, "\n")
	got := DemoteModesChapter(in)

	wantLines := []string{
		`\chapter{Introduction}`,
		`\section{Welcome}`,
		`\section{C64, C65 and MEGA65 Modes}`,
		`\subsection{C64 Mode}`,
		`\subsubsection{Entering}`,
		`\chapter{Next}`,
		`\section{After}`,
	}
	if got != strings.Join(wantLines, "\n") {
		t.Errorf("DemoteModesChapter() =\n%s\nwant\n%s", got, strings.Join(wantLines, "\n"))
	}
}

func TestSplitModesChapter(t *testing.T) {
	t.Parallel()

	got := SplitModesChapter("prose\n\\chapter{C64, C65 and MEGA65 Modes}")
	if !strings.Contains(got, "\n\n\\clearpage\n\\chapter{C64, C65 and MEGA65 Modes}") {
		t.Errorf("SplitModesChapter() = %q, want clearpage boundary", got)
	}
}

func TestStripMissingImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "logo.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := &BookTeXPreprocessor{ImageRoot: dir}

	in := `\includegraphics[width=5cm]{logo} and \includegraphics{missing}`
	got := p.stripMissingImages(in)
	if !strings.Contains(got, `\includegraphics{logo.png}`) {
		t.Errorf("extension not resolved: %q", got)
	}
	if strings.Contains(got, "missing") {
		t.Errorf("missing image reference survived: %q", got)
	}
}

func TestStripMissingImagesNoRoot(t *testing.T) {
	t.Parallel()

	p := &BookTeXPreprocessor{}
	in := `\includegraphics{whatever}`
	if got := p.stripMissingImages(in); got != in {
		t.Errorf("stripMissingImages() = %q, want passthrough without image root", got)
	}
}

func TestPreprocessTeXEndToEnd(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		`\documentclass{book}`,
		`\begin{document}`,
		`% build note`,
		`\megabookstart{MEGA65 Book}{2}`,
		`\begin{screencode}`,
		`N$ PRINT "HI"`,
		`\end{screencode}`,
		`\end{document}`,
	}, "\n")

	p := &BookTeXPreprocessor{}
	got := p.PreprocessTeX(in)

	if !strings.HasPrefix(got, "\\documentclass{book}\n\\begin{document}\n") {
		t.Errorf("output not rewrapped: %q", got)
	}
	if !strings.HasSuffix(got, "\\end{document}\n") {
		t.Errorf("output not terminated: %q", got)
	}
	if !strings.Contains(got, `\chapter{MEGA65 Book}`) {
		t.Errorf("book start not rewritten: %q", got)
	}
	if strings.Contains(got, "% build note") {
		t.Errorf("comment line survived: %q", got)
	}
	if !strings.Contains(got, `N\$ PRINT "HI"`) {
		t.Errorf("screen dollar not escaped: %q", got)
	}
}
