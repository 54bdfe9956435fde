package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookfilter <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  filter     Filter a pandoc JSON document (stdin to stdout)")
	fmt.Fprintln(w, "  build      Build HTML/EPUB output from LaTeX source")
	fmt.Fprintln(w, "  preview    Render a filtered document to a standalone HTML page")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'bookfilter help <command>' for details on a specific command.")
}

// printFilterUsage prints usage for the filter command.
func printFilterUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookfilter filter [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read a pandoc JSON document on stdin, run the filter passes and")
	fmt.Fprintln(w, "write the filtered document to stdout. Suitable as a pandoc --filter.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --skip <names>      Pass names to skip (comma-separated)")
	fmt.Fprintln(w, "  -c, --config <name>     Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet             Only show errors")
	fmt.Fprintln(w, "  -v, --verbose           Also log runtime setup details")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookfilter build <source.tex> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Preprocess LaTeX source, parse it with pandoc, run the filter passes")
	fmt.Fprintln(w, "and emit the target formats, then repair cross-references in the")
	fmt.Fprintln(w, "generated pages.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  source.tex    Flattened LaTeX source (optional if config has input.source)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <dir>      Output directory")
	fmt.Fprintln(w, "  -f, --format <names>    Output formats: html, epub")
	fmt.Fprintln(w, "      --pandoc <bin>      pandoc binary (default: pandoc on PATH)")
	fmt.Fprintln(w, "      --chunk-level <n>   Heading level pages split at (0 = single page)")
	fmt.Fprintln(w, "      --image-root <dir>  Directory image paths resolve against")
	fmt.Fprintln(w, "      --skip <names>      Pass names to skip (comma-separated)")
	fmt.Fprintln(w, "  -c, --config <name>     Config file name or path")
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookfilter preview <doc.json> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Filter a pandoc JSON document and render it to a standalone HTML")
	fmt.Fprintln(w, "page with screen blocks highlighted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>     Output file (default: preview.html)")
	fmt.Fprintln(w, "      --pdf               Also render a proof PDF via headless Chrome")
	fmt.Fprintln(w, "      --timeout <dur>     Per-page render timeout (default 2m)")
}

// runHelp shows help for a command.
func runHelp(args []string, w io.Writer) {
	if len(args) == 0 {
		printUsage(w)
		return
	}
	switch args[0] {
	case "filter":
		printFilterUsage(w)
	case "build":
		printBuildUsage(w)
	case "preview":
		printPreviewUsage(w)
	default:
		printUsage(w)
	}
}
