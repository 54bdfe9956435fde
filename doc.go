// Package bookfilter rewrites the pandoc document tree of the MEGA65 book
// sources into clean structural form for HTML/EPUB output.
//
// # Quick Start
//
// Create a service and run it as a pandoc JSON filter:
//
//	svc := bookfilter.New()
//	out, err := svc.Filter(ctx, jsonIn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(out)
//
// # Filter Pipeline
//
// The service applies these passes in document order:
//
//  1. Chapter promotion (leaked \chapter/\section markers become headings)
//  2. Screen-block normalization (verbatim environments become code blocks)
//  3. Label-anchor extraction (\label markers become addressable anchors)
//  4. Size-marker inlining (\huge and \small scope to the next text token)
//  5. Key/symbol macro expansion and inline-math literal rewriting
//
// Every pass is a pure rewrite of the block sequence: nodes that match no
// recognized pattern are returned unchanged, document order is preserved,
// and malformed markup falls back to the original literal text rather than
// being dropped.
//
// # Surrounding Toolchain
//
// The library also carries the pieces that drive a full book build: a LaTeX
// source preprocessor (BookTeXPreprocessor), a pandoc invoker
// (PandocRunner), a cross-reference fixer for chunked HTML output
// (XRefFixer), and a fast HTML/PDF preview renderer that bypasses pandoc
// entirely.
//
// PDF preview requires Chrome/Chromium; the go-rod library downloads a
// managed Chromium on first run. Set ROD_BROWSER_BIN to use a system
// browser and ROD_NO_SANDBOX=1 in containers.
package bookfilter
