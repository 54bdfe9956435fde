package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	bookfilter "github.com/mega65/bookfilter"
	"github.com/mega65/bookfilter/internal/config"
	"github.com/mega65/bookfilter/internal/hints"
	"github.com/mega65/bookfilter/internal/pandoc"
)

// Sentinel errors for CLI operations.
var (
	ErrNoSource    = errors.New("no source specified")
	ErrNoDocument  = errors.New("no document specified")
	ErrReadSource  = errors.New("failed to read source file")
	ErrWriteOutput = errors.New("failed to write output file")
	ErrUnknownCmd  = errors.New("unknown command")
	ErrUnknownPass = errors.New("unknown pass name")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

func run(args []string) error {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return ErrUnknownCmd
	}
	ctx := context.Background()
	switch args[0] {
	case "filter":
		return runFilter(ctx, args[1:])
	case "build":
		return runBuild(ctx, args[1:])
	case "preview":
		return runPreview(ctx, args[1:])
	case "version":
		fmt.Println("bookfilter " + Version)
		return nil
	case "help", "--help", "-h":
		runHelp(args[1:], os.Stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCmd, args[0])
	}
}

// runFilter reads a pandoc JSON document on stdin, filters it, and writes
// the result to stdout, so the binary can serve as a pandoc --filter.
func runFilter(ctx context.Context, args []string) error {
	flags, _, err := parseFilterFlags(args)
	if err != nil {
		return err
	}
	skip, err := resolveSkips(flags.common.config, flags.skip)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	svc := bookfilter.New(bookfilter.WithoutPasses(skip...))
	out, err := svc.Filter(ctx, data)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// runBuild drives the whole pipeline: TeX preprocessing, pandoc parsing,
// filtering, format emission, and cross-reference repair.
func runBuild(ctx context.Context, args []string) error {
	flags, positional, err := parseBuildFlags(args)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if flags.common.config != "" {
		cfg, err = config.LoadConfig(flags.common.config)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound())
			}
			return fmt.Errorf("loading config: %w", err)
		}
	}
	mergeBuildFlags(flags, cfg)

	source := cfg.Input.Source
	if len(positional) > 0 {
		source = positional[0]
	}
	if source == "" {
		return ErrNoSource
	}

	raw, err := os.ReadFile(source) // #nosec G304 -- source path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSource, err)
	}

	logf := newProgressLogger(os.Stderr, flags.common.quiet)

	logf("Preprocessing %s", source)
	prep := &bookfilter.BookTeXPreprocessor{ImageRoot: cfg.Input.ImageRoot}
	wrapped := prep.PreprocessTeX(string(raw))

	runner := bookfilter.NewPandocRunner()
	if cfg.Pandoc.Binary != "" {
		runner.Binary = cfg.Pandoc.Binary
	}

	logf("Parsing with %s", runner.Binary)
	doc, err := runner.ToJSON(wrapped)
	if err != nil {
		if errors.Is(err, bookfilter.ErrPandocConvert) {
			return fmt.Errorf("%w%s", err, hints.ForPandocMissing())
		}
		return err
	}

	logf("Filtering")
	svc := bookfilter.New(bookfilter.WithoutPasses(cfg.Filter.DisabledPasses...))
	filtered, err := svc.Filter(ctx, doc)
	if err != nil {
		return err
	}

	outDir := cfg.Output.Dir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}

	wroteHTML := false
	for _, format := range cfg.Output.Formats {
		outPath, pandocFormat := outputTarget(outDir, format, cfg.Pandoc.ChunkLevel)
		logf("Emitting %s", outPath)
		if err := runner.FromJSON(filtered, pandocFormat, outPath, cfg.Pandoc.ChunkLevel); err != nil {
			return err
		}
		if pandocFormat == "html5" || pandocFormat == "chunkedhtml" {
			wroteHTML = true
		}
	}

	if wroteHTML {
		logf("Fixing cross-references in %s", outDir)
		fixer := &bookfilter.XRefFixer{}
		if err := fixer.FixDirectory(outDir); err != nil {
			return err
		}
	}

	if cfg.Preview.Enabled && wroteHTML {
		logf("Proofing pages in %s", outDir)
		if err := bookfilter.ProofDirectory(ctx, outDir, cfg.Preview.Workers, cfg.PreviewTimeout()); err != nil {
			if errors.Is(err, bookfilter.ErrBrowserConnect) {
				return fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
			}
			return err
		}
	}
	return nil
}

// runPreview filters a pandoc JSON document and renders it to a standalone
// HTML page, optionally with a proof PDF.
func runPreview(ctx context.Context, args []string) error {
	flags, positional, err := parsePreviewFlags(args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoDocument
	}

	data, err := os.ReadFile(positional[0]) // #nosec G304 -- path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSource, err)
	}

	svc := bookfilter.New()
	filtered, err := svc.Filter(ctx, data)
	if err != nil {
		return err
	}
	doc, err := pandoc.Decode(filtered)
	if err != nil {
		return err
	}

	renderer := bookfilter.NewPreviewRenderer()
	page, err := renderer.Render(doc)
	if err != nil {
		return err
	}

	outPath := flags.output
	if outPath == "" {
		outPath = "preview.html"
	}
	if err := os.WriteFile(outPath, []byte(page), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	if flags.pdf {
		abs, err := filepath.Abs(outPath)
		if err != nil {
			return err
		}
		proof := bookfilter.NewProofRenderer(flags.timeout)
		defer proof.Close()
		pdf, err := proof.RenderPage(ctx, abs)
		if err != nil {
			if errors.Is(err, bookfilter.ErrBrowserConnect) {
				return fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
			}
			if errors.Is(err, bookfilter.ErrPageLoad) {
				return fmt.Errorf("%w%s", err, hints.ForTimeout())
			}
			return err
		}
		pdfPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".pdf"
		if err := os.WriteFile(pdfPath, pdf, filePermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}
	return nil
}

// newProgressLogger returns a printf-style logger for build stage progress.
// --quiet silences it, leaving only errors on stderr.
func newProgressLogger(w io.Writer, quiet bool) func(string, ...interface{}) {
	return func(format string, a ...interface{}) {
		if quiet {
			return
		}
		fmt.Fprintf(w, format+"\n", a...)
	}
}

// mergeBuildFlags merges CLI flags into config (CLI wins).
func mergeBuildFlags(flags *buildFlags, cfg *config.Config) {
	if flags.output != "" {
		cfg.Output.Dir = flags.output
	}
	if len(flags.formats) > 0 {
		cfg.Output.Formats = flags.formats
	}
	if flags.pandocBin != "" {
		cfg.Pandoc.Binary = flags.pandocBin
	}
	if flags.chunkLevel >= 0 {
		cfg.Pandoc.ChunkLevel = flags.chunkLevel
	}
	if flags.imageRoot != "" {
		cfg.Input.ImageRoot = flags.imageRoot
	}
	if len(flags.skip) > 0 {
		cfg.Filter.DisabledPasses = flags.skip
	}
}

// resolveSkips combines config-disabled passes with CLI skips and checks
// them against the known pass names.
func resolveSkips(configName string, cliSkips []string) ([]string, error) {
	skip := cliSkips
	if configName != "" {
		cfg, err := config.LoadConfig(configName)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		skip = append(cfg.Filter.DisabledPasses, cliSkips...)
	}
	known := make(map[string]bool)
	for _, p := range bookfilter.DefaultPasses() {
		known[p.Name()] = true
	}
	for _, s := range skip {
		if !known[s] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPass, s)
		}
	}
	return skip, nil
}

// outputTarget maps a config format name to an output path and the format
// string handed to pandoc. Chunked HTML uses the chunkedhtml writer, which
// emits one page per heading into the output directory; the plain html5
// writer ignores --split-level and always produces a single page.
func outputTarget(dir, format string, chunkLevel int) (path, pandocFormat string) {
	switch strings.ToLower(format) {
	case "epub", "epub3":
		return filepath.Join(dir, "book.epub"), "epub3"
	default:
		if chunkLevel > 0 {
			return dir, "chunkedhtml"
		}
		return filepath.Join(dir, "index.html"), "html5"
	}
}
