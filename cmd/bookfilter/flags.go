package main

import (
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// filterFlags holds flags for the filter command.
type filterFlags struct {
	common commonFlags
	skip   []string
}

// buildFlags holds flags for the build command.
type buildFlags struct {
	common     commonFlags
	output     string
	formats    []string
	pandocBin  string
	chunkLevel int
	imageRoot  string
	skip       []string
}

// previewFlags holds flags for the preview command.
type previewFlags struct {
	common  commonFlags
	output  string
	pdf     bool
	timeout time.Duration
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "also log runtime setup details")
}

// parseFilterFlags parses filter command flags and returns positional args.
func parseFilterFlags(args []string) (*filterFlags, []string, error) {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	f := &filterFlags{}
	addCommonFlags(fs, &f.common)
	fs.StringSliceVar(&f.skip, "skip", nil, "pass names to skip")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	f := &buildFlags{}
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringSliceVarP(&f.formats, "format", "f", nil, "output formats: html, epub")
	fs.StringVar(&f.pandocBin, "pandoc", "", "pandoc binary")
	fs.IntVar(&f.chunkLevel, "chunk-level", -1, "heading level pages split at (0 = single page)")
	fs.StringVar(&f.imageRoot, "image-root", "", "directory image paths resolve against")
	fs.StringSliceVar(&f.skip, "skip", nil, "pass names to skip")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parsePreviewFlags parses preview command flags and returns positional args.
func parsePreviewFlags(args []string) (*previewFlags, []string, error) {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	f := &previewFlags{}
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: preview.html)")
	fs.BoolVar(&f.pdf, "pdf", false, "also render a proof PDF via headless Chrome")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-page render timeout (default 2m)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
