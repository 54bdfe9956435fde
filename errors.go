package bookfilter

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyDocument  = errors.New("document JSON cannot be empty")
	ErrDecodeDocument = errors.New("decoding document tree failed")
	ErrEncodeDocument = errors.New("encoding document tree failed")
	ErrEmptySource    = errors.New("LaTeX source cannot be empty")
	ErrPandocConvert  = errors.New("pandoc conversion failed")
	ErrHTMLRender     = errors.New("HTML preview rendering failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrNotADirectory  = errors.New("output path is not a directory")
)
