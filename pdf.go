package bookfilter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mega65/bookfilter/internal/process"
)

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing
// without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// Compile-time interface check
var _ pdfRenderer = (*rodRenderer)(nil)

// Proof page dimensions in inches (A4, matching the printed book layout).
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.5
)

// defaultRenderTimeout bounds page load; book chapters carry many images.
const defaultRenderTimeout = 2 * time.Minute

// rodRenderer renders proof PDFs of generated HTML pages using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l
	return nil
}

// Close releases browser resources, killing any Chrome children the
// launcher leaves behind.
func (r *rodRenderer) Close() error {
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	if r.launcher != nil {
		if pid := r.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it
// to PDF. Returns explicit errors instead of panicking when browser
// operations fail.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// ProofRenderer renders a proof PDF of one generated HTML page so styling
// changes can be checked against the printed layout without a full build.
type ProofRenderer struct {
	renderer pdfRenderer
}

// NewProofRenderer creates a ProofRenderer backed by headless Chrome.
func NewProofRenderer(timeout time.Duration) *ProofRenderer {
	return &ProofRenderer{renderer: newRodRenderer(timeout)}
}

// RenderPage renders the HTML file at path to PDF bytes.
func (p *ProofRenderer) RenderPage(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptySource
	}
	return p.renderer.RenderFromFile(ctx, path)
}

// Close releases browser resources.
func (p *ProofRenderer) Close() error {
	if p.renderer != nil {
		return p.renderer.Close()
	}
	return nil
}

// ProofDirectory renders a proof PDF next to every HTML page under dir,
// running up to workers browsers in parallel (0 sizes the pool from the
// CPU count). Failures are collected per page so one broken page does not
// abort the rest.
func ProofDirectory(ctx context.Context, dir string, workers int, timeout time.Duration) error {
	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return nil
	}
	sort.Strings(pages)

	pool := NewRendererPool(ResolvePoolSize(workers), timeout)
	defer func() { _ = pool.Close() }()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, page := range pages {
		wg.Add(1)
		go func(page string) {
			defer wg.Done()
			r := pool.Acquire()
			defer pool.Release(r)

			pdf, err := r.RenderPage(ctx, page)
			if err == nil {
				err = os.WriteFile(strings.TrimSuffix(page, ".html")+".pdf", pdf, 0o644)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(page), err))
				mu.Unlock()
			}
		}(page)
	}
	wg.Wait()
	return errors.Join(errs...)
}
