package bookfilter

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakePDFRenderer records calls so ProofRenderer plumbing can be tested
// without launching a browser.
type fakePDFRenderer struct {
	pdf    []byte
	err    error
	paths  []string
	closed bool
}

func (f *fakePDFRenderer) RenderFromFile(_ context.Context, path string) ([]byte, error) {
	f.paths = append(f.paths, path)
	return f.pdf, f.err
}

func (f *fakePDFRenderer) Close() error {
	f.closed = true
	return nil
}

func TestNewProofRendererTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"zero uses default", 0, defaultRenderTimeout},
		{"negative uses default", -time.Second, defaultRenderTimeout},
		{"explicit kept", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewProofRenderer(tt.timeout)
			rr, ok := p.renderer.(*rodRenderer)
			if !ok {
				t.Fatalf("renderer = %T, want *rodRenderer", p.renderer)
			}
			if rr.timeout != tt.want {
				t.Errorf("timeout = %v, want %v", rr.timeout, tt.want)
			}
		})
	}
}

func TestProofRendererEmptyPath(t *testing.T) {
	t.Parallel()

	fake := &fakePDFRenderer{}
	p := &ProofRenderer{renderer: fake}

	_, err := p.RenderPage(context.Background(), "")
	if !errors.Is(err, ErrEmptySource) {
		t.Fatalf("error = %v, want ErrEmptySource", err)
	}
	if len(fake.paths) != 0 {
		t.Errorf("renderer invoked for empty path: %v", fake.paths)
	}
}

func TestProofRendererRenderPage(t *testing.T) {
	t.Parallel()

	fake := &fakePDFRenderer{pdf: []byte("%PDF-1.4")}
	p := &ProofRenderer{renderer: fake}

	got, err := p.RenderPage(context.Background(), "/out/cha_sound.html")
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if string(got) != "%PDF-1.4" {
		t.Errorf("pdf = %q, want %q", got, "%PDF-1.4")
	}
	if len(fake.paths) != 1 || fake.paths[0] != "/out/cha_sound.html" {
		t.Errorf("rendered paths = %v, want the page path", fake.paths)
	}
}

func TestProofRendererRenderPageError(t *testing.T) {
	t.Parallel()

	fake := &fakePDFRenderer{err: ErrPageLoad}
	p := &ProofRenderer{renderer: fake}

	_, err := p.RenderPage(context.Background(), "/out/broken.html")
	if !errors.Is(err, ErrPageLoad) {
		t.Fatalf("error = %v, want ErrPageLoad", err)
	}
}

func TestProofRendererClose(t *testing.T) {
	t.Parallel()

	fake := &fakePDFRenderer{}
	p := &ProofRenderer{renderer: fake}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.closed {
		t.Error("underlying renderer not closed")
	}
}

// Close before any render must be a no-op: the browser only launches on the
// first page.
func TestProofRendererCloseWithoutBrowser(t *testing.T) {
	t.Parallel()

	p := NewProofRenderer(0)
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestRodRendererCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRodRenderer(time.Minute)
	_, err := r.RenderFromFile(ctx, "/out/page.html")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if r.browser != nil {
		t.Error("browser launched despite cancelled context")
	}
}

func TestProofDirectoryNoPages(t *testing.T) {
	t.Parallel()

	if err := ProofDirectory(context.Background(), t.TempDir(), 1, time.Minute); err != nil {
		t.Fatalf("ProofDirectory() error = %v", err)
	}
}
