package bookfilter

import (
	"errors"
	"os"
	"strings"
	"testing"
)

type fakeRunner struct {
	name   string
	stdin  []byte
	args   []string
	stdout []byte
	stderr string
	err    error
}

func (r *fakeRunner) Run(name string, stdin []byte, args ...string) ([]byte, string, error) {
	r.name = name
	r.stdin = stdin
	r.args = args
	return r.stdout, r.stderr, r.err
}

func TestToJSONInvokesPandoc(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{stdout: []byte(`{"blocks":[]}`)}
	p := &PandocRunner{Runner: runner, Binary: "pandoc"}

	out, err := p.ToJSON(`\chapter{Test}`)
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if string(out) != `{"blocks":[]}` {
		t.Errorf("output = %q, want pandoc stdout", out)
	}
	if runner.name != "pandoc" {
		t.Errorf("binary = %q, want %q", runner.name, "pandoc")
	}
	if len(runner.args) != 5 {
		t.Fatalf("args = %v, want source path plus 4 flags", runner.args)
	}
	if !strings.HasSuffix(runner.args[0], ".tex") {
		t.Errorf("args[0] = %q, want temp .tex path", runner.args[0])
	}
	if got := strings.Join(runner.args[1:], " "); got != "-f latex -t json" {
		t.Errorf("flags = %q, want %q", got, "-f latex -t json")
	}
	if _, err := os.Stat(runner.args[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file not cleaned up, stat err = %v", err)
	}
}

func TestToJSONEmptySource(t *testing.T) {
	t.Parallel()

	p := &PandocRunner{Runner: &fakeRunner{}, Binary: "pandoc"}
	_, err := p.ToJSON("")
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("error = %v, want ErrEmptySource", err)
	}
}

func TestToJSONConvertFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{stderr: "latex parse error", err: errors.New("exit status 1")}
	p := &PandocRunner{Runner: runner, Binary: "pandoc"}

	_, err := p.ToJSON(`\chapter{X}`)
	if !errors.Is(err, ErrPandocConvert) {
		t.Fatalf("error = %v, want ErrPandocConvert", err)
	}
	if !strings.Contains(err.Error(), "latex parse error") {
		t.Errorf("error = %v, want stderr included", err)
	}
}

func TestFromJSONBuildsArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		format     string
		outPath    string
		chunkLevel int
		wantArgs   string
	}{
		{
			name:       "chunked html targets the directory",
			format:     "chunkedhtml",
			outPath:    "out",
			chunkLevel: 1,
			wantArgs:   "-f json -t chunkedhtml --standalone -o out --split-level 1",
		},
		{
			name:       "chunked epub",
			format:     "epub3",
			outPath:    "out/book.epub",
			chunkLevel: 2,
			wantArgs:   "-f json -t epub3 --standalone -o out/book.epub --split-level 2",
		},
		{
			name:       "single page epub",
			format:     "epub3",
			outPath:    "out/book.epub",
			chunkLevel: 0,
			wantArgs:   "-f json -t epub3 --standalone -o out/book.epub",
		},
		{
			// The html5 writer ignores --split-level, so the flag is never
			// passed to it.
			name:       "html5 never gets split-level",
			format:     "html5",
			outPath:    "out/index.html",
			chunkLevel: 1,
			wantArgs:   "-f json -t html5 --standalone -o out/index.html",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{}
			p := &PandocRunner{Runner: runner, Binary: "pandoc"}

			doc := []byte(`{"blocks":[]}`)
			if err := p.FromJSON(doc, tt.format, tt.outPath, tt.chunkLevel); err != nil {
				t.Fatalf("FromJSON() error = %v", err)
			}
			if string(runner.stdin) != string(doc) {
				t.Errorf("stdin = %q, want document", runner.stdin)
			}
			if got := strings.Join(runner.args, " "); got != tt.wantArgs {
				t.Errorf("args = %q, want %q", got, tt.wantArgs)
			}
		})
	}
}

func TestFromJSONEmptyDocument(t *testing.T) {
	t.Parallel()

	p := &PandocRunner{Runner: &fakeRunner{}, Binary: "pandoc"}
	err := p.FromJSON(nil, "html", "out.html", 0)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("error = %v, want ErrEmptyDocument", err)
	}
}
