package bookfilter

import (
	"context"
	"fmt"

	"github.com/mega65/bookfilter/internal/pandoc"
)

// Pass is one stream-rewriting step over the document's block tree.
type Pass interface {
	Name() string
	Apply(blocks []pandoc.Block) []pandoc.Block
}

// DefaultPasses returns the standard pipeline in execution order. Chapter
// promotion runs first so label blocks following promoted headings are
// absorbed before the anchor extractor would claim them.
func DefaultPasses() []Pass {
	return []Pass{
		chapterPass{},
		screenPass{},
		anchorPass{},
		sizeMarkPass{},
		keysPass{},
		mathPass{},
	}
}

// Service runs the filter pipeline over pandoc JSON documents.
type Service struct {
	passes []Pass
}

// Option customizes a Service.
type Option func(*Service)

// WithPasses replaces the default pipeline.
func WithPasses(passes ...Pass) Option {
	return func(s *Service) { s.passes = passes }
}

// WithoutPasses drops the named passes from the pipeline.
func WithoutPasses(names ...string) Option {
	return func(s *Service) {
		skip := make(map[string]bool, len(names))
		for _, n := range names {
			skip[n] = true
		}
		kept := s.passes[:0:0]
		for _, p := range s.passes {
			if !skip[p.Name()] {
				kept = append(kept, p)
			}
		}
		s.passes = kept
	}
}

// New creates a Service with the default pipeline.
// Use options to customize behavior (e.g., WithoutPasses).
func New(opts ...Option) *Service {
	s := &Service{passes: DefaultPasses()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Filter decodes a pandoc JSON document, runs every pass over its block
// tree and re-encodes it. The context is checked between passes.
func (s *Service) Filter(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	doc, err := pandoc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeDocument, err)
	}
	if err := s.FilterDocument(ctx, doc); err != nil {
		return nil, err
	}
	out, err := pandoc.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeDocument, err)
	}
	return out, nil
}

// FilterDocument rewrites the document's blocks in place.
func (s *Service) FilterDocument(ctx context.Context, doc *pandoc.Document) error {
	for _, p := range s.passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc.Blocks = p.Apply(doc.Blocks)
	}
	return nil
}
