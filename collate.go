// Package collate provides a fluent API for aligning content templates
// against indexed documents and extracting their sections.
//
// Basic usage:
//
//	tree, err := template.Parse(src)
//	if err != nil {
//	    // handle error
//	}
//	result, err := collate.FromElements(elements).Align(ctx, tree)
//
// With options:
//
//	result, err := collate.FromElements(elements).
//	    Timeout(30 * time.Second).
//	    MaxDepth(16).
//	    Align(ctx, tree)
//
// For advanced use cases, the lower-level index, match, and align
// packages are also available.
package collate

import (
	"context"
	"time"

	"github.com/tsawler/collate/align"
	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/model"
	"github.com/tsawler/collate/template"
)

// Collator aligns templates against one document. Configure it with
// the chainable methods, then call a terminal operation such as Align.
// Each chainable method returns a copy, so a configured Collator can be
// shared and further specialized safely.
type Collator struct {
	elements []model.ContentElement
	idx      *index.Index
	options  alignOptions
}

// FromElements creates a Collator over raw document elements. The
// content index is built lazily on the first terminal operation.
func FromElements(elements []model.ContentElement) *Collator {
	return &Collator{
		elements: elements,
		options:  defaultAlignOptions(),
	}
}

// FromIndex creates a Collator over an already built index, sharing it
// across alignment runs.
func FromIndex(idx *index.Index) *Collator {
	return &Collator{
		idx:     idx,
		options: defaultAlignOptions(),
	}
}

// clone creates a copy with independent options. The element slice and
// index are shared; both are read-only after construction.
func (c *Collator) clone() *Collator {
	return &Collator{
		elements: c.elements,
		idx:      c.idx,
		options:  c.options.clone(),
	}
}

// ensureIndex builds the content index if it has not been built yet.
func (c *Collator) ensureIndex() error {
	if c.idx != nil {
		return nil
	}
	idx, err := index.Build(c.elements)
	if err != nil {
		return err
	}
	c.idx = idx
	return nil
}

// Index returns the content index, building it if necessary.
func (c *Collator) Index() (*index.Index, error) {
	if err := c.ensureIndex(); err != nil {
		return nil, err
	}
	return c.idx, nil
}

// Align resolves tree against the document and returns the extraction
// result. It is the primary terminal operation.
func (c *Collator) Align(ctx context.Context, tree *template.Tree) (*align.Result, error) {
	if err := c.ensureIndex(); err != nil {
		return nil, err
	}
	if c.options.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.timeout)
		defer cancel()
	}
	aligner := align.New(c.idx, align.Config{
		MaxDepth:    c.options.maxDepth,
		MaxSections: c.options.maxSections,
		Tokenizer:   c.options.tokenizer,
		ModelHook:   c.options.modelHook,
		Semantic:    c.options.semantic,
		Logger:      c.options.logger,
	})
	return aligner.Align(ctx, tree)
}

// AlignSource parses a template from DSL source and aligns it.
func (c *Collator) AlignSource(ctx context.Context, src string) (*align.Result, error) {
	tree, err := template.Parse(src)
	if err != nil {
		return nil, err
	}
	return c.Align(ctx, tree)
}

// Timeout bounds each Align call. An expired deadline yields a
// *align.TimeoutError. Zero means no limit beyond the caller's context.
//
// Example:
//
//	result, err := collate.FromElements(elems).
//	    Timeout(30 * time.Second).
//	    Align(ctx, tree)
func (c *Collator) Timeout(d time.Duration) *Collator {
	out := c.clone()
	out.options.timeout = d
	return out
}
