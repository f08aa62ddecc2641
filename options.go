package collate

import (
	"log/slog"
	"time"

	"github.com/tsawler/collate/chunk"
	"github.com/tsawler/collate/match"
)

// alignOptions holds configuration for alignment runs.
type alignOptions struct {
	timeout     time.Duration
	maxDepth    int
	maxSections int
	tokenizer   chunk.Tokenizer
	modelHook   chunk.ModelHook
	semantic    match.SimilarityFunc
	logger      *slog.Logger
}

// defaultAlignOptions returns the default alignment options: no
// timeout, the library's structural limits, and the UAX #29 word
// tokenizer.
func defaultAlignOptions() alignOptions {
	return alignOptions{
		timeout:     0,
		maxDepth:    0, // align.DefaultMaxDepth
		maxSections: 0, // align.DefaultMaxSections
		tokenizer:   nil,
	}
}

// clone creates a copy of alignOptions.
func (o alignOptions) clone() alignOptions {
	return o
}

// MaxDepth bounds template nesting; deeper templates fail with a
// *match.LimitError.
func (c *Collator) MaxDepth(n int) *Collator {
	out := c.clone()
	out.options.maxDepth = n
	return out
}

// MaxSections bounds the total number of sections one run may emit.
func (c *Collator) MaxSections(n int) *Collator {
	out := c.clone()
	out.options.maxSections = n
	return out
}

// Tokenizer replaces the word tokenizer used for chunking and word
// statistics.
func (c *Collator) Tokenizer(tok chunk.Tokenizer) *Collator {
	out := c.clone()
	out.options.tokenizer = tok
	return out
}

// ModelHook attaches a payload-producing hook that runs for every leaf
// declaring a model reference.
func (c *Collator) ModelHook(hook chunk.ModelHook) *Collator {
	out := c.clone()
	out.options.modelHook = hook
	return out
}

// Semantic supplies the similarity measure backing templates that
// select the semantic matching algorithm.
func (c *Collator) Semantic(fn match.SimilarityFunc) *Collator {
	out := c.clone()
	out.options.semantic = fn
	return out
}

// Logger enables structured debug logging of boundary resolution and
// section placement.
func (c *Collator) Logger(l *slog.Logger) *Collator {
	out := c.clone()
	out.options.logger = l
	return out
}
