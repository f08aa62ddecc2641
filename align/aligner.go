package align

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tsawler/collate/chunk"
	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/match"
	"github.com/tsawler/collate/model"
	"github.com/tsawler/collate/template"
)

// Structural guard defaults.
const (
	DefaultMaxDepth    = 32
	DefaultMaxSections = 10000
)

// Config configures an Aligner. The zero value uses the default word
// tokenizer, the default structural limits, no model hook, and no
// logging.
type Config struct {
	// MaxDepth bounds template nesting during the walk. Zero means
	// DefaultMaxDepth.
	MaxDepth int

	// MaxSections bounds the total number of sections a run may emit.
	// Zero means DefaultMaxSections.
	MaxSections int

	// Tokenizer counts chunk tokens and word statistics.
	Tokenizer chunk.Tokenizer

	// ModelHook runs for every leaf that declares a model reference.
	ModelHook chunk.ModelHook

	// Semantic backs patterns using semantic similarity.
	Semantic match.SimilarityFunc

	// Logger receives debug records; nil disables logging.
	Logger *slog.Logger
}

// Aligner aligns template trees against one indexed document. It is
// safe for concurrent use across goroutines running separate trees.
type Aligner struct {
	idx         *index.Index
	resolver    *match.Resolver
	extractor   *chunk.Extractor
	tok         chunk.Tokenizer
	hook        chunk.ModelHook
	maxDepth    int
	maxSections int
	log         *slog.Logger
}

// New creates an aligner over idx.
func New(idx *index.Index, cfg Config) *Aligner {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxSections <= 0 {
		cfg.MaxSections = DefaultMaxSections
	}
	if cfg.Tokenizer == nil {
		cfg.Tokenizer = chunk.WordTokenizer{}
	}
	scorer := match.NewScorer(idx, cfg.Semantic)
	return &Aligner{
		idx:         idx,
		resolver:    match.NewResolver(idx, scorer, match.ResolverConfig{Cache: match.NewCache(), Logger: cfg.Logger}),
		extractor:   chunk.NewExtractor(idx, cfg.Tokenizer),
		tok:         cfg.Tokenizer,
		hook:        cfg.ModelHook,
		maxDepth:    cfg.MaxDepth,
		maxSections: cfg.MaxSections,
		log:         cfg.Logger,
	}
}

// Align resolves tree against the document and returns the extraction
// result. A required pattern that cannot be resolved fails the run with
// a *match.NoMatchError; an expired context deadline yields a
// *TimeoutError.
func (a *Aligner) Align(ctx context.Context, tree *template.Tree) (*Result, error) {
	if err := tree.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	count := 0
	win := match.Window{Start: 0, End: a.idx.Len()}
	err := a.alignChildren(ctx, tree, tree.Roots, win, -1, nil, nil, 1, res, &count)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &TimeoutError{Path: pathOf(err)}
		}
		return nil, err
	}
	return res, nil
}

// pathErr carries the template path across a context error.
type pathErr struct {
	err  error
	path []string
}

func (e *pathErr) Error() string { return e.err.Error() }
func (e *pathErr) Unwrap() error { return e.err }

func pathOf(err error) []string {
	var pe *pathErr
	if errors.As(err, &pe) {
		return pe.path
	}
	return nil
}

// boundary is the resolved placement of one sibling section.
type boundary struct {
	node   int
	cand   match.Candidate
	region model.Region
}

// alignChildren resolves the template nodes in siblings inside the
// window, emits their sections under parent, and recurses. Sibling
// sections are resolved first in declared order behind a monotonic
// cursor; leaf nodes then claim the gaps the sections left unclaimed.
func (a *Aligner) alignChildren(ctx context.Context, tree *template.Tree, siblings []int, win match.Window, parent int, path, labels []string, depth int, res *Result, count *int) error {
	if depth > a.maxDepth {
		return &match.LimitError{Limit: "depth", Max: a.maxDepth, Path: path}
	}
	if err := ctx.Err(); err != nil {
		return &pathErr{err: err, path: path}
	}

	// Pass 1: place every sibling section. The cursor only moves
	// forward, so later siblings can never match before earlier ones.
	placed := make(map[int]boundary)
	var open []int // nodes awaiting a close ordinal
	cursor := win.Start
	for _, ni := range siblings {
		n := tree.Node(ni)
		if n.Kind != template.KindSection {
			continue
		}
		nodePath := tree.Path(ni)

		cand, err := a.resolver.Resolve(ctx, n.Match, match.Window{Start: cursor, End: win.End}, nodePath)
		if err != nil {
			if ctx.Err() != nil {
				return &pathErr{err: err, path: nodePath}
			}
			var noMatch *match.NoMatchError
			if n.Optional && errors.As(err, &noMatch) {
				if a.log != nil {
					a.log.Debug("optional section unmatched", "path", nodePath)
				}
				continue
			}
			return err
		}

		b := boundary{node: ni, cand: cand}
		b.region.Start = cand.Ordinal
		if n.EndMatch != nil {
			endCand, err := a.resolver.Resolve(ctx, n.EndMatch, match.Window{Start: cand.Ordinal + 1, End: win.End}, nodePath)
			if err != nil {
				if ctx.Err() != nil {
					return &pathErr{err: err, path: nodePath}
				}
				var noMatch *match.NoMatchError
				if n.Optional && errors.As(err, &noMatch) {
					// The node is discarded whole: earlier open
					// siblings stay open and the cursor stays put, as
					// if the start had never resolved.
					if a.log != nil {
						a.log.Debug("optional section end unmatched", "path", nodePath)
					}
					continue
				}
				return err
			}
			b.region.End = endCand.Ordinal + 1
		}

		// The node is committed: its start closes every pending open
		// section.
		closeOpen(placed, open, cand.Ordinal)
		open = open[:0]
		if n.EndMatch != nil {
			cursor = b.region.End
		} else {
			b.region.Open = true
			open = append(open, ni)
			cursor = cand.Ordinal + 1
		}
		placed[ni] = b
	}
	closeOpen(placed, open, win.End)

	// Pass 2: emit sections and leaves in declared order. Leaves claim
	// the gap between the previous claimed ordinal and the next placed
	// section, or the window tail.
	gapStart := win.Start
	for seq, ni := range siblings {
		n := tree.Node(ni)
		if n.Kind == template.KindSection {
			b, ok := placed[ni]
			if !ok {
				// Unmatched optional section: empty placeholder.
				if err := a.checkCount(count, tree.Path(ni)); err != nil {
					return err
				}
				res.add(parent, Section{
					Kind:   n.Kind,
					Label:  n.Label,
					Labels: childLabels(labels, n),
					Stats:  map[string]float64{},
				})
				continue
			}
			if err := a.emitSection(ctx, tree, ni, b, parent, labels, depth, res, count); err != nil {
				return err
			}
			gapStart = b.region.End
			continue
		}

		gapEnd := nextPlacedStart(siblings[seq+1:], placed, win.End)
		if err := a.emitLeaf(tree, ni, gapStart, gapEnd, parent, labels, res, count); err != nil {
			return err
		}
	}
	return nil
}

// closeOpen assigns the end of every open section up to the closing
// ordinal.
func closeOpen(placed map[int]boundary, open []int, closeAt int) {
	for _, ni := range open {
		b := placed[ni]
		b.region.End = closeAt
		placed[ni] = b
	}
}

// nextPlacedStart returns the start ordinal of the first placed
// section among the remaining siblings, or fallback when none follows.
func nextPlacedStart(rest []int, placed map[int]boundary, fallback int) int {
	for _, ni := range rest {
		if b, ok := placed[ni]; ok {
			return b.region.Start
		}
	}
	return fallback
}

func (a *Aligner) emitSection(ctx context.Context, tree *template.Tree, ni int, b boundary, parent int, labels []string, depth int, res *Result, count *int) error {
	n := tree.Node(ni)
	nodePath := tree.Path(ni)
	if err := a.checkCount(count, nodePath); err != nil {
		return err
	}

	region := a.locateRegion(b.region)
	secLabels := childLabels(labels, n)
	si := res.add(parent, Section{
		Kind:       n.Kind,
		Label:      n.Label,
		Labels:     secLabels,
		Matched:    true,
		Region:     region,
		Confidence: b.cand.Confidence,
		Stats:      regionStats(a.idx, a.tok, region),
	})
	if a.log != nil {
		a.log.Debug("section aligned",
			"label", n.Label,
			"start", region.Start,
			"end", region.End,
			"open", region.Open,
			"confidence", b.cand.Confidence,
		)
	}

	// Children live strictly inside the section, past its start
	// boundary element.
	childWin := match.Window{Start: region.Start + 1, End: region.End}
	return a.alignChildren(ctx, tree, n.Children, childWin, si, nodePath, secLabels, depth+1, res, count)
}

func (a *Aligner) emitLeaf(tree *template.Tree, ni, gapStart, gapEnd int, parent int, labels []string, res *Result, count *int) error {
	n := tree.Node(ni)
	if err := a.checkCount(count, tree.Path(ni)); err != nil {
		return err
	}
	if gapEnd < gapStart {
		gapEnd = gapStart
	}

	region := a.locateRegion(model.Region{Start: gapStart, End: gapEnd})
	s := Section{
		Kind:    n.Kind,
		Label:   n.Label,
		Labels:  childLabels(labels, n),
		Matched: true,
		Region:  region,
		Stats:   regionStats(a.idx, a.tok, region),
	}

	switch n.Kind {
	case template.KindTextChunk:
		chunks, err := a.extractor.TextChunks(region.Start, region.End, n.ChunkSize, n.ChunkOverlap)
		if err != nil {
			return &template.TemplateError{Path: tree.Path(ni), Reason: err.Error()}
		}
		s.Chunks = chunks
	case template.KindTable:
		s.Tables = a.extractor.Tables(region.Start, region.End)
	case template.KindImage:
		s.Images = a.extractor.Images(region.Start, region.End)
	}

	if n.ModelRef != "" && a.hook != nil {
		payload, err := a.hook(a.hookElements(n.Kind, region), region)
		if err != nil {
			return err
		}
		s.Payload = payload
	}

	res.add(parent, s)
	return nil
}

// hookElements returns the region's elements of the leaf's content
// type: text for TextChunk leaves, tables for Table, images for Image.
func (a *Aligner) hookElements(kind template.NodeKind, region model.Region) []model.ContentElement {
	var want model.ElementType
	switch kind {
	case template.KindTextChunk:
		want = model.ElementTypeText
	case template.KindTable:
		want = model.ElementTypeTable
	case template.KindImage:
		want = model.ElementTypeImage
	default:
		return a.idx.Slice(region.Start, region.End)
	}

	var out []model.ContentElement
	for _, e := range a.idx.Slice(region.Start, region.End) {
		if e.Type == want {
			out = append(out, e)
		}
	}
	return out
}

func (a *Aligner) checkCount(count *int, path []string) error {
	*count++
	if *count > a.maxSections {
		return &match.LimitError{Limit: "sections", Max: a.maxSections, Path: path}
	}
	return nil
}

// locateRegion fills in the page and vertical extent of an ordinal
// span.
func (a *Aligner) locateRegion(r model.Region) model.Region {
	if r.End > a.idx.Len() {
		r.End = a.idx.Len()
	}
	if r.Len() == 0 {
		return r
	}
	first := a.idx.At(r.Start)
	last := a.idx.At(r.End - 1)
	r.StartPage = first.Page
	r.StartY = first.BBox.Top()
	r.EndPage = last.Page
	r.EndY = last.BBox.Bottom()
	return r
}

// childLabels is the inherited label chain for a node: ancestors, the
// node's own label, then its declared extras.
func childLabels(parent []string, n *template.Node) []string {
	out := make([]string, 0, len(parent)+1+len(n.ExtraLabels))
	out = append(out, parent...)
	if n.Label != "" {
		out = append(out, n.Label)
	}
	out = append(out, n.ExtraLabels...)
	return out
}
