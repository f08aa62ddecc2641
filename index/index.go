package index

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/rtree"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/collate/model"
)

// FontStats summarizes the distribution of font sizes across the
// document's text elements. Median approximates the running body size.
type FontStats struct {
	Mean    float64
	StdDev  float64
	Median  float64
	Samples int
}

// ZScore returns how many standard deviations size sits from the mean.
// Returns 0 when the distribution is degenerate.
func (fs FontStats) ZScore(size float64) float64 {
	if fs.StdDev <= 0 {
		return 0
	}
	return (size - fs.Mean) / fs.StdDev
}

// Index is the frozen multi-dimensional content index. Build it once
// with Build; afterwards it is immutable and safe for concurrent use.
type Index struct {
	elements []model.ContentElement // reading order

	byID        map[uuid.UUID]int
	trees       map[int]*rtree.RTreeG[int]
	fontOrdered []int // text ordinals, font size descending
	refScore    []float64
	gapAbove    []float64
	gapBelow    []float64
	pageBounds  map[int]model.BBox
	stats       FontStats
}

// Build constructs a frozen index from the element stream. The stream
// is copied and sorted into reading order, so callers may pass elements
// in any order; duplicate element IDs are an error. The independent
// access structures are built concurrently and the index is not
// returned until all of them are complete.
func Build(elements []model.ContentElement) (*Index, error) {
	idx := &Index{
		elements:   make([]model.ContentElement, len(elements)),
		byID:       make(map[uuid.UUID]int, len(elements)),
		trees:      make(map[int]*rtree.RTreeG[int]),
		pageBounds: make(map[int]model.BBox),
	}
	copy(idx.elements, elements)
	sort.Slice(idx.elements, func(i, j int) bool {
		return model.ReadingOrderLess(&idx.elements[i], &idx.elements[j])
	})

	for ord := range idx.elements {
		id := idx.elements[ord].ID
		if prev, dup := idx.byID[id]; dup {
			return nil, fmt.Errorf("duplicate element id %s at ordinals %d and %d", id, prev, ord)
		}
		idx.byID[id] = ord
	}

	var g errgroup.Group
	g.Go(idx.buildSpatial)
	g.Go(idx.buildFontViews)
	g.Go(idx.buildReferenceCounts)
	g.Go(idx.buildGapsAndBounds)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (ix *Index) buildSpatial() error {
	for ord := range ix.elements {
		e := &ix.elements[ord]
		tr, ok := ix.trees[e.Page]
		if !ok {
			tr = &rtree.RTreeG[int]{}
			ix.trees[e.Page] = tr
		}
		tr.Insert(
			[2]float64{e.BBox.Left(), e.BBox.Bottom()},
			[2]float64{e.BBox.Right(), e.BBox.Top()},
			ord,
		)
	}
	return nil
}

func (ix *Index) buildFontViews() error {
	var sizes []float64
	for ord := range ix.elements {
		if ix.elements[ord].IsText() {
			ix.fontOrdered = append(ix.fontOrdered, ord)
			sizes = append(sizes, ix.elements[ord].FontSize)
		}
	}
	sort.SliceStable(ix.fontOrdered, func(i, j int) bool {
		a, b := ix.fontOrdered[i], ix.fontOrdered[j]
		if ix.elements[a].FontSize != ix.elements[b].FontSize {
			return ix.elements[a].FontSize > ix.elements[b].FontSize
		}
		return a < b
	})

	ix.stats = computeFontStats(sizes)
	return nil
}

func computeFontStats(sizes []float64) FontStats {
	stats := FontStats{Samples: len(sizes)}
	if len(sizes) == 0 {
		return stats
	}

	var sum float64
	for _, s := range sizes {
		sum += s
	}
	stats.Mean = sum / float64(len(sizes))

	var variance float64
	for _, s := range sizes {
		d := s - stats.Mean
		variance += d * d
	}
	stats.StdDev = math.Sqrt(variance / float64(len(sizes)))

	sorted := make([]float64, len(sizes))
	copy(sorted, sizes)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stats.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		stats.Median = sorted[mid]
	}
	return stats
}

// maxCountedReferences caps how much repetition can raise a reference
// score; beyond this the element is "maximally referenced".
const maxCountedReferences = 5

func (ix *Index) buildReferenceCounts() error {
	ix.refScore = make([]float64, len(ix.elements))

	occurrences := make(map[string]int)
	for ord := range ix.elements {
		e := &ix.elements[ord]
		if !e.IsText() {
			continue
		}
		key := NormalizeText(e.Text)
		if len(key) < 4 {
			continue
		}
		occurrences[key]++
	}

	for ord := range ix.elements {
		e := &ix.elements[ord]
		if !e.IsText() {
			continue
		}
		key := NormalizeText(e.Text)
		if len(key) < 4 {
			continue
		}
		// An element referenced once elsewhere (a TOC echo) has count 1.
		count := occurrences[key] - 1
		if count <= 0 {
			continue
		}
		if count > maxCountedReferences {
			count = maxCountedReferences
		}
		ix.refScore[ord] = float64(count) / maxCountedReferences
	}
	return nil
}

func (ix *Index) buildGapsAndBounds() error {
	n := len(ix.elements)
	ix.gapAbove = make([]float64, n)
	ix.gapBelow = make([]float64, n)

	for ord := range ix.elements {
		e := &ix.elements[ord]
		if b, ok := ix.pageBounds[e.Page]; ok {
			ix.pageBounds[e.Page] = b.Union(e.BBox)
		} else {
			ix.pageBounds[e.Page] = e.BBox
		}
	}

	for ord := 0; ord < n; ord++ {
		e := &ix.elements[ord]
		ix.gapAbove[ord] = math.Inf(1)
		ix.gapBelow[ord] = math.Inf(1)
		if ord > 0 && ix.elements[ord-1].Page == e.Page {
			gap := ix.elements[ord-1].BBox.Bottom() - e.BBox.Top()
			ix.gapAbove[ord] = math.Max(gap, 0)
		}
		if ord+1 < n && ix.elements[ord+1].Page == e.Page {
			gap := e.BBox.Bottom() - ix.elements[ord+1].BBox.Top()
			ix.gapBelow[ord] = math.Max(gap, 0)
		}
	}
	return nil
}

// NormalizeText returns the canonical form used for text comparison and
// reference counting: NFC-normalized, lower-cased, with runs of
// whitespace collapsed to single spaces.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Len returns the number of indexed elements.
func (ix *Index) Len() int {
	return len(ix.elements)
}

// At returns the element at the given reading-order ordinal. The
// returned pointer aliases the frozen store and must not be mutated.
func (ix *Index) At(ord int) *model.ContentElement {
	return &ix.elements[ord]
}

// Slice returns the elements in [start, end) in reading order. Bounds
// are clamped to the document.
func (ix *Index) Slice(start, end int) []model.ContentElement {
	if start < 0 {
		start = 0
	}
	if end > len(ix.elements) {
		end = len(ix.elements)
	}
	if start >= end {
		return nil
	}
	return ix.elements[start:end]
}

// OrdinalOf returns the reading-order ordinal of the element with the
// given identifier.
func (ix *Index) OrdinalOf(id uuid.UUID) (int, bool) {
	ord, ok := ix.byID[id]
	return ord, ok
}

// ByID returns the element with the given identifier.
func (ix *Index) ByID(id uuid.UUID) (*model.ContentElement, bool) {
	ord, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	return &ix.elements[ord], true
}

// ByFontSizeAtLeast returns the text elements whose font size is at
// least min, ordered by font size descending (ordinal ascending within
// equal sizes).
func (ix *Index) ByFontSizeAtLeast(min float64) []*model.ContentElement {
	// fontOrdered is size-descending, so binary search for the cutoff.
	n := sort.Search(len(ix.fontOrdered), func(i int) bool {
		return ix.elements[ix.fontOrdered[i]].FontSize < min
	})
	out := make([]*model.ContentElement, 0, n)
	for _, ord := range ix.fontOrdered[:n] {
		out = append(out, &ix.elements[ord])
	}
	return out
}

// InRegion returns the elements on page whose bounding box intersects
// rect, in reading order.
func (ix *Index) InRegion(page int, rect model.BBox) []*model.ContentElement {
	tr, ok := ix.trees[page]
	if !ok {
		return nil
	}
	var ords []int
	tr.Search(
		[2]float64{rect.Left(), rect.Bottom()},
		[2]float64{rect.Right(), rect.Top()},
		func(min, max [2]float64, ord int) bool {
			ords = append(ords, ord)
			return true
		},
	)
	sort.Ints(ords)
	out := make([]*model.ContentElement, len(ords))
	for i, ord := range ords {
		out[i] = &ix.elements[ord]
	}
	return out
}

// Nearest returns the element on page whose center is closest to pt,
// ignoring elements farther than maxDistance. Ties resolve to the
// earlier reading-order ordinal.
func (ix *Index) Nearest(page int, pt model.Point, maxDistance float64) (*model.ContentElement, bool) {
	rect := model.BBox{
		X:      pt.X - maxDistance,
		Y:      pt.Y - maxDistance,
		Width:  2 * maxDistance,
		Height: 2 * maxDistance,
	}
	best := -1
	bestDist := maxDistance
	for _, e := range ix.InRegion(page, rect) {
		d := e.BBox.Center().Distance(pt)
		if d > maxDistance {
			continue
		}
		ord := ix.byID[e.ID]
		if best == -1 || d < bestDist || (d == bestDist && ord < best) {
			best = ord
			bestDist = d
		}
	}
	if best == -1 {
		return nil, false
	}
	return &ix.elements[best], true
}

// ReferenceScore returns the normalized cross-reference count in [0,1]
// for the element with the given identifier; 0 for unknown ids.
func (ix *Index) ReferenceScore(id uuid.UUID) float64 {
	ord, ok := ix.byID[id]
	if !ok {
		return 0
	}
	return ix.refScore[ord]
}

// ReferenceScoreAt returns the normalized cross-reference count for the
// element at the given ordinal.
func (ix *Index) ReferenceScoreAt(ord int) float64 {
	return ix.refScore[ord]
}

// FontStats returns the document-wide font-size statistics.
func (ix *Index) FontStats() FontStats {
	return ix.stats
}

// VerticalGaps returns the whitespace above and below the element at
// ord, measured to its same-page reading-order neighbours. Page edges
// report +Inf.
func (ix *Index) VerticalGaps(ord int) (above, below float64) {
	return ix.gapAbove[ord], ix.gapBelow[ord]
}

// PageBounds returns the union of element bounding boxes on page.
func (ix *Index) PageBounds(page int) (model.BBox, bool) {
	b, ok := ix.pageBounds[page]
	return b, ok
}
