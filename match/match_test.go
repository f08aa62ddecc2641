package match

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/model"
	"github.com/tsawler/collate/template"
)

func textElement(id byte, page int, text string, size float64, x, y, w, h float64) model.ContentElement {
	var u uuid.UUID
	u[0] = id
	return model.ContentElement{
		ID:       u,
		Type:     model.ElementTypeText,
		Page:     page,
		BBox:     model.NewBBox(x, y, w, h),
		Text:     text,
		FontSize: size,
	}
}

// A report-shaped fixture: one large heading that only partially
// matches "Introduction", body text, and two identical headings on
// identically laid-out pages for tie tests.
func buildFixture(t *testing.T) *index.Index {
	t.Helper()
	elems := []model.ContentElement{
		textElement(1, 1, "Intro", 20, 72, 720, 120, 20),
		textElement(2, 1, "Body paragraph one about matters.", 10, 72, 680, 400, 10),
		textElement(3, 1, "Methods", 20, 72, 620, 120, 20),
		textElement(4, 1, "Body paragraph two about methods.", 10, 72, 580, 400, 10),
		textElement(5, 2, "Results", 20, 72, 720, 120, 20),
		textElement(6, 2, "Findings are described below.", 10, 72, 680, 400, 10),
		textElement(7, 3, "Results", 20, 72, 720, 120, 20),
		textElement(8, 3, "Findings are described below.", 10, 72, 680, 400, 10),
	}
	idx, err := index.Build(elems)
	if err != nil {
		t.Fatalf("index.Build() error: %v", err)
	}
	return idx
}

func newResolver(idx *index.Index, cache *Cache) *Resolver {
	return NewResolver(idx, NewScorer(idx, nil), ResolverConfig{Cache: cache})
}

func TestEditSimilarityPartialHeading(t *testing.T) {
	// "intro" vs "introduction": 7 edits over 12 runes.
	got := editSimilarity("intro", "introduction")
	want := 1 - 7.0/12.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("editSimilarity = %v, want %v", got, want)
	}
}

func TestScoreThresholdBoundary(t *testing.T) {
	idx := buildFixture(t)
	s := NewScorer(idx, nil)

	sim := s.TextSimilarity(&template.Pattern{Text: "Introduction"}, "Intro")

	// A text score exactly equal to the threshold is accepted.
	at := template.Pattern{Text: "Introduction", Threshold: sim}
	if _, ok := s.Score(&at, 0); !ok {
		t.Errorf("text score equal to threshold should be accepted")
	}

	// Just above the text score it must be rejected.
	above := template.Pattern{Text: "Introduction", Threshold: sim + 1e-9}
	if _, ok := s.Score(&above, 0); ok {
		t.Errorf("text score below threshold should be rejected")
	}
}

func TestScoreRejectsNonText(t *testing.T) {
	var u uuid.UUID
	u[0] = 9
	img := model.ContentElement{ID: u, Type: model.ElementTypeImage, Page: 1, BBox: model.NewBBox(72, 400, 200, 100)}
	idx, err := index.Build([]model.ContentElement{img, textElement(1, 1, "caption", 10, 72, 380, 100, 10)})
	if err != nil {
		t.Fatalf("index.Build() error: %v", err)
	}
	s := NewScorer(idx, nil)
	p := template.Pattern{Text: "caption", Threshold: 0}
	for ord := 0; ord < idx.Len(); ord++ {
		cand, ok := s.Score(&p, ord)
		if ok && !cand.Element.IsText() {
			t.Errorf("ordinal %d: non-text element accepted as boundary", ord)
		}
	}
}

func TestResolvePrefersExactOverPartial(t *testing.T) {
	// "Introduction" at full similarity must beat "Intro" at ~0.42 even
	// though "Intro" comes first in reading order.
	elems := []model.ContentElement{
		textElement(1, 1, "Intro", 20, 72, 720, 120, 20),
		textElement(2, 1, "Introduction", 20, 72, 620, 240, 20),
	}
	idx, err := index.Build(elems)
	if err != nil {
		t.Fatalf("index.Build() error: %v", err)
	}
	r := newResolver(idx, nil)

	p := template.Pattern{Text: "Introduction", Threshold: 0.8}
	cand, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cand.Element.Text != "Introduction" {
		t.Errorf("resolved %q, want the exact heading", cand.Element.Text)
	}
	if cand.Breakdown.Text != 1 {
		t.Errorf("text component = %v, want 1", cand.Breakdown.Text)
	}
}

func TestResolveDeclaredThreshold(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, nil)

	p := template.Pattern{Text: "Methods", Threshold: 0.9}
	cand, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cand.Element.Text != "Methods" {
		t.Errorf("resolved %q, want %q", cand.Element.Text, "Methods")
	}
	if cand.Ordinal != 2 {
		t.Errorf("resolved ordinal %d, want 2", cand.Ordinal)
	}
}

func TestResolveFallsBackToRelaxedThreshold(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, nil)

	// "Intro" vs "Introduction" scores ~0.42: below the declared 0.5
	// and the first relaxation at 0.425, so resolution succeeds only on
	// the second relaxation at 0.35.
	p := template.Pattern{Text: "Introduction", Threshold: 0.5}
	cand, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cand.Element.Text != "Intro" {
		t.Errorf("resolved %q, want %q", cand.Element.Text, "Intro")
	}
}

func TestResolveWindowScopesSearch(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, nil)

	// "Methods" sits at ordinal 2; a window past it must not find it.
	p := template.Pattern{Text: "Methods", Threshold: 0.9}
	_, err := r.Resolve(context.Background(), &p, Window{Start: 3, End: idx.Len()}, []string{"Report"})
	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected *NoMatchError, got %v", err)
	}
	if noMatch.Pattern != "Methods" {
		t.Errorf("error pattern = %q, want %q", noMatch.Pattern, "Methods")
	}
	if len(noMatch.Strategies) != 4 {
		t.Errorf("expected 4 attempted strategies, got %v", noMatch.Strategies)
	}
	if len(noMatch.Path) != 1 || noMatch.Path[0] != "Report" {
		t.Errorf("error path = %v, want [Report]", noMatch.Path)
	}
}

func TestResolveExactTieIsAmbiguous(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, nil)

	// The two "Results" headings sit on identically laid-out pages, so
	// every score component ties exactly under the exact algorithm.
	p := template.Pattern{Text: "Results", Threshold: 1, Algorithm: template.AlgoExact}
	_, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	var ambiguous *AmbiguousMatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected *AmbiguousMatchError, got %v", err)
	}
	if len(ambiguous.Tied) != 2 {
		t.Errorf("expected 2 tied ordinals, got %v", ambiguous.Tied)
	}
}

func TestResolveEarliestWinsOnFuzzyTie(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, nil)

	// Under a fuzzy algorithm a composite tie resolves to the earliest
	// ordinal instead of erroring.
	p := template.Pattern{Text: "Results", Threshold: 0.9}
	cand, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cand.Ordinal != 4 {
		t.Errorf("resolved ordinal %d, want 4 (earliest of the tie)", cand.Ordinal)
	}
}

func TestResolvePhoneticFallback(t *testing.T) {
	// "Rupert" vs "Robert": edit similarity 4/6 misses every
	// edit-distance rung at threshold 1.0, but the Soundex codes agree,
	// so the phonetic rung at the declared threshold succeeds.
	elems := []model.ContentElement{
		textElement(1, 1, "Rupert", 20, 72, 720, 120, 20),
		textElement(2, 1, "A biography in three parts.", 10, 72, 680, 400, 10),
	}
	idx, err := index.Build(elems)
	if err != nil {
		t.Fatalf("index.Build() error: %v", err)
	}
	r := newResolver(idx, nil)

	p := template.Pattern{Text: "Robert", Threshold: 1}
	cand, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cand.Element.Text != "Rupert" {
		t.Errorf("resolved %q, want %q", cand.Element.Text, "Rupert")
	}
}

func TestResolveNarrowWindowIgnoresWideCacheHit(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, NewCache())

	// Prime the cache from a window that contains "Methods" at ordinal 2.
	p := template.Pattern{Text: "Methods", Threshold: 0.9}
	if _, err := r.Resolve(context.Background(), &p, Window{Start: 1, End: idx.Len()}, nil); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// A window with the same start but ending before ordinal 2 must not
	// be served the out-of-window candidate.
	_, err := r.Resolve(context.Background(), &p, Window{Start: 1, End: 2}, nil)
	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected *NoMatchError in narrowed window, got %v", err)
	}
}

func TestResolveWideWindowIgnoresNarrowCacheMiss(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, NewCache())

	// Prime a miss from a window that excludes "Methods".
	p := template.Pattern{Text: "Methods", Threshold: 0.9}
	if _, err := r.Resolve(context.Background(), &p, Window{Start: 1, End: 2}, nil); err == nil {
		t.Fatal("expected no-match in narrow window")
	}

	// Widening the window past ordinal 2 must resolve despite the
	// cached miss at the same start.
	cand, err := r.Resolve(context.Background(), &p, Window{Start: 1, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cand.Ordinal != 2 {
		t.Errorf("resolved ordinal %d, want 2", cand.Ordinal)
	}
}

func TestResolveCachesByWindow(t *testing.T) {
	idx := buildFixture(t)
	cache := NewCache()
	r := newResolver(idx, cache)

	p := template.Pattern{Text: "Methods", Threshold: 0.9}
	first, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache.Len() = %d, want 1", cache.Len())
	}

	second, err := r.Resolve(context.Background(), &p, Window{Start: 0, End: idx.Len()}, nil)
	if err != nil {
		t.Fatalf("cached Resolve() error: %v", err)
	}
	if second.Ordinal != first.Ordinal || second.Score != first.Score {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}

	// A different window start is a distinct cache entry.
	if _, err := r.Resolve(context.Background(), &p, Window{Start: 1, End: idx.Len()}, nil); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("cache.Len() = %d, want 2", cache.Len())
	}
}

func TestResolveCachesNoMatchWithCallerPath(t *testing.T) {
	idx := buildFixture(t)
	cache := NewCache()
	r := newResolver(idx, cache)

	p := template.Pattern{Text: "Appendix", Threshold: 0.95}
	win := Window{Start: 0, End: idx.Len()}
	if _, err := r.Resolve(context.Background(), &p, win, []string{"a"}); err == nil {
		t.Fatal("expected no-match error")
	}

	// The cached miss is replayed with the second caller's path.
	_, err := r.Resolve(context.Background(), &p, win, []string{"b"})
	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected *NoMatchError, got %v", err)
	}
	if len(noMatch.Path) != 1 || noMatch.Path[0] != "b" {
		t.Errorf("error path = %v, want [b]", noMatch.Path)
	}
}

func TestResolveHonorsContextCancellation(t *testing.T) {
	idx := buildFixture(t)
	r := newResolver(idx, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := template.Pattern{Text: "Methods", Threshold: 0.9}
	if _, err := r.Resolve(ctx, &p, Window{Start: 0, End: idx.Len()}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
