package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/tsawler/collate/align"
	"github.com/tsawler/collate/chunk"
	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/model"
	"github.com/tsawler/collate/template"
)

func sampleResult() *align.Result {
	return &align.Result{
		Sections: []align.Section{
			{
				Kind:       template.KindSection,
				Label:      "intro",
				Labels:     []string{"intro"},
				Matched:    true,
				Region:     model.Region{Start: 1, End: 4, StartPage: 1, EndPage: 1},
				Confidence: 0.91,
				Stats:      map[string]float64{"words": 12, "elements": 3},
				Parent:     -1,
				Children:   []int{1},
			},
			{
				Kind:    template.KindTextChunk,
				Labels:  []string{"intro"},
				Matched: true,
				Region:  model.Region{Start: 2, End: 4, StartPage: 1, EndPage: 1},
				Stats:   map[string]float64{"words": 11, "elements": 2},
				Chunks: []chunk.Chunk{
					{Index: 0, Offset: 0, Tokens: []string{"alpha", "beta", "gamma"}, Text: "alpha beta gamma"},
					{Index: 1, Offset: 2, Tokens: []string{"gamma", "delta"}, Text: "gamma delta"},
				},
				Parent: 0,
			},
		},
		Roots: []int{0},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveRunAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, "report.pdf", sampleResult())
	if err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs() error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].ID != runID || runs[0].Document != "report.pdf" || runs[0].Sections != 2 {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestRunSectionsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, "report.pdf", sampleResult())
	if err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	secs, err := s.RunSections(ctx, runID)
	if err != nil {
		t.Fatalf("RunSections() error: %v", err)
	}
	if len(secs) != 2 {
		t.Fatalf("got %d sections, want 2", len(secs))
	}

	intro := secs[0]
	if intro.Label != "intro" || intro.Kind != "Section" || !intro.Matched {
		t.Errorf("intro = %+v", intro)
	}
	if intro.Start != 1 || intro.End != 4 || intro.Confidence != 0.91 {
		t.Errorf("intro span = %+v", intro)
	}
	if intro.Stats["words"] != 12 {
		t.Errorf("intro stats = %v", intro.Stats)
	}

	leaf := secs[1]
	// Overlapping chunks are deduplicated into contiguous text.
	if leaf.Text != "alpha beta gamma delta" {
		t.Errorf("leaf text = %q", leaf.Text)
	}
}

func TestSectionTextReconstructsOverlappingChunks(t *testing.T) {
	// Chunks produced by the real extractor at size 5 / overlap 2 must
	// come back as the region's full contiguous text.
	const text = "one two three four five six seven eight nine ten eleven twelve"
	var u uuid.UUID
	u[0] = 1
	idx, err := index.Build([]model.ContentElement{{
		ID:       u,
		Type:     model.ElementTypeText,
		Page:     1,
		BBox:     model.NewBBox(72, 700, 400, 10),
		Text:     text,
		FontSize: 10,
	}})
	if err != nil {
		t.Fatalf("index.Build() error: %v", err)
	}

	chunks, err := chunk.NewExtractor(idx, nil).TextChunks(0, 1, 5, 2)
	if err != nil {
		t.Fatalf("TextChunks() error: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}

	res := &align.Result{
		Sections: []align.Section{{
			Kind:    template.KindTextChunk,
			Labels:  []string{"body"},
			Matched: true,
			Region:  model.Region{Start: 0, End: 1, StartPage: 1, EndPage: 1},
			Stats:   map[string]float64{"words": 12},
			Chunks:  chunks,
			Parent:  -1,
		}},
		Roots: []int{0},
	}

	s := openTestStore(t)
	ctx := context.Background()
	runID, err := s.SaveRun(ctx, "tokens.pdf", res)
	if err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	secs, err := s.RunSections(ctx, runID)
	if err != nil {
		t.Fatalf("RunSections() error: %v", err)
	}
	if len(secs) != 1 {
		t.Fatalf("got %d sections, want 1", len(secs))
	}
	if secs[0].Text != text {
		t.Errorf("stored text = %q, want %q", secs[0].Text, text)
	}
}

func TestSectionsByLabelAcrossRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveRun(ctx, "a.pdf", sampleResult()); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	if _, err := s.SaveRun(ctx, "b.pdf", sampleResult()); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	secs, err := s.SectionsByLabel(ctx, "intro")
	if err != nil {
		t.Fatalf("SectionsByLabel() error: %v", err)
	}
	if len(secs) != 2 {
		t.Errorf("got %d intro sections, want 2 (one per run)", len(secs))
	}
	for _, sec := range secs {
		if sec.Label != "intro" {
			t.Errorf("unexpected label %q", sec.Label)
		}
	}
}
