package match

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/model"
	"github.com/tsawler/collate/template"
)

// Composite weights. A candidate's composite score is the weighted sum
// of its four component scores, each normalized to [0,1].
const (
	weightText       = 0.40
	weightTypography = 0.25
	weightSpatial    = 0.20
	weightReference  = 0.15
)

// SimilarityFunc is a pluggable semantic similarity measure returning a
// value in [0,1]. It backs template.AlgoSemantic patterns.
type SimilarityFunc func(pattern, content string) float64

// Breakdown holds the per-component scores of one candidate.
type Breakdown struct {
	Text       float64
	Typography float64
	Spatial    float64
	Reference  float64
}

// Candidate is the ephemeral result of scoring one element against one
// pattern. Candidates are discarded after each resolution step.
type Candidate struct {
	// Ordinal is the element's reading-order position.
	Ordinal int

	// Element is the scored element.
	Element *model.ContentElement

	// Score is the weighted composite in [0,1].
	Score float64

	// Breakdown are the component scores.
	Breakdown Breakdown

	// Confidence mirrors the composite, clamped to [0,1].
	Confidence float64
}

// Scorer computes composite boundary scores over a frozen index. It is
// stateless apart from the index and safe for concurrent use.
type Scorer struct {
	idx      *index.Index
	semantic SimilarityFunc
}

// NewScorer creates a scorer over idx. semantic may be nil, in which
// case AlgoSemantic patterns fall back to edit-distance similarity.
func NewScorer(idx *index.Index, semantic SimilarityFunc) *Scorer {
	return &Scorer{idx: idx, semantic: semantic}
}

// Score evaluates the element at ord against the pattern. The second
// return is false when the element is not text or its text component
// does not reach the pattern's threshold; such candidates are never
// acceptable boundaries regardless of composite score. A text
// component exactly equal to the threshold is accepted.
func (s *Scorer) Score(p *template.Pattern, ord int) (Candidate, bool) {
	e := s.idx.At(ord)
	if !e.IsText() {
		return Candidate{}, false
	}

	text := s.TextSimilarity(p, e.Text)
	if text < p.Threshold {
		return Candidate{Ordinal: ord, Element: e, Breakdown: Breakdown{Text: text}}, false
	}

	b := Breakdown{
		Text:       text,
		Typography: s.typography(ord),
		Spatial:    s.spatial(ord),
		Reference:  s.idx.ReferenceScoreAt(ord),
	}
	score := weightText*b.Text +
		weightTypography*b.Typography +
		weightSpatial*b.Spatial +
		weightReference*b.Reference

	return Candidate{
		Ordinal:    ord,
		Element:    e,
		Score:      score,
		Breakdown:  b,
		Confidence: clamp01(score),
	}, true
}

// TextSimilarity computes the pattern's text component for content,
// in [0,1]. Both sides are canonicalized first.
func (s *Scorer) TextSimilarity(p *template.Pattern, content string) float64 {
	a := index.NormalizeText(p.Text)
	b := index.NormalizeText(content)
	if a == "" || b == "" {
		return 0
	}

	switch p.Algorithm {
	case template.AlgoExact:
		if a == b {
			return 1
		}
		return 0
	case template.AlgoPhonetic:
		return phoneticSimilarity(a, b)
	case template.AlgoSemantic:
		if s.semantic != nil {
			return clamp01(s.semantic(a, b))
		}
		return editSimilarity(a, b)
	default:
		return editSimilarity(a, b)
	}
}

// editSimilarity is 1 − distance/max(len a, len b) over runes.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 0
	}
	dist := matchr.Levenshtein(a, b)
	return 1 - float64(dist)/float64(max)
}

// phoneticSimilarity compares token-wise Soundex codes: the fraction of
// aligned tokens whose codes agree.
func phoneticSimilarity(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	max := len(ta)
	if len(tb) > max {
		max = len(tb)
	}
	if max == 0 {
		return 0
	}
	n := len(ta)
	if len(tb) < n {
		n = len(tb)
	}
	matched := 0
	for i := 0; i < n; i++ {
		if matchr.Soundex(ta[i]) == matchr.Soundex(tb[i]) {
			matched++
		}
	}
	return float64(matched) / float64(max)
}

// typography scores the element's look relative to the document: font
// size against the running body size, boldness, and whitespace
// isolation from its vertical neighbours.
func (s *Scorer) typography(ord int) float64 {
	e := s.idx.At(ord)
	stats := s.idx.FontStats()

	var size float64
	if stats.Median > 0 {
		rel := e.FontSize / stats.Median
		size = clamp01((rel - 1) / 0.6)
	}

	var bold float64
	if e.Bold || e.FontWeight >= 600 {
		bold = 1
	}

	above, below := s.idx.VerticalGaps(ord)
	gap := math.Min(above, below)
	var isolation float64
	if math.IsInf(gap, 1) {
		isolation = 1
	} else if stats.Median > 0 {
		isolation = clamp01(gap / (1.5 * stats.Median))
	}

	return 0.5*size + 0.2*bold + 0.3*isolation
}

// spatial scores horizontal indent relative to the page margin
// (left-aligned favored) and vertical position (top of page favored).
func (s *Scorer) spatial(ord int) float64 {
	e := s.idx.At(ord)
	pb, ok := s.idx.PageBounds(e.Page)
	if !ok || pb.Width <= 0 || pb.Height <= 0 {
		return 0
	}

	indentFrac := clamp01((e.BBox.Left() - pb.Left()) / pb.Width)
	indent := 1 - clamp01(indentFrac*4)

	vertical := clamp01((e.BBox.Top() - pb.Bottom()) / pb.Height)

	return 0.6*indent + 0.4*vertical
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
