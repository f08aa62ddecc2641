package align

import (
	"github.com/tsawler/collate/chunk"
	"github.com/tsawler/collate/model"
	"github.com/tsawler/collate/template"
)

// Section is one extracted node of the result tree. Sections are
// addressed by index into Result.Sections; Parent is -1 for roots.
type Section struct {
	// Kind mirrors the template node that produced this section.
	Kind template.NodeKind

	// Label is the section's own label.
	Label string

	// Labels is the full inherited label chain: every ancestor label,
	// then Label, then any extra labels the template declared.
	Labels []string

	// Matched is false for an optional section whose pattern did not
	// resolve; such sections are empty placeholders.
	Matched bool

	// Region is the span of document elements the section claims.
	Region model.Region

	// Confidence is the composite score of the start boundary match,
	// zero for leaves and unmatched sections.
	Confidence float64

	// Chunks holds the token windows of a TextChunk leaf.
	Chunks []chunk.Chunk

	// Tables and Images hold the references of Table and Image leaves.
	Tables []chunk.Ref
	Images []chunk.Ref

	// Stats are aggregate statistics over the claimed region.
	Stats map[string]float64

	// Payload is whatever the configured model hook returned, nil when
	// no hook ran.
	Payload any

	Parent   int
	Children []int
}

// Result is the output of one alignment run.
type Result struct {
	Sections []Section
	Roots    []int
}

// Section returns the section at index i.
func (r *Result) Section(i int) *Section {
	return &r.Sections[i]
}

// ByLabel returns the indices of all sections whose own label is
// label, in document order.
func (r *Result) ByLabel(label string) []int {
	var out []int
	for i := range r.Sections {
		if r.Sections[i].Label == label {
			out = append(out, i)
		}
	}
	return out
}

// Walk visits every section depth-first in document order. Returning
// false from fn stops the walk.
func (r *Result) Walk(fn func(i int, s *Section) bool) {
	var visit func(i int) bool
	visit = func(i int) bool {
		if !fn(i, &r.Sections[i]) {
			return false
		}
		for _, c := range r.Sections[i].Children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	for _, root := range r.Roots {
		if !visit(root) {
			return
		}
	}
}

// add appends a section and links it under parent, returning its index.
func (r *Result) add(parent int, s Section) int {
	s.Parent = parent
	i := len(r.Sections)
	r.Sections = append(r.Sections, s)
	if parent >= 0 {
		r.Sections[parent].Children = append(r.Sections[parent].Children, i)
	} else {
		r.Roots = append(r.Roots, i)
	}
	return i
}
