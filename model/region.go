package model

// Region is a span of the document assigned to one template node. It
// carries both the ordinal span into the frozen element sequence and the
// page/vertical-position bounds derived from the boundary elements.
//
// Start is inclusive and End exclusive, in document (reading) order.
// An open region has no resolved end pattern; its End is the position
// it ran to (next unconsumed boundary or document end) and Open is true.
type Region struct {
	// Start is the ordinal of the first element in the region.
	Start int

	// End is the ordinal one past the last element in the region.
	End int

	// StartPage and StartY locate the start boundary (page, top edge).
	StartPage int
	StartY    float64

	// EndPage and EndY locate the end of the region. For an open region
	// they describe the last element actually covered.
	EndPage int
	EndY    float64

	// Open is true when no end pattern bounded the region.
	Open bool
}

// Len returns the number of elements spanned.
func (r Region) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether the ordinal span of other lies within r.
func (r Region) Contains(other Region) bool {
	return other.Start >= r.Start && other.End <= r.End
}
