package model

import "github.com/google/uuid"

// ElementType tags a ContentElement variant.
type ElementType int

const (
	ElementTypeUnknown ElementType = iota
	ElementTypeText
	ElementTypeImage
	ElementTypeTable
)

func (et ElementType) String() string {
	switch et {
	case ElementTypeText:
		return "text"
	case ElementTypeImage:
		return "image"
	case ElementTypeTable:
		return "table"
	default:
		return "unknown"
	}
}

// ContentElement is a single positioned content fragment. It is a tagged
// variant rather than an interface hierarchy: scoring and extraction code
// depend on one capability set. The positional fields are meaningful for
// every variant; Text, FontSize, FontName, FontWeight, Bold and Italic
// are meaningful only when Type is ElementTypeText.
//
// Elements are immutable once produced by the decoding collaborator.
type ContentElement struct {
	// ID is the stable identifier assigned upstream.
	ID uuid.UUID

	// Type tags the variant.
	Type ElementType

	// Page is the 1-indexed page number.
	Page int

	// BBox is the element's bounding box in device space.
	BBox BBox

	// Text is the string content (text variant only).
	Text string

	// FontSize is the nominal font size in device units (text variant only).
	FontSize float64

	// FontName is the reported font name (text variant only).
	FontName string

	// FontWeight is the numeric weight, e.g. 400 regular, 700 bold
	// (text variant only; 0 when unreported).
	FontWeight int

	// Bold and Italic are the style flags (text variant only).
	Bold   bool
	Italic bool
}

// IsText reports whether the element is a text fragment.
func (e *ContentElement) IsText() bool {
	return e.Type == ElementTypeText
}

// ReadingOrderLess reports whether a comes before b in reading order:
// page ascending, then vertical position top-down, then horizontal
// position left-to-right. The element ID is the final tie-break so the
// order is total and stable under coordinate jitter from upstream
// normalization.
func ReadingOrderLess(a, b *ContentElement) bool {
	if a.Page != b.Page {
		return a.Page < b.Page
	}
	if a.BBox.Top() != b.BBox.Top() {
		return a.BBox.Top() > b.BBox.Top()
	}
	if a.BBox.Left() != b.BBox.Left() {
		return a.BBox.Left() < b.BBox.Left()
	}
	return a.ID.String() < b.ID.String()
}
