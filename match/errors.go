package match

import (
	"fmt"
	"strings"
)

// NoMatchError reports that no candidate cleared the pattern's
// threshold inside the search window after every fallback strategy was
// exhausted. It is never silently recovered.
type NoMatchError struct {
	// Pattern is the target text that failed to match.
	Pattern string

	// Strategies lists the fallback strategies attempted, in order.
	Strategies []string

	// Path is the ancestor label chain of the failing template node.
	Path []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no match found for pattern %q at %s (strategies tried: %s)",
		e.Pattern, pathString(e.Path), strings.Join(e.Strategies, ", "))
}

// AmbiguousMatchError reports an exact composite-score tie between
// distinct candidates that the pattern's algorithm cannot reconcile.
type AmbiguousMatchError struct {
	Pattern string

	// Tied holds the reading-order ordinals of the tied candidates.
	Tied []int

	Path []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for pattern %q at %s: %d candidates tied",
		e.Pattern, pathString(e.Path), len(e.Tied))
}

// LimitError reports that a configured structural limit (maximum
// recursion depth or maximum section count) was exceeded. It is always
// fatal for the current document and never retried.
type LimitError struct {
	// Limit names the limit that was exceeded ("depth" or "sections").
	Limit string
	Max   int
	Path  []string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("structural limit exceeded at %s: %s > %d",
		pathString(e.Path), e.Limit, e.Max)
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, "/")
}
