package align

import (
	"fmt"
	"strings"
)

// TimeoutError reports that the alignment deadline expired before the
// walk completed. Partial results are discarded.
type TimeoutError struct {
	// Path is the ancestor label chain being resolved when the
	// deadline expired.
	Path []string
}

func (e *TimeoutError) Error() string {
	at := "<root>"
	if len(e.Path) > 0 {
		at = strings.Join(e.Path, "/")
	}
	return fmt.Sprintf("alignment deadline exceeded while resolving %s", at)
}
