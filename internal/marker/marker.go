package marker

import "github.com/rxtech-lab/argo-equities/internal/types"

// Marker records annotations on bars, such as fills and armed entries.
type Marker interface {
	// Mark records a mark
	Mark(mark types.Mark) error
	// GetMarks returns all the marks in time order
	GetMarks() ([]types.Mark, error)
}
