package envelope

import (
	"time"
)

// Meta carries pagination and bookkeeping for a completed operation.
type Meta struct {
	Total   int           `json:"total,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Offset  int           `json:"offset,omitempty"`
	HasMore bool          `json:"has_more,omitempty"`
	Cached  bool          `json:"cached"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Page builds list metadata for a window of size returned rows.
func Page(total, limit, offset, returned int) *Meta {
	return &Meta{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+returned < total,
	}
}

// Envelope is the uniform success result of an orchestrated operation.
// Failures are reported through the accompanying *ErrorEnvelope error.
type Envelope[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}
