package domain

import (
	"go.uber.org/atomic"
)

// ClassRegistry hands out 1-based class ids in creation order.
type ClassRegistry struct {
	last *atomic.Int64
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{last: atomic.NewInt64(0)}
}

// Assign returns the next class id. Safe for concurrent use.
func (r *ClassRegistry) Assign() int {
	return int(r.last.Inc())
}

// Count is the number of ids handed out so far.
func (r *ClassRegistry) Count() int {
	return int(r.last.Load())
}

func (r *ClassRegistry) Reset() {
	r.last.Store(0)
}
