package idgen

import "github.com/google/uuid"

// NewFunc produces identifiers; override in tests for determinism.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }

// NewWithPrefix returns prefix + "-" + New(), e.g. "timer-2f1c...".
func NewWithPrefix(prefix string) string {
	if prefix == "" {
		return New()
	}
	return prefix + "-" + New()
}
