package idea

import "errors"

// Sentinel errors for idea store operations, checked with errors.Is().
var (
	// ErrIdeaNotFound indicates the requested idea does not exist.
	ErrIdeaNotFound = errors.New("idea not found")

	// ErrNoIdeas indicates the store holds no ideas at all.
	ErrNoIdeas = errors.New("no ideas in store")

	// ErrInvalidDraft indicates a draft violates the domain bounds.
	ErrInvalidDraft = errors.New("invalid idea draft")
)
