package exposure

import "errors"

var (
	// ErrNilUserID is returned when an operation requires an
	// authenticated user but got the zero UUID.
	ErrNilUserID = errors.New("user id is required")

	// ErrNoUnseen is returned when every idea matching the query has
	// already been shown to the user.
	ErrNoUnseen = errors.New("no unseen ideas")
)
