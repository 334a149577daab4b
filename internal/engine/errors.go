package engine

import "errors"

var (
	// ErrInvalidResponse marks a response the queue does not permit. No
	// mutation happened.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrDuplicate marks a submission blocked by an existing substantive
	// verdict or an already-decided item. No mutation happened; retrying
	// yields the same result.
	ErrDuplicate = errors.New("duplicate verdict")
)
