package ranker

import "errors"

var (
	// ErrInvalidAction rejects feedback actions outside the closed
	// like/dislike set before any state is mutated.
	ErrInvalidAction = errors.New("invalid feedback action")

	// ErrUnknownCategory rejects categories outside the fixed set.
	ErrUnknownCategory = errors.New("unknown category")
)
