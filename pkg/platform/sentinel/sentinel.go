package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrAlreadyUsed: a uniqueness constraint rejected the write
//   - ErrInvalidState: row is in the wrong state for the requested write
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
