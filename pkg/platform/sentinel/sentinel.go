package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into coded domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrAlreadyUsed: a unique key (contract number, tax id) is taken
//   - ErrConflict: concurrent write lost or referenced row vanished
//   - ErrInvalidState: row is in the wrong state for the requested write (a soft-deleted comment)
//
// Input validation never uses these; see pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
