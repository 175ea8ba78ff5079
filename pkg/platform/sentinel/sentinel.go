package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Document stores, the prover
// boundary and other infrastructure return these (optionally wrapped) so
// services can translate them into domain errors.
//
// These represent factual states, not validation failures:
// - ErrNotFound: document or record does not exist
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: backend temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
