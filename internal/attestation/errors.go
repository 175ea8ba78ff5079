package attestation

import "errors"

// ErrOverflow is returned (wrapped as a validation error) when summing
// balances or liabilities would exceed the uint64 range.
var ErrOverflow = errors.New("arithmetic overflow")
