package store

import "errors"

// Domain error kinds. Operations wrap one of these sentinels so callers can
// classify failures with errors.Is instead of matching message strings.
//
//   - ErrInvalidInput: malformed ids, empty item lists, bad dates, failed
//     category validation. Detected before or at the start of a transaction.
//   - ErrNotFound: a referenced customer, item, sale or borrowing is missing.
//   - ErrConflict: a business rule blocked the change (items already taken,
//     sale already voided, illegal status transition, item has history).
//
// Anything else is an unexpected persistence failure; the transaction is
// rolled back and the error surfaces as-is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
