package ledger

import "errors"

// ErrInvalidRow indicates a ledger write with missing required fields.
var ErrInvalidRow = errors.New("invalid ledger row")
