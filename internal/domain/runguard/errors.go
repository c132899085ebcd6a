package runguard

import "errors"

// ErrInFlight is returned by callers translating a failed Acquire into an
// error for their own interface.
var ErrInFlight = errors.New("run already in flight")
