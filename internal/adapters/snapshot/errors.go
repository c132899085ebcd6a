package snapshot

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrNotFound        = errors.New("snapshot not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
