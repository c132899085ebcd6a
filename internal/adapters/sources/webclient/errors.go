package webclient

import "errors"

// ErrFetchPage indicates a page could not be fetched or decoded.
var ErrFetchPage = errors.New("failed to fetch page")
