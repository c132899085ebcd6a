package results

import "errors"

var (
	// ErrMissingToken indicates no API token is configured.
	ErrMissingToken = errors.New("results API token not configured")

	// ErrInvalidDate indicates a date that is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid results date")

	// ErrRateLimited indicates the API rejected the request with a 429.
	// The free tier allows ten requests per minute.
	ErrRateLimited = errors.New("results API rate limited")

	// ErrFetchResults indicates any other transport or API failure.
	ErrFetchResults = errors.New("failed to fetch results")
)
