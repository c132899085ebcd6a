package oracle

import "errors"

var (
	// ErrMissingAPIKey indicates no credential is configured.
	ErrMissingAPIKey = errors.New("oracle API key not configured")

	// ErrCompletion indicates the completion request itself failed.
	ErrCompletion = errors.New("oracle completion failed")

	// ErrNoJSONBlock indicates the response carried no fenced JSON block.
	ErrNoJSONBlock = errors.New("no json block in oracle response")

	// ErrBadPredictions indicates the block did not validate.
	ErrBadPredictions = errors.New("invalid oracle predictions")
)
