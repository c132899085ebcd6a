package sources

import "errors"

// ErrNoPredictions indicates a source page loaded but yielded no usable
// picks. Scrapers return it so a silent layout change is treated the same
// as a network failure.
var ErrNoPredictions = errors.New("no predictions extracted")
