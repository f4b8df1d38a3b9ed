package pipeline

import "errors"

var (
	// ErrNoPatterns is returned by the scan step when the run has no pattern set.
	ErrNoPatterns = errors.New("no pattern set to scan with")

	// ErrNilPage marks a nil entry in the page list.
	ErrNilPage = errors.New("nil page")

	// ErrScanPanic marks a page whose scan panicked.
	ErrScanPanic = errors.New("scan panicked")
)
