package corpus

import "errors"

// ErrEmptyCorpus is returned when a URL list holds no URLs.
var ErrEmptyCorpus = errors.New("url list has no entries")
