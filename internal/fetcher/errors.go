package fetcher

import "errors"

var (
	// ErrUnexpectedStatus is returned for a response outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnsupportedContent is returned for a response that is not text.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrInvalidURL is returned for a URL that is not absolute http or https.
	ErrInvalidURL = errors.New("invalid page url")
)
