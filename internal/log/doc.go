// Package log provides an slog handler that keeps secrets and bulky page
// content out of embedleak's logs.
//
// SecureHandler masks:
//   - attributes whose key names a credential (cookie, token, password)
//   - bearer, basic, JWT and private-key values
//   - userinfo and credential query parameters of URLs, including URLs
//     embedded in error messages
//
// and clips long string values such as match snippets.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
