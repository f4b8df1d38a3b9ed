// Package fetcher retrieves pages for scanning.
//
// Each URL is fetched with a single GET request. Links are never followed and
// no scheduling or throttling is applied. HTML responses keep their raw markup
// and also get a readable-text extraction; other text responses fill the text
// field only.
//
// Requests can be routed through a SOCKS5 proxy.
package fetcher
