package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/embedleak/internal/model"
)

const (
	// DefaultUserAgent identifies the fetcher to the sites it reads.
	DefaultUserAgent = "embedleak/1.0 (+markup leak audit)"

	// DefaultTimeout bounds one request including the body read.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRedirects is the number of redirects followed before the
	// redirect response itself is returned.
	DefaultMaxRedirects = 5

	// DefaultMaxBodySize is the number of body bytes read per page.
	DefaultMaxBodySize int64 = model.MaxPageSize
)

// Fetcher retrieves single pages over HTTP. It is safe for concurrent use.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodySize  int64
	timeout      time.Duration
	maxRedirects int
	proxyAddress string
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits the number of body bytes read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxRedirects sets the redirect limit. Zero disables redirects.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRedirects = n
		}
	}
}

// WithProxy routes requests through the SOCKS5 proxy at address (host:port).
func WithProxy(address string) Option {
	return func(f *Fetcher) {
		f.proxyAddress = address
	}
}

// WithHTTPClient replaces the HTTP client. Timeout, redirect and proxy
// options are not applied to a supplied client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a fetcher.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		userAgent:    DefaultUserAgent,
		maxBodySize:  DefaultMaxBodySize,
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client != nil {
		return f, nil
	}

	client, err := f.newHTTPClient()
	if err != nil {
		return nil, err
	}
	f.client = client
	return f, nil
}

// newHTTPClient builds the client from the fetcher's settings.
func (f *Fetcher) newHTTPClient() (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	if f.proxyAddress != "" {
		if !isValidProxyAddress(f.proxyAddress) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, f.proxyAddress)
		}
		dialer, err := proxy.SOCKS5("tcp", f.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	maxRedirects := f.maxRedirects
	return &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// isValidProxyAddress reports whether address is host:port with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// Fetch retrieves rawURL. A response outside 2xx, a transport failure or a
// non-text body is an error; the caller records it as a skipped page.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	page := &model.Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
	}

	switch {
	case page.IsHTML():
		page.Markup = string(body)
		text, err := ExtractText(strings.NewReader(page.Markup))
		if err != nil {
			f.logger.Debug("text extraction failed", "url", rawURL, "error", err)
		}
		page.Text = text
	case isText(contentType):
		page.Text = string(body)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}

	page.Truncate()
	page.ComputeHash()
	f.logger.Debug("page fetched", "url", rawURL, "status", resp.StatusCode, "bytes", len(body))
	return page, nil
}

// isText reports whether a non-HTML content type carries readable text.
func isText(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if strings.HasPrefix(mt, "text/") {
		return true
	}
	switch mt {
	case "application/json", "application/xml", "application/ld+json", "application/javascript":
		return true
	}
	return strings.HasSuffix(mt, "+xml") || strings.HasSuffix(mt, "+json")
}
