// Package registry downloads package archives from lib.haxe.org.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/adamancini/hmm/internal/logging"
)

// DefaultBaseURL is the public haxelib registry.
const DefaultBaseURL = "https://lib.haxe.org"

// DefaultTimeout bounds a whole download.
const DefaultTimeout = 5 * time.Minute

// ErrNoContentLength is returned when the registry does not announce the
// archive size. Without it a truncated transfer cannot be detected.
var ErrNoContentLength = errors.New("response has no Content-Length")

// HTTPError is returned for non-2xx registry responses.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// ProgressFunc receives the number of bytes written so far and the total.
type ProgressFunc func(written, total int64)

// Client downloads archives from a haxelib registry.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithLogger sets the logger used for download events.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a registry client. An empty baseURL uses DefaultBaseURL
// and a zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PackageURL returns the registry page for a package.
func (c *Client) PackageURL(name string) string {
	return fmt.Sprintf("%s/p/%s", c.baseURL, url.PathEscape(name))
}

// DownloadURL returns the archive URL for a package version.
func (c *Client) DownloadURL(name, version string) string {
	return fmt.Sprintf("%s/p/%s/%s/download", c.baseURL, url.PathEscape(name), url.PathEscape(version))
}

// Download fetches the archive for name@version into dst. dst is created or
// truncated, and removed again if the download fails for any reason.
// It returns the number of bytes written.
func (c *Client) Download(ctx context.Context, name, version, dst string, progress ProgressFunc) (int64, error) {
	u := c.DownloadURL(name, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	// Keep the transport from decompressing, which would hide Content-Length.
	req.Header.Set("Accept-Encoding", "identity")

	c.logger.Debug("downloading", "name", name, "version", version, "url", u)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s %s: %w", name, version, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &HTTPError{URL: u, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("failed to download %s %s: %w", name, version, ErrNoContentLength)
	}

	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	pw := &progressWriter{w: f, total: resp.ContentLength, fn: progress}
	n, err := io.Copy(pw, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n != resp.ContentLength {
		err = fmt.Errorf("short download: got %d of %d bytes", n, resp.ContentLength)
	}
	if err != nil {
		_ = os.Remove(dst)
		return n, fmt.Errorf("failed to download %s %s: %w", name, version, err)
	}

	c.logger.Debug("downloaded", "name", name, "version", version, "size", humanize.Bytes(uint64(n)))
	return n, nil
}

type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	fn      ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.fn != nil {
		p.fn(p.written, p.total)
	}
	return n, err
}
