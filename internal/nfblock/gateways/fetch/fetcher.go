package fetch

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	logpkg "github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

const (
	// DefaultURLTemplate is the iblocklist p2p download endpoint.
	DefaultURLTemplate = "http://list.iblocklist.com/?list={list}&fileformat=p2p&archiveformat=gz"
	// ListPlaceholder is replaced by the query-escaped source identifier.
	ListPlaceholder = "{list}"

	DefaultTimeout        = 2 * time.Minute
	DefaultMaxBytes int64 = 512 << 20
)

// Error message constants for consistent error handling
const (
	errEmptySource   = "empty blocklist source"
	errNoPlaceholder = "url template %q has no %s placeholder"
	errBadURL        = "invalid url %q: %w"
	errScheme        = "unsupported url scheme %q"
	errBuildRequest  = "build request: %w"
	errRequest       = "request failed: %w"
	errStatus        = "unexpected status %s from %s"
	errOpenFile      = "open file: %w"
	errGzipHeader    = "gzip header: %w"
)

// ErrTooLarge is returned while reading a source that exceeds the size cap.
var ErrTooLarge = errors.New("blocklist exceeds size limit")

// Doer issues HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Fetcher. Zero values fall back to the defaults above.
type Options struct {
	URLTemplate string
	Timeout     time.Duration
	MaxBytes    int64
	Logger      logpkg.Logger
	// options to inject for testing purposes
	Client Doer
}

// Fetcher retrieves blocklist sources over HTTP(S) or from file:// URLs and
// returns their decompressed text.
type Fetcher struct {
	template string
	timeout  time.Duration
	maxBytes int64
	client   Doer
	logger   logpkg.Logger
}

// NewFetcher creates a Fetcher. The URL template must contain ListPlaceholder.
func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultURLTemplate
	}
	if !strings.Contains(opts.URLTemplate, ListPlaceholder) {
		return nil, fmt.Errorf(errNoPlaceholder, opts.URLTemplate, ListPlaceholder)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	return &Fetcher{
		template: opts.URLTemplate,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		client:   opts.Client,
		logger:   opts.Logger,
	}, nil
}

// URL resolves a source identifier. Identifiers containing "://" are used
// verbatim; anything else is a list name substituted into the template.
func (f *Fetcher) URL(source string) string {
	if strings.Contains(source, "://") {
		return source
	}
	return strings.ReplaceAll(f.template, ListPlaceholder, url.QueryEscape(source))
}

// Fetch opens the source and returns a reader over its decompressed content.
// The timeout covers the whole transfer, including reads from the returned
// body; the caller must Close it. Errors wrap domain.ErrRetrieval.
func (f *Fetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrRetrieval, errEmptySource)
	}
	raw := f.URL(source)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, f.fail(source, fmt.Errorf(errBadURL, raw, err))
	}

	f.logger.Debug(map[string]any{"source": source, "url": u.Redacted()}, "fetch_start")

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	body, err := f.open(ctx, u)
	if err != nil {
		cancel()
		return nil, f.fail(source, err)
	}

	rc, err := decompress(body, f.maxBytes)
	if err != nil {
		body.Close()
		cancel()
		return nil, f.fail(source, err)
	}
	return &cancelCloser{ReadCloser: rc, cancel: cancel}, nil
}

func (f *Fetcher) open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf(errBuildRequest, err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf(errRequest, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf(errStatus, resp.Status, u.Redacted())
		}
		return resp.Body, nil
	case "file":
		fh, err := os.Open(u.Path)
		if err != nil {
			return nil, fmt.Errorf(errOpenFile, err)
		}
		return fh, nil
	default:
		return nil, fmt.Errorf(errScheme, u.Scheme)
	}
}

func (f *Fetcher) fail(source string, err error) error {
	f.logger.Debug(map[string]any{"source": source, "error": err.Error()}, "fetch_failed")
	return fmt.Errorf("%w: %s: %w", domain.ErrRetrieval, source, err)
}

var gzipMagic = []byte{0x1f, 0x8b}

// decompress sniffs the gzip magic and unwraps it when present. The result is
// capped at maxBytes of decompressed data.
func decompress(body io.ReadCloser, maxBytes int64) (io.ReadCloser, error) {
	br := bufio.NewReader(body)
	head, _ := br.Peek(len(gzipMagic))

	var r io.Reader = br
	if len(head) == len(gzipMagic) && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf(errGzipHeader, err)
		}
		r = zr
	}
	return &limitedBody{r: r, remaining: maxBytes, closer: body}, nil
}

// limitedBody fails with ErrTooLarge instead of silently truncating.
type limitedBody struct {
	r         io.Reader
	remaining int64
	closer    io.Closer
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// probe for one more byte so an exact-size body still ends cleanly
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func (l *limitedBody) Close() error { return l.closer.Close() }

// cancelCloser releases the transfer timeout when the body is closed.
type cancelCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
