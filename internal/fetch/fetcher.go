package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/Bahjat/phishguard/backend/internal/model"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultMaxRedirects = 10
	defaultMaxBodyBytes = 10 << 20
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptHeader        = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
)

var errBlockedRedirect = errors.New("redirect to non-http(s) scheme blocked")

// ErrorKind classifies why a fetch did not end on a live page.
type ErrorKind int

const (
	// ErrNone means a final response was received.
	ErrNone ErrorKind = iota
	// ErrTimeout means the chain deadline expired.
	ErrTimeout
	// ErrUnreachable covers DNS, dial, TLS and blocked-address failures.
	ErrUnreachable
	// ErrTooManyRedirects means the chain hit the redirect bound.
	ErrTooManyRedirects
	// ErrRedirectLoop means a redirect pointed back to a visited URL.
	ErrRedirectLoop
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrTimeout:
		return "timeout"
	case ErrUnreachable:
		return "unreachable"
	case ErrTooManyRedirects:
		return "too_many_redirects"
	case ErrRedirectLoop:
		return "redirect_loop"
	default:
		return "unknown"
	}
}

// Result is the outcome of fetching one URL and its redirect chain.
type Result struct {
	FinalURL   string
	StatusCode int
	Body       []byte // nil unless the final response carried an HTML document
	Header     http.Header
	Chain      []model.Hop
	ElapsedMs  int64
	Err        ErrorKind
	Cause      error
}

// Live reports whether the chain ended on a 2xx response without error.
func (r *Result) Live() bool {
	return r.Err == ErrNone && r.StatusCode >= 200 && r.StatusCode < 300
}

// Host returns the host of the final URL, or "" if it does not parse.
func (r *Result) Host() string {
	u, err := url.Parse(r.FinalURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Fetcher retrieves a URL, tracing redirects by hand.
type Fetcher interface {
	Fetch(ctx context.Context, target string) *Result
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string
	// Transport overrides the default transport. When nil, a transport
	// dialing through the safe dialer is used unless AllowPrivate is set.
	Transport    http.RoundTripper
	AllowPrivate bool
}

// Client implements Fetcher over net/http with automatic redirects disabled.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient returns a Client. A negative MaxRedirects is treated as zero.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRedirects < 0 {
		opts.MaxRedirects = 0
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Transport == nil {
		opts.Transport = newTransport(opts.AllowPrivate)
	}

	return &Client{
		client: &http.Client{
			Transport: opts.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		opts: opts,
	}
}

func newTransport(allowPrivate bool) *http.Transport {
	dialer := safeDialer()
	if allowPrivate {
		dialer.Control = nil
	}
	return &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxConnsPerHost:     10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// Fetch GETs target and follows redirects one hop at a time under a single
// deadline. It never returns nil and never retries; failures are reported
// through Result.Err.
func (c *Client) Fetch(ctx context.Context, target string) *Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	res := &Result{FinalURL: target, Chain: []model.Hop{}}
	defer func() { res.ElapsedMs = time.Since(start).Milliseconds() }()

	current := target
	seen := map[string]struct{}{target: {}}

	for {
		resp, err := c.get(ctx, current)
		if err != nil {
			res.fail(classify(ctx, err), err)
			return res
		}
		res.StatusCode = resp.StatusCode
		res.Header = resp.Header

		loc := resp.Header.Get("Location")
		if !isRedirect(resp.StatusCode) || loc == "" {
			c.readBody(ctx, resp, res)
			return res
		}
		drain(resp)

		if len(res.Chain) >= c.opts.MaxRedirects {
			res.fail(ErrTooManyRedirects, fmt.Errorf("stopped after %d redirects", c.opts.MaxRedirects))
			return res
		}
		res.Chain = append(res.Chain, model.Hop{URL: current, StatusCode: resp.StatusCode})

		next, err := resolveLocation(current, loc)
		if err != nil {
			res.fail(ErrUnreachable, err)
			return res
		}
		if _, ok := seen[next]; ok {
			res.fail(ErrRedirectLoop, fmt.Errorf("redirect loop at %s", next))
			return res
		}
		seen[next] = struct{}{}
		current = next
		res.FinalURL = current
	}
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	return c.client.Do(req)
}

// readBody stores the final response body, converted to UTF-8, when the
// response is an HTML document.
func (c *Client) readBody(ctx context.Context, resp *http.Response, res *Result) {
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return
	}

	var r io.Reader = io.LimitReader(resp.Body, c.opts.MaxBodyBytes)
	if utf8Reader, err := charset.NewReader(r, contentType); err == nil {
		r = utf8Reader
	}

	body, err := io.ReadAll(r)
	if err != nil {
		res.fail(classify(ctx, err), fmt.Errorf("read body: %w", err))
		return
	}
	res.Body = body
}

func (r *Result) fail(kind ErrorKind, cause error) {
	r.Err = kind
	r.Cause = cause
}

func classify(ctx context.Context, err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnreachable
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", fmt.Errorf("invalid Location %q: %w", location, err)
	}
	next := base.ResolveReference(ref)
	if next.Scheme != "http" && next.Scheme != "https" {
		return "", fmt.Errorf("%w: %s", errBlockedRedirect, next.Scheme)
	}
	next.Fragment = ""
	next.RawFragment = ""
	return next.String(), nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
