// Package cms is the read-only adapter to the headless content service
// (Prismic REST API v2). Every document it returns has been validated.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/ppiankov/spacetraveling/internal/privacy"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 8 * time.Second
	refTTL              = 5 * time.Second
	userAgent           = "spacetraveling/1.0"
)

var (
	// ErrNotFound is returned when no document matches a UID.
	ErrNotFound = errors.New("document not found")
	// ErrForeignCursor is returned for cursors that do not point at the configured endpoint.
	ErrForeignCursor = errors.New("cursor does not belong to the configured endpoint")
)

// StatusError is a non-200 answer from the CMS after retries.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Options configures a Client.
type Options struct {
	Endpoint     string
	AccessToken  string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is the minimum spacing between requests. Zero disables it.
	RateLimit time.Duration
	Logger    *slog.Logger
}

// Query parameterizes a listing request.
type Query struct {
	Orderings string
	PageSize  int
	Page      int
}

// Client talks to one CMS repository.
type Client struct {
	endpoint *url.URL
	token    string
	http     *retryablehttp.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	ref   string
	refAt time.Time
}

// New creates a client for the API root at opts.Endpoint.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("cms: endpoint is required")
	}
	u, err := url.Parse(strings.TrimRight(opts.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("cms: parse endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("cms: endpoint %q is not an http(s) URL", opts.Endpoint)
	}
	if opts.MaxRetries < 0 {
		return nil, errors.New("cms: max retries must not be negative")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = defaultRetryWaitMin
	rc.RetryWaitMax = defaultRetryWaitMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.HTTPClient.Timeout = timeout
	rc.Logger = retryLogger{logger}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Every(opts.RateLimit)
	}

	return &Client{
		endpoint: u,
		token:    opts.AccessToken,
		http:     rc,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Endpoint returns the API root the client was built for.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// MasterRef returns the ref addressing published content. It is cached
// briefly so a burst of queries costs one lookup.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.ref != "" && c.now().Sub(c.refAt) < refTTL {
		ref := c.ref
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	u := *c.endpoint
	if c.token != "" {
		u.RawQuery = url.Values{"access_token": {c.token}}.Encode()
	}

	var api apiInfo
	if err := c.getJSON(ctx, u.String(), &api); err != nil {
		return "", fmt.Errorf("cms: master ref: %w", err)
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.ref, c.refAt = r.Ref, c.now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", errors.New("cms: master ref: api lists no master ref")
}

// GetByType returns one page of documents of the given type.
func (c *Client) GetByType(ctx context.Context, kind string, q Query) (Page, error) {
	if strings.TrimSpace(kind) == "" {
		return Page{}, errors.New("cms: document type is required")
	}
	ref, err := c.MasterRef(ctx)
	if err != nil {
		return Page{}, err
	}
	predicate := fmt.Sprintf("[at(document.type,%q)]", kind)
	return c.fetchPage(ctx, c.searchURL(ref, predicate, q))
}

// GetByUID returns the single document of the given type and UID.
func (c *Client) GetByUID(ctx context.Context, kind, uid string) (Document, error) {
	if strings.TrimSpace(kind) == "" || strings.TrimSpace(uid) == "" {
		return Document{}, errors.New("cms: document type and uid are required")
	}
	ref, err := c.MasterRef(ctx)
	if err != nil {
		return Document{}, err
	}
	predicate := fmt.Sprintf("[at(my.%s.uid,%q)]", kind, uid)
	page, err := c.fetchPage(ctx, c.searchURL(ref, predicate, Query{PageSize: 1}))
	if err != nil {
		return Document{}, err
	}
	if len(page.Results) == 0 {
		return Document{}, fmt.Errorf("cms: %s %q: %w", kind, uid, ErrNotFound)
	}
	return page.Results[0], nil
}

// NextPage follows a next_page cursor returned by an earlier page.
func (c *Client) NextPage(ctx context.Context, cursor string) (Page, error) {
	u, err := c.checkCursor(cursor)
	if err != nil {
		return Page{}, err
	}
	return c.fetchPage(ctx, u)
}

func (c *Client) checkCursor(cursor string) (string, error) {
	if strings.TrimSpace(cursor) == "" {
		return "", fmt.Errorf("cms: empty cursor: %w", ErrForeignCursor)
	}
	u, err := url.Parse(cursor)
	if err != nil {
		return "", fmt.Errorf("cms: parse cursor: %w", err)
	}
	if u.Scheme != c.endpoint.Scheme || u.Host != c.endpoint.Host {
		return "", fmt.Errorf("cms: cursor host %q: %w", u.Host, ErrForeignCursor)
	}
	if c.token != "" {
		v := u.Query()
		if v.Get("access_token") == "" {
			v.Set("access_token", c.token)
			u.RawQuery = v.Encode()
		}
	}
	return u.String(), nil
}

func (c *Client) searchURL(ref, predicate string, q Query) string {
	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/documents/search"

	v := url.Values{}
	v.Set("ref", ref)
	v.Set("q", "["+predicate+"]")
	if q.Orderings != "" {
		v.Set("orderings", q.Orderings)
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if c.token != "" {
		v.Set("access_token", c.token)
	}
	u.RawQuery = v.Encode()
	return u.String()
}

func (c *Client) fetchPage(ctx context.Context, u string) (Page, error) {
	var page Page
	if err := c.getJSON(ctx, u, &page); err != nil {
		return Page{}, fmt.Errorf("cms: %w", err)
	}
	if err := page.Validate(); err != nil {
		return Page{}, fmt.Errorf("cms: page %d: %w", page.Page, err)
	}
	return page, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = privacy.URL(ue.URL)
			return ue
		}
		return fmt.Errorf("GET %s: %w", privacy.URL(u), err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("cms request", "url", privacy.URL(u), "status", resp.StatusCode, "elapsed", c.now().Sub(start))

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: privacy.URL(u)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", privacy.URL(u), err)
	}
	return nil
}

// retryLogger redacts tokens from the request URLs retryablehttp logs.
type retryLogger struct {
	l *slog.Logger
}

func (r retryLogger) Error(msg string, kv ...any) { r.l.Error(msg, redactArgs(kv)...) }
func (r retryLogger) Info(msg string, kv ...any)  { r.l.Info(msg, redactArgs(kv)...) }
func (r retryLogger) Debug(msg string, kv ...any) { r.l.Debug(msg, redactArgs(kv)...) }
func (r retryLogger) Warn(msg string, kv ...any)  { r.l.Warn(msg, redactArgs(kv)...) }

func redactArgs(kv []any) []any {
	out := make([]any, len(kv))
	for i, v := range kv {
		switch x := v.(type) {
		case string:
			out[i] = privacy.Text(x)
		case error:
			out[i] = privacy.Text(x.Error())
		case fmt.Stringer:
			out[i] = privacy.Text(x.String())
		default:
			out[i] = v
		}
	}
	return out
}

type apiInfo struct {
	Refs []apiRef `json:"refs"`
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}
