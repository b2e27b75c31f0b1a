// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref resolves reference queries against the CrossRef REST API.
// Every request passes through one rate gate and the retry policy in
// httputil; exact lookups and searches are memoized in an optional cache.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/citeformat/internal/cache"
	"github.com/pdiddy/citeformat/internal/classify"
	"github.com/pdiddy/citeformat/internal/httputil"
	"github.com/pdiddy/citeformat/pkg/types"
)

// defaultBaseURL is declared as a var so tests can substitute httptest servers.
var defaultBaseURL = "https://api.crossref.org"

// Version is the product version sent in the User-Agent header.
var Version = "1.0"

var (
	// ErrNotFound means an exact lookup produced no record.
	ErrNotFound = errors.New("crossref: record not found")

	// ErrInvalidSelection means a selection did not name one of the candidates.
	ErrInvalidSelection = errors.New("crossref: invalid selection")
)

// selectFields is the field list requested for search candidates.
var selectFields = []string{
	"DOI", "title", "author", "container-title", "published",
	"volume", "issue", "page", "score",
}

// DefaultConfig returns the client defaults: 1 request per second, three
// attempts, backoff base 2, a 60s Retry-After fallback, 15s timeout and
// three candidates per search.
func DefaultConfig() types.CrossrefConfig {
	return types.CrossrefConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "citeformat/" + Version,
		},
		BaseURL:           defaultBaseURL,
		RateDelay:         time.Second,
		MaxRetries:        httputil.DefaultMaxAttempts,
		BackoffBase:       httputil.DefaultBackoffBase,
		RetryAfterDefault: httputil.DefaultRetryAfter,
		Rows:              3,
	}
}

// Client talks to CrossRef.
type Client struct {
	cfg        types.CrossrefConfig
	baseURL    string
	userAgent  string
	httpClient *http.Client
	clock      httputil.Clock
	retrier    *httputil.Retrier
	cache      cache.Cache
	searchTTL  time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithCache memoizes lookups in ch. Search results expire after searchTTL;
// a zero searchTTL uses cache.DefaultSearchTTL.
func WithCache(ch cache.Cache, searchTTL time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		if searchTTL > 0 {
			c.searchTTL = searchTTL
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock drives the rate gate and backoff from clock.
func WithClock(clock httputil.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// New builds a client from cfg. Zero fields in cfg fall back to the
// values in DefaultConfig, except RateDelay where zero disables the gate.
func New(cfg types.CrossrefConfig, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Rows <= 0 {
		cfg.Rows = def.Rows
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  userAgent(cfg.UserAgent, cfg.ContactEmail),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		clock:      httputil.SystemClock{},
		cache:      cache.Nop{},
		searchTTL:  cache.DefaultSearchTTL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.retrier = &httputil.Retrier{
		Client:            c.httpClient,
		Gate:              httputil.NewGate(cfg.RateDelay, c.clock),
		Clock:             c.clock,
		MaxAttempts:       cfg.MaxRetries,
		BackoffBase:       cfg.BackoffBase,
		DefaultRetryAfter: cfg.RetryAfterDefault,
		Logger:            c.logger,
	}
	return c
}

func userAgent(product, email string) string {
	if email == "" {
		return product
	}
	return fmt.Sprintf("%s (mailto:%s)", product, email)
}

// LookupDOI fetches the full record for doi. Any resolver prefix is
// stripped; the bare DOI is returned as the canonical identifier. Transport
// failures are logged and reported as ErrNotFound.
func (c *Client) LookupDOI(ctx context.Context, doi string) (*types.Record, string, error) {
	raw := classify.BareDOI(doi)
	key := cache.DOIKey(raw)

	if data, ok := c.cache.Get(ctx, key); ok {
		var rec types.Record
		if err := json.Unmarshal(data, &rec); err == nil {
			c.logger.Debug("doi cache hit", "doi", raw)
			return &rec, raw, nil
		}
	}

	var env struct {
		Message *types.Record `json:"message"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/works/"+escapeDOI(raw), &env); err != nil {
		if ctx.Err() != nil {
			return nil, raw, ctx.Err()
		}
		c.logger.Warn("doi lookup failed", "doi", raw, "error", err)
		return nil, raw, fmt.Errorf("%w: %s: %w", ErrNotFound, raw, err)
	}
	if env.Message == nil {
		return nil, raw, fmt.Errorf("%w: %s", ErrNotFound, raw)
	}

	if data, err := json.Marshal(env.Message); err == nil {
		c.cache.Set(ctx, key, data, 0)
	}
	return env.Message, raw, nil
}

// Search returns up to Rows candidates for q in relevance order.
func (c *Client) Search(ctx context.Context, q types.QueryDescriptor) ([]types.Record, error) {
	params := BuildQuery(q)
	key := cache.SearchKey(params)

	if data, ok := c.cache.Get(ctx, key); ok {
		var items []types.Record
		if err := json.Unmarshal(data, &items); err == nil {
			c.logger.Debug("search cache hit", "query", q.Raw)
			return items, nil
		}
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("rows", strconv.Itoa(c.cfg.Rows))
	values.Set("select", strings.Join(selectFields, ","))

	var env struct {
		Message struct {
			Items []types.Record `json:"items"`
		} `json:"message"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/works?"+values.Encode(), &env); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("search failed", "query", q.Raw, "error", err)
		return nil, fmt.Errorf("searching %q: %w", q.Raw, err)
	}

	items := env.Message.Items
	if len(items) > c.cfg.Rows {
		items = items[:c.cfg.Rows]
	}
	if len(items) > 0 {
		if data, err := json.Marshal(items); err == nil {
			c.cache.Set(ctx, key, data, c.searchTTL)
		}
	}
	return items, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.retrier.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// escapeDOI percent-encodes each path segment of doi, keeping the slashes.
func escapeDOI(doi string) string {
	segs := strings.Split(doi, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
