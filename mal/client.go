package mal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/s0up4200/anilumina/cache"
	"github.com/s0up4200/anilumina/metrics"
)

const (
	// DefaultBaseURL is the MyAnimeList v2 API root
	DefaultBaseURL = "https://api.myanimelist.net/v2"
	// DefaultMaxLimit is the largest page size requested from the upstream
	DefaultMaxLimit = 15

	siteBaseURL      = "https://myanimelist.net"
	clientIDHeader   = "X-MAL-CLIENT-ID"
	maxResponseBytes = 4 << 20
)

// Client represents a MyAnimeList API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	store      cache.Store
	cacheTTL   time.Duration
	maxLimit   int
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	flights    singleflight.Group
	flightMu   sync.Mutex
	inflight   map[string]*flight
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time

	mu           sync.RWMutex
	clientID     string
	unauthorized bool
}

var _ API = (*Client)(nil)

// NewClient creates a new MyAnimeList client. An empty clientID is accepted:
// every call then fails with ErrMissingClientID without touching the network.
func NewClient(clientID string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	baseURL := strings.TrimRight(o.baseURL, "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid myanimelist base URL %q: %w", o.baseURL, err)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	store := o.store
	if store == nil {
		store = cache.NewMemoryStore()
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    o.timeout,
		inflight:   make(map[string]*flight),
		store:      store,
		cacheTTL:   o.cacheTTL,
		maxLimit:   o.maxLimit,
		metrics:    o.metrics,
		logger:     logger.With().Str("component", "mal").Logger(),
		now:        o.now,
		clientID:   strings.TrimSpace(clientID),
	}

	if o.requestsPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.requestsPerSec), o.burst)
	}

	trip := o.breakerTrip
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "myanimelist",
		MaxRequests: 1,
		Timeout:     o.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Upstream circuit breaker changed state")
		},
	})

	return c, nil
}

// SetClientID replaces the credential and clears a previous unauthorized state
func (c *Client) SetClientID(clientID string) {
	c.mu.Lock()
	c.clientID = strings.TrimSpace(clientID)
	c.unauthorized = false
	c.mu.Unlock()
}

// Configured reports whether a credential is set
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID != ""
}

// credential returns the client id, or the error every call must fail with
func (c *Client) credential() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.clientID == "" {
		return "", &APIError{Kind: KindConfigurationMissing, Detail: "set MAL_CLIENT_ID to enable catalog commands"}
	}
	if c.unauthorized {
		return "", &APIError{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Detail: "client id previously rejected"}
	}
	return c.clientID, nil
}

func (c *Client) markUnauthorized() {
	c.mu.Lock()
	c.unauthorized = true
	c.mu.Unlock()
}

// get performs a cached GET. Only successful responses are stored, and concurrent
// identical requests share one upstream call.
func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values, key string) ([]byte, error) {
	clientID, err := c.credential()
	if err != nil {
		return nil, err
	}

	if c.cacheTTL > 0 {
		if body, ok := c.store.Get(ctx, key); ok {
			c.metrics.CacheHit(op)
			return body, nil
		}
		c.metrics.CacheMiss(op)
	}

	f, ch := c.join(ctx, key, func(fctx context.Context) (any, error) {
		body, err := c.fetch(fctx, op, clientID, endpoint, params)
		if err != nil {
			return nil, err
		}
		if c.cacheTTL > 0 {
			c.store.Set(fctx, key, body, c.cacheTTL)
		}
		return body, nil
	})
	defer c.leave(key, f)

	select {
	case <-ctx.Done():
		return nil, &APIError{Kind: KindTransient, Endpoint: endpoint, Detail: "request abandoned", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// flight is a shared upstream call. It runs on its own context so one caller
// giving up does not fail the others, and is cancelled once every waiter has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// join registers the caller as a waiter on the flight for key, starting it if needed
func (c *Client) join(ctx context.Context, key string, fn func(context.Context) (any, error)) (*flight, <-chan singleflight.Result) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()

	f, ok := c.inflight[key]
	if !ok {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		f = &flight{ctx: fctx, cancel: cancel}
		c.inflight[key] = f
	}
	f.waiters++

	// DoChan only starts a goroutine, so holding flightMu here keeps map and group in step
	ch := c.flights.DoChan(key, func() (any, error) {
		defer c.finish(key, f)
		return fn(f.ctx)
	})
	return f, ch
}

// leave drops a waiter and cancels the flight when nobody is waiting any more
func (c *Client) leave(key string, f *flight) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()

	f.waiters--
	if f.waiters <= 0 {
		f.cancel()
		if c.inflight[key] == f {
			delete(c.inflight, key)
			// later callers start fresh instead of joining the cancelled call
			c.flights.Forget(key)
		}
	}
}

func (c *Client) finish(key string, f *flight) {
	c.flightMu.Lock()
	if c.inflight[key] == f {
		delete(c.inflight, key)
	}
	c.flightMu.Unlock()
}

// fetch performs one rate-limited, breaker-guarded upstream call
func (c *Client) fetch(ctx context.Context, op, clientID, endpoint string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{Kind: KindTransient, Endpoint: endpoint, Detail: "rate limiter wait aborted", Err: err}
		}
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, clientID, endpoint, params)
	})

	outcome := "ok"
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &APIError{Kind: KindTransient, Endpoint: endpoint, Detail: "circuit breaker open", Err: err}
		}

		kind, _ := KindOf(err)
		outcome = kind.String()

		if kind == KindUnauthorized {
			c.markUnauthorized()
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("MyAnimeList rejected the client id")
		}
	}
	c.metrics.ObserveUpstream(op, outcome, time.Since(start))

	return body, err
}

// doRequest performs an HTTP request with authentication
func (c *Client) doRequest(ctx context.Context, clientID, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &APIError{Kind: KindUnexpected, Endpoint: endpoint, Detail: "failed to create request", Err: err}
	}

	req.Header.Set(clientIDHeader, clientID)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", params.Encode()).
		Msg("Making MyAnimeList API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Endpoint: endpoint, Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Endpoint: endpoint, Detail: "failed to read response body", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return []byte{}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	}

	kind := classifyStatus(resp.StatusCode)
	if kind == KindUnexpected && resp.StatusCode >= 500 {
		kind = KindTransient
	}

	return nil, &APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		Detail:     upstreamDetail(body),
	}
}

// upstreamDetail extracts the error text MyAnimeList puts in error bodies
func upstreamDetail(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "" && payload.Error != "":
			return payload.Error + ": " + payload.Message
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	return excerpt(body)
}

// countsAsSuccess decides which outcomes the circuit breaker treats as healthy.
// Only transient and unexpected upstream failures count against it.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind != KindTransient && kind != KindUnexpected
}

// clampLimit bounds limit to [1, maxLimit]
func (c *Client) clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > c.maxLimit {
		return c.maxLimit
	}
	return limit
}

// MaxLimit returns the largest page size the client requests
func (c *Client) MaxLimit() int {
	return c.maxLimit
}
