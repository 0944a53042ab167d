package mal

import (
	"net/http"
	"time"

	"github.com/s0up4200/anilumina/cache"
	"github.com/s0up4200/anilumina/metrics"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
	store          cache.Store
	cacheTTL       time.Duration
	maxLimit       int
	requestsPerSec float64
	burst          int
	breakerTimeout time.Duration
	breakerTrip    uint32
	metrics        *metrics.Metrics
	now            func() time.Time
}

func defaultOptions() clientOptions {
	return clientOptions{
		baseURL:        DefaultBaseURL,
		timeout:        15 * time.Second,
		cacheTTL:       10 * time.Minute,
		maxLimit:       DefaultMaxLimit,
		requestsPerSec: 3,
		burst:          3,
		breakerTimeout: 30 * time.Second,
		breakerTrip:    5,
		now:            time.Now,
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient uses a custom HTTP client. Its timeout takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithStore sets the response cache backend.
func WithStore(store cache.Store) Option {
	return func(o *clientOptions) {
		o.store = store
	}
}

// WithCacheTTL sets how long upstream responses are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *clientOptions) {
		o.cacheTTL = ttl
	}
}

// WithMaxLimit sets the largest page size requested from the upstream.
func WithMaxLimit(limit int) Option {
	return func(o *clientOptions) {
		if limit > 0 {
			o.maxLimit = limit
		}
	}
}

// WithRateLimit sets the client-side request rate. A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *clientOptions) {
		o.requestsPerSec = perSecond
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithCircuitBreaker sets how many consecutive transient failures open the breaker
// and how long it stays open.
func WithCircuitBreaker(consecutiveFailures uint32, openFor time.Duration) Option {
	return func(o *clientOptions) {
		if consecutiveFailures > 0 {
			o.breakerTrip = consecutiveFailures
		}
		if openFor > 0 {
			o.breakerTimeout = openFor
		}
	}
}

// WithMetrics records cache and upstream metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

// WithClock overrides the time source used for the current season.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		if now != nil {
			o.now = now
		}
	}
}
