package mal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/anilumina/cache"
	"github.com/s0up4200/anilumina/metrics"
)

// mockAPI counts requests per path and serves canned responses
type mockAPI struct {
	mu     sync.Mutex
	hits   map[string]int
	total  atomic.Int32
	handle func(w http.ResponseWriter, r *http.Request)
}

func newMockAPI(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*mockAPI, *httptest.Server) {
	t.Helper()
	m := &mockAPI{hits: make(map[string]int), handle: handle}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.hits[r.URL.Path]++
		m.mu.Unlock()
		m.total.Add(1)
		m.handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return m, srv
}

func (m *mockAPI) count(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

func newTestClient(t *testing.T, srv *httptest.Server, clientID string, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithBaseURL(srv.URL), WithRateLimit(0, 0)}
	client, err := NewClient(clientID, zerolog.Nop(), append(base, opts...)...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestNewClient(t *testing.T) {
	t.Run("invalid base URL", func(t *testing.T) {
		_, err := NewClient("id", zerolog.Nop(), WithBaseURL("not a url"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid myanimelist base URL")
	})

	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient(" id ", zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, client.baseURL)
		assert.Equal(t, DefaultMaxLimit, client.MaxLimit())
		assert.True(t, client.Configured())
		assert.NotNil(t, client.limiter)
	})

	t.Run("empty client id is accepted", func(t *testing.T) {
		client, err := NewClient("", zerolog.Nop())
		require.NoError(t, err)
		assert.False(t, client.Configured())
	})
}

func TestMissingClientIDMakesNoRequest(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	})
	client := newTestClient(t, srv, "")

	_, err := client.Search(context.Background(), KindAnime, "naruto", 15, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingClientID)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindConfigurationMissing, kind)

	assert.Error(t, client.TestConnection(context.Background()))
	assert.EqualValues(t, 0, api.total.Load())
}

func TestRequestHeadersAndParams(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  string
		wantOffset string
	}{
		{name: "within range", limit: 10, offset: 5, wantLimit: "10", wantOffset: "5"},
		{name: "above max clamps", limit: 50, offset: 0, wantLimit: "15", wantOffset: "0"},
		{name: "zero clamps to one", limit: 0, offset: 0, wantLimit: "1", wantOffset: "0"},
		{name: "negative offset", limit: 3, offset: -4, wantLimit: "3", wantOffset: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/anime", r.URL.Path)
				assert.Equal(t, "secret", r.Header.Get("X-MAL-CLIENT-ID"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				assert.Equal(t, "naruto", r.URL.Query().Get("q"))
				assert.Equal(t, tt.wantLimit, r.URL.Query().Get("limit"))
				assert.Equal(t, tt.wantOffset, r.URL.Query().Get("offset"))
				assert.Contains(t, r.URL.Query().Get("fields"), "num_episodes")
				writeJSON(w, http.StatusOK, `{"data":[]}`)
			})
			client := newTestClient(t, srv, "secret")

			_, err := client.Search(context.Background(), KindAnime, "  naruto ", tt.limit, tt.offset)
			require.NoError(t, err)
		})
	}
}

func TestSearchResponseShapes(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		body   string
		titles []string
	}{
		{
			name:   "wrapped in node",
			kind:   KindAnime,
			body:   `{"data":[{"node":{"id":20,"title":"Naruto","mean":7.99,"num_episodes":220,"status":"finished_airing"}},{"node":{"id":1735,"title":"Naruto: Shippuuden"}}]}`,
			titles: []string{"Naruto", "Naruto: Shippuuden"},
		},
		{
			name:   "unwrapped items",
			kind:   KindAnime,
			body:   `{"data":[{"id":20,"title":"Naruto"}]}`,
			titles: []string{"Naruto"},
		},
		{
			name:   "top level array",
			kind:   KindManga,
			body:   `[{"node":{"id":11,"title":"Naruto"}}]`,
			titles: []string{"Naruto"},
		},
		{
			name:   "name instead of title",
			kind:   KindCharacter,
			body:   `{"data":[{"node":{"id":17,"name":"Naruto Uzumaki"}},{"node":{"id":85,"first_name":"Junko","last_name":"Takeuchi"}}]}`,
			titles: []string{"Naruto Uzumaki", "Junko Takeuchi"},
		},
		{
			name:   "empty data",
			kind:   KindAnime,
			body:   `{"data":[]}`,
			titles: []string{},
		},
		{
			name:   "absent data",
			kind:   KindAnime,
			body:   `{}`,
			titles: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			client := newTestClient(t, srv, "secret")

			records, err := client.Search(context.Background(), tt.kind, "naruto", 15, 0)
			require.NoError(t, err)
			require.NotNil(t, records)

			titles := make([]string, 0, len(records))
			for _, r := range records {
				titles = append(titles, r.Title)
				assert.Equal(t, tt.kind, r.Kind)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestSearchDecodesRecordFields(t *testing.T) {
	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"node":{"id":20,"title":"Naruto","main_picture":{"medium":"https://cdn/m.jpg","large":"https://cdn/l.jpg"},"mean":7.99,"rank":660,"num_episodes":220,"status":"finished_airing","start_date":"2002-10-03"}}]}`)
	})
	client := newTestClient(t, srv, "secret")

	records, err := client.Search(context.Background(), KindAnime, "naruto", 1, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 20, r.ID)
	assert.Equal(t, "https://myanimelist.net/anime/20", r.URL)
	assert.Equal(t, "https://cdn/m.jpg", r.ThumbnailURL)
	require.NotNil(t, r.Score)
	assert.InDelta(t, 7.99, *r.Score, 0.0001)
	require.NotNil(t, r.Rank)
	assert.Equal(t, 660, *r.Rank)
	require.NotNil(t, r.Count)
	assert.Equal(t, 220, *r.Count)
	assert.Equal(t, StatusFinishedAiring, r.Status)
	assert.Equal(t, 2002, r.Year())
}

func TestSearchInvalidJSON(t *testing.T) {
	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data": nope`)
	})
	client := newTestClient(t, srv, "secret")

	_, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestSearchRejectsInvalidArguments(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	})
	client := newTestClient(t, srv, "secret")

	_, err := client.Search(context.Background(), Kind("song"), "naruto", 5, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = client.Search(context.Background(), KindAnime, "   ", 5, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.EqualValues(t, 0, api.total.Load())
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		kind     ErrorKind
		detail   string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"bad_request","message":"invalid q"}`, sentinel: ErrBadRequest, kind: KindBadRequest, detail: "invalid q"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid_token"}`, sentinel: ErrUnauthorized, kind: KindUnauthorized, detail: "invalid_token"},
		{name: "forbidden", status: http.StatusForbidden, body: ``, sentinel: ErrUnauthorized, kind: KindUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `slow down`, sentinel: ErrRateLimited, kind: KindRateLimited, detail: "slow down"},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"not_found"}`, sentinel: ErrNotFound, kind: KindNotFound},
		{name: "gateway", status: http.StatusBadGateway, body: `upstream down`, sentinel: ErrTransient, kind: KindTransient},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, sentinel: ErrTransient, kind: KindTransient},
		{name: "teapot", status: http.StatusTeapot, body: `short and stout`, sentinel: ErrUnexpected, kind: KindUnexpected, detail: "short and stout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			client := newTestClient(t, srv, "secret")

			_, err := client.FetchByID(context.Background(), KindAnime, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "anime/1", apiErr.Endpoint)
			if tt.detail != "" {
				assert.Contains(t, apiErr.Detail, tt.detail)
			}
		})
	}
}

func TestErrorBodyExcerptIsBounded(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTeapot, string(long))
	})
	client := newTestClient(t, srv, "secret")

	_, err := client.FetchByID(context.Background(), KindAnime, 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Len(t, apiErr.Detail, maxBodyExcerpt+3)
}

func TestUnauthorizedIsLatched(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)

	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if int(status.Load()) != http.StatusOK {
			writeJSON(w, int(status.Load()), `{"error":"invalid_client"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	})
	client := newTestClient(t, srv, "wrong")

	_, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualValues(t, 1, api.total.Load())

	_, err = client.Search(context.Background(), KindManga, "berserk", 5, 0)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualValues(t, 1, api.total.Load(), "latched client must not call upstream")

	status.Store(http.StatusOK)
	client.SetClientID("right")

	records, err := client.Search(context.Background(), KindManga, "berserk", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.EqualValues(t, 2, api.total.Load())
}

func TestRateLimitedIsNotRetried(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		writeJSON(w, http.StatusTooManyRequests, `{"error":"too_many_requests"}`)
	})
	client := newTestClient(t, srv, "secret")

	_, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, api.total.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRateLimited())
	assert.True(t, apiErr.Retryable())

	// failures are not cached, so a later call goes upstream again
	_, err = client.Search(context.Background(), KindAnime, "naruto", 5, 0)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 2, api.total.Load())
}

func TestNotFound(t *testing.T) {
	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"not_found"}`)
	})
	client := newTestClient(t, srv, "secret")

	records, err := client.Search(context.Background(), KindAnime, "zzzz", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = client.FetchByID(context.Background(), KindAnime, 999999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Resolve(context.Background(), KindAnime, "zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveByNameCachesBothLayers(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/anime":
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, `{"data":[{"node":{"id":20,"title":"Naruto"}}]}`)
		case "/anime/20":
			writeJSON(w, http.StatusOK, `{"id":20,"title":"Naruto","synopsis":"Moments prior...","genres":[{"id":1,"name":"Action"}],"studios":[{"id":1,"name":"Pierrot"}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	client := newTestClient(t, srv, "secret")

	for i := 0; i < 2; i++ {
		rec, err := client.Resolve(context.Background(), KindAnime, "Naruto")
		require.NoError(t, err)
		assert.Equal(t, 20, rec.ID)
		assert.Equal(t, "Moments prior...", rec.Synopsis)
		assert.Equal(t, []string{"Action"}, rec.Genres)
		assert.Equal(t, []string{"Pierrot"}, rec.Studios)
	}

	assert.Equal(t, 1, api.count("/anime"))
	assert.Equal(t, 1, api.count("/anime/20"))
}

func TestResolveNumericFetchesDirectly(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"node":{"id":2,"title":"Berserk","num_chapters":380,"num_volumes":42}}`)
	})
	client := newTestClient(t, srv, "secret")

	rec, err := client.Resolve(context.Background(), KindManga, "2")
	require.NoError(t, err)
	assert.Equal(t, "Berserk", rec.Title)
	require.NotNil(t, rec.Count)
	assert.Equal(t, 380, *rec.Count)
	require.NotNil(t, rec.Volumes)
	assert.Equal(t, 42, *rec.Volumes)
	assert.Equal(t, "Chapters", rec.CountLabel())
	assert.Equal(t, 1, api.count("/manga/2"))
	assert.Equal(t, 0, api.count("/manga"))
}

func TestResolveReturnsSearchNodeWithoutID(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"name":"Studio Ghost"}]}`)
	})
	client := newTestClient(t, srv, "secret")

	rec, err := client.Resolve(context.Background(), KindStudio, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "Studio Ghost", rec.Title)
	assert.Empty(t, rec.URL)
	assert.Equal(t, 1, api.count("/producers"))
}

func TestCancelledCallIsNotCached(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		writeJSON(w, http.StatusOK, `{"data":[{"node":{"id":20,"title":"Naruto"}}]}`)
	})
	t.Cleanup(func() { close(release) })

	store := cache.NewMemoryStore()
	client := newTestClient(t, srv, "secret", WithStore(store))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, KindAnime, "naruto", 5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 0, store.Len())

	require.Eventually(t, func() bool {
		records, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
		return err == nil && len(records) == 1
	}, 2*time.Second, 20*time.Millisecond)

	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.Equal(t, 1, store.Len())
}

func TestCacheTTLDisabled(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	})
	client := newTestClient(t, srv, "secret", WithCacheTTL(0))

	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, api.total.Load())
}

func TestNoContentIsEmptyResult(t *testing.T) {
	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, srv, "secret")

	records, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("opens after consecutive transient failures", func(t *testing.T) {
		api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, `maintenance`)
		})
		client := newTestClient(t, srv, "secret", WithCircuitBreaker(2, time.Minute))

		for i := 0; i < 2; i++ {
			_, err := client.FetchByID(context.Background(), KindAnime, 1)
			require.ErrorIs(t, err, ErrTransient)
		}
		assert.EqualValues(t, 2, api.total.Load())

		_, err := client.FetchByID(context.Background(), KindAnime, 1)
		require.ErrorIs(t, err, ErrTransient)
		assert.Contains(t, err.Error(), "circuit breaker open")
		assert.EqualValues(t, 2, api.total.Load())
	})

	t.Run("client errors do not trip", func(t *testing.T) {
		api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"message":"invalid"}`)
		})
		client := newTestClient(t, srv, "secret", WithCircuitBreaker(2, time.Minute))

		for i := 0; i < 4; i++ {
			_, err := client.FetchByID(context.Background(), KindAnime, 1)
			require.ErrorIs(t, err, ErrBadRequest)
		}
		assert.EqualValues(t, 4, api.total.Load())
	})
}

func TestConcurrentIdenticalRequestsShareOneCall(t *testing.T) {
	release := make(chan struct{})
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, `{"data":[{"node":{"id":20,"title":"Naruto"}}]}`)
	})
	client := newTestClient(t, srv, "secret")

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return api.total.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.total.Load())
}

func TestCallerTimeoutDoesNotFailOtherWaiters(t *testing.T) {
	release := make(chan struct{})
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		writeJSON(w, http.StatusOK, `{"data":[{"node":{"id":20,"title":"Naruto"}}]}`)
	})
	store := cache.NewMemoryStore()
	client := newTestClient(t, srv, "secret", WithStore(store))

	shortCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shortErr := make(chan error, 1)
	go func() {
		_, err := client.Search(shortCtx, KindAnime, "naruto", 5, 0)
		shortErr <- err
	}()
	require.Eventually(t, func() bool { return api.total.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		records []Record
		err     error
	}
	patient := make(chan result, 1)
	go func() {
		records, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
		patient <- result{records, err}
	}()
	require.Eventually(t, func() bool { return client.waiters("naruto") == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-shortErr:
		assert.ErrorIs(t, err, ErrTransient)
	case <-time.After(time.Second):
		t.Fatal("short caller did not return")
	}
	close(release)

	select {
	case res := <-patient:
		require.NoError(t, res.err)
		assert.Len(t, res.records, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
	assert.EqualValues(t, 1, api.total.Load())
	assert.Equal(t, 1, store.Len())
}

// waiters returns the number of callers waiting on the flight whose key contains substr
func (c *Client) waiters(substr string) int {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	n := 0
	for key, f := range c.inflight {
		if strings.Contains(key, substr) {
			n += f.waiters
		}
	}
	return n
}

func TestRanking(t *testing.T) {
	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manga/ranking", r.URL.Path)
		assert.Equal(t, "bypopularity", r.URL.Query().Get("ranking_type"))
		writeJSON(w, http.StatusOK, `{"data":[{"node":{"id":2,"title":"Berserk"},"ranking":{"rank":1}}]}`)
	})
	client := newTestClient(t, srv, "secret")

	records, err := client.Ranking(context.Background(), KindManga, "ByPopularity", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Rank)
	assert.Equal(t, 1, *records[0].Rank)

	_, err = client.Ranking(context.Background(), KindCharacter, "all", 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = client.Ranking(context.Background(), KindAnime, "novels", 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSeasonalAndSchedule(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anime_score", r.URL.Query().Get("sort"))
		writeJSON(w, http.StatusOK, `{"data":[
			{"node":{"id":1,"title":"Monday Show","broadcast":{"day_of_the_week":"monday"}}},
			{"node":{"id":2,"title":"Tuesday Show","broadcast":{"day_of_the_week":"tuesday"}}},
			{"node":{"id":3,"title":"Another Monday","broadcast":{"day_of_the_week":"Monday"}}}
		]}`)
	})
	now := time.Date(2024, time.October, 15, 12, 0, 0, 0, time.UTC)
	client := newTestClient(t, srv, "secret", WithClock(func() time.Time { return now }))

	records, err := client.Seasonal(context.Background(), 2024, "autumn", 5)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, api.count("/anime/season/2024/fall"))

	scheduled, err := client.Schedule(context.Background(), "mon", 5)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)
	assert.Equal(t, "Monday Show", scheduled[0].Title)
	assert.Equal(t, "Another Monday", scheduled[1].Title)

	limited, err := client.Schedule(context.Background(), "monday", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
	// both schedule calls scan the same cached season listing
	assert.Equal(t, 2, api.count("/anime/season/2024/fall"))

	_, err = client.Schedule(context.Background(), "someday", 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = client.Seasonal(context.Background(), 2024, "monsoon", 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTestConnectionBypassesCache(t *testing.T) {
	api, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	})
	client := newTestClient(t, srv, "secret")

	require.NoError(t, client.TestConnection(context.Background()))
	require.NoError(t, client.TestConnection(context.Background()))
	assert.EqualValues(t, 2, api.total.Load())
}

func TestClientRecordsMetrics(t *testing.T) {
	_, srv := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	})
	m := metrics.New(prometheus.NewRegistry())
	client := newTestClient(t, srv, "secret", WithMetrics(m))

	for i := 0; i < 2; i++ {
		_, err := client.Search(context.Background(), KindAnime, "naruto", 5, 0)
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("search", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("search", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "ok")))
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Monday", want: "monday"},
		{in: "sun", want: "sunday"},
		{in: " FRI ", want: "friday"},
		{in: "mo", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
