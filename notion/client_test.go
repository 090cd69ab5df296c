package notion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/notion-schema/errors"
)

const tasksResponse = `{"object":"database","id":"0123","title":[{"plain_text":"Tasks"}],"properties":{"Name":{"id":"title","type":"title","title":{}}}}`

func newTestClient(t *testing.T, srv *httptest.Server, mutate func(*Options)) (*Client, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts := Options{
		BaseURL:              srv.URL,
		Version:              "2022-06-28",
		APIKey:               "secret_abc",
		MaxConcurrency:       2,
		MaxRetries:           3,
		HTTPClient:           srv.Client(),
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     50 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := NewClient(opts, zap.New(core).Sugar())
	require.NoError(t, err)
	return c, logs
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "https://api.notion.com"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Contains(t, errors.FlattenHints(err), "NOTION_TOKEN")
}

func TestRetrieveDatabase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/databases/0123", r.URL.Path)
		assert.Equal(t, "Bearer secret_abc", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		_, _ = w.Write([]byte(tasksResponse))
	}))
	defer srv.Close()

	c, logs := newTestClient(t, srv, nil)
	body, err := c.RetrieveDatabase(context.Background(), "0123")
	require.NoError(t, err)
	assert.JSONEq(t, tasksResponse, string(body))

	entries := logs.FilterMessage("Notion request").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 200, entries[0].ContextMap()["status"])
}

func TestRetrieveDatabase_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "0.02")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`))
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(tasksResponse))
		}
	}))
	defer srv.Close()

	c, logs := newTestClient(t, srv, nil)
	start := time.Now()
	body, err := c.RetrieveDatabase(context.Background(), "0123")
	require.NoError(t, err)
	assert.JSONEq(t, tasksResponse, string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "Retry-After honoured")

	retries := logs.FilterMessage("Notion request failed, retrying").All()
	require.Len(t, retries, 2)
	assert.EqualValues(t, 429, retries[0].ContextMap()["status"])
	assert.EqualValues(t, 502, retries[1].ContextMap()["status"])
}

func TestRetrieveDatabase_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, func(o *Options) { o.MaxRetries = 2 })
	_, err := c.RetrieveDatabase(context.Background(), "0123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestRetrieveDatabase_PermanentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"object":"error","status":404,"code":"object_not_found","message":"Could not find database"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsNotFoundError(err))
				assert.Contains(t, err.Error(), "object_not_found")
				assert.Contains(t, errors.FlattenHints(err), "share the database")
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "API token is invalid.")
				assert.Contains(t, errors.FlattenHints(err), "integration token")
			},
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"object":"error","status":400,"code":"validation_error","message":"path failed validation"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
			},
		},
		{
			name:   "non-json body",
			status: http.StatusConflict,
			body:   `<html>conflict</html>`,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "notion: HTTP 409")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := newTestClient(t, srv, nil)
			_, err := c.RetrieveDatabase(context.Background(), "0123")
			require.Error(t, err)
			assert.Equal(t, int32(1), calls.Load(), "not retried")
			tt.check(t, err)
		})
	}
}

func TestRetrieveDatabase_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, func(o *Options) { o.RetryMaxInterval = time.Minute })
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.RetrieveDatabase(ctx, "0123")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRetrieveDatabase_EscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(tasksResponse))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, nil)
	_, err := c.RetrieveDatabase(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestFetchAll(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)
		id := strings.TrimPrefix(r.URL.Path, "/v1/databases/")
		_, _ = w.Write([]byte(`{"id":"` + id + `","properties":{}}`))

		mu.Lock()
		inFlight--
		mu.Unlock()
	}))
	defer srv.Close()

	c, logs := newTestClient(t, srv, nil)
	targets := []Target{{"Tasks", "a"}, {"Projects", "b"}, {"People", "c"}, {"Notes", "d"}, {"Goals", "e"}}

	results, err := c.FetchAll(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, results, len(targets))
	for i, r := range results {
		assert.Equal(t, targets[i], r.Target)
		assert.JSONEq(t, `{"id":"`+targets[i].ID+`","properties":{}}`, string(r.Body))
	}
	assert.LessOrEqual(t, peak, 2, "concurrency bounded")
	assert.Equal(t, 1, logs.FilterMessage("Fetched database schemas").Len())
}

func TestFetchAll_FirstErrorWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(tasksResponse))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, nil)
	_, err := c.FetchAll(context.Background(), []Target{{"Tasks", "ok"}, {"Ghost", "missing"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch Ghost")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestRateLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tasksResponse))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, func(o *Options) { o.RequestsPerSecond = 20 })
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.RetrieveDatabase(context.Background(), "0123")
		require.NoError(t, err)
	}
	// burst of one: the second and third requests each wait 50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, 2*time.Second, parseRetryAfter("2", now))
	assert.Equal(t, 1500*time.Millisecond, parseRetryAfter("1.5", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1", now))
	assert.Equal(t, 10*time.Second, parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
}
