package usgs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/quake-report/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	feedBody          = `{"features":[{"properties":{"mag":6.1,"place":"10km N of Town","time":1388600840000,"url":"https://example/event/1"}}]}`
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(connectTimeout, readTimeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Transport: newTransport(connectTimeout, readTimeout)},
		metrics:    observability.NewMetricsForTesting(),
		logger:     discardLogger(),
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "geojson", r.URL.Query().Get("format"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	c := testClient(time.Second, time.Second)
	body, err := c.Fetch(context.Background(), srv.URL+"/query?format=geojson")
	require.NoError(t, err)

	assert.JSONEq(t, feedBody, string(body))
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("success")), 0)
}

func TestClient_Fetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(time.Second, time.Second)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestClient_Fetch_Non200(t *testing.T) {
	for _, code := range []int{http.StatusInternalServerError, http.StatusNotFound, http.StatusNoContent} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			c := testClient(time.Second, time.Second)
			body, err := c.Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Nil(t, body)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, code, statusErr.Code)
			assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("status_error")), 0)
		})
	}
}

func TestClient_Fetch_InvalidURL(t *testing.T) {
	c := testClient(time.Second, time.Second)

	for _, raw := range []string{"", "not a url", "ftp://example.com/feed", "http://"} {
		t.Run(raw, func(t *testing.T) {
			body, err := c.Fetch(context.Background(), raw)
			require.ErrorIs(t, err, ErrInvalidURL)
			assert.Nil(t, body)
		})
	}
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := testClient(time.Second, time.Second)
	_, err := c.Fetch(context.Background(), addr)
	require.ErrorIs(t, err, ErrTransport)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("transport_error")), 0)
}

func TestClient_Fetch_ReadTimeoutBeforeHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(time.Second, 50*time.Millisecond)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTransport)
}

func TestClient_Fetch_ReadTimeoutMidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"features":[`))
		w.(http.Flusher).Flush()
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := testClient(time.Second, 50*time.Millisecond)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTransport)
	assert.Nil(t, body)
}

func TestClient_Fetch_SlowButSteadyBodySucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		for _, chunk := range []string{`{"features":`, `[]`, `}`} {
			_, _ = w.Write([]byte(chunk))
			w.(http.Flusher).Flush()
			time.Sleep(30 * time.Millisecond)
		}
	}))
	defer srv.Close()

	c := testClient(time.Second, 200*time.Millisecond)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"features":[]}`, string(body))
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(time.Second, time.Second)
	_, err := c.Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, ErrTransport)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("cancelled")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("transport_error")), 0)
}

func TestClient_Fetch_CancelledInFlightLogsAtDebug(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	var logs bytes.Buffer
	c := testClient(time.Second, 5*time.Second)
	c.logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := c.Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, logs.String(), "level=DEBUG")
	assert.Contains(t, logs.String(), "feed request cancelled")
	assert.NotContains(t, logs.String(), "level=ERROR")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("cancelled")), 0)
}

func TestNewClient(t *testing.T) {
	c := NewClient(15*time.Second, 10*time.Second, observability.NewMetricsForTesting(), discardLogger())
	tr, ok := c.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, tr.TLSHandshakeTimeout)
	assert.True(t, tr.DisableKeepAlives)
}
