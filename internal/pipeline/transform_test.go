package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/quake-report/internal/domain"
	"github.com/couchcryptid/quake-report/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedTransformer_Transform(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := NewTransformer(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	quakes, err := tfm.Transform([]byte(`{"features":[{"properties":{"mag":6.1,"place":"10km N of Town","time":1388600840000,"url":"https://example/event/1"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, []domain.Earthquake{
		{Magnitude: 6.1, Place: "10km N of Town", TimeMillis: 1388600840000, URL: "https://example/event/1"},
	}, quakes)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.ParseErrors), 0)
}

func TestFeedTransformer_EmptyBodyIsNotAParseError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := NewTransformer(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	quakes, err := tfm.Transform(nil)
	require.ErrorIs(t, err, domain.ErrNoData)
	assert.Nil(t, quakes)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.ParseErrors), 0)
}

func TestFeedTransformer_MalformedCounts(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := NewTransformer(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	quakes, err := tfm.Transform([]byte("not json"))
	require.ErrorIs(t, err, domain.ErrMalformedFeed)
	assert.NotNil(t, quakes)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ParseErrors), 0)
}
