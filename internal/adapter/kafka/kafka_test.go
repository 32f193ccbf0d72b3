package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/quake-report/internal/config"
	"github.com/couchcryptid/quake-report/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	fetchedAt := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	q := domain.Earthquake{
		Magnitude:  7.2,
		Place:      "88 km SSW of Kokopo, Papua New Guinea",
		TimeMillis: 1700000000000,
		URL:        "https://earthquake.usgs.gov/earthquakes/eventpage/us7000aaaa",
	}

	msg, err := serializeToMessage(q, fetchedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("us7000aaaa"), msg.Key)
	assert.Equal(t, q.OccurredAt(), msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "magnitude_bucket", msg.Headers[0].Key)
	assert.Equal(t, []byte("magnitude7"), msg.Headers[0].Value)
	assert.Equal(t, "fetched_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(fetchedAt.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.InEpsilon(t, 7.2, decoded["mag"], 0.0001)
	assert.Equal(t, q.Place, decoded["place"])
	assert.InEpsilon(t, 1700000000000, decoded["time"], 0.0001)
	assert.Equal(t, q.URL, decoded["url"])
	assert.Equal(t, "magnitude7", decoded["color_bucket"])
	assert.Equal(t, "2024-04-26T15:10:00Z", decoded["fetched_at"])
}

func TestSerializeToMessage_KeyFallsBackToURL(t *testing.T) {
	msg, err := serializeToMessage(domain.Earthquake{Magnitude: 6, URL: "https://example"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []byte("https://example"), msg.Key)
}

func TestWriter_LoadBatch_Empty(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "earthquakes"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.LoadBatch(context.Background(), nil, time.Now()))
}
