package usgs

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_URL_Default(t *testing.T) {
	got, err := DefaultQuery().URL()
	require.NoError(t, err)
	assert.Equal(t,
		"https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&eventtype=earthquake&orderby=time&minmag=6&limit=10",
		got)
}

func TestQuery_URL_Custom(t *testing.T) {
	got, err := Query{BaseURL: "http://localhost:5001/query", MinMagnitude: 4.5, Limit: 25}.URL()
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "localhost:5001", u.Host)
	assert.Equal(t, "4.5", u.Query().Get("minmag"))
	assert.Equal(t, "25", u.Query().Get("limit"))
	assert.Equal(t, "time", u.Query().Get("orderby"))
	assert.Equal(t, "earthquake", u.Query().Get("eventtype"))
}

func TestQuery_URL_Invalid(t *testing.T) {
	tests := []Query{
		{BaseURL: "", MinMagnitude: 6, Limit: 10},
		{BaseURL: "earthquake.usgs.gov/query", MinMagnitude: 6, Limit: 10},
		{BaseURL: "ftp://earthquake.usgs.gov/query", MinMagnitude: 6, Limit: 10},
		{BaseURL: DefaultBaseURL, MinMagnitude: 6, Limit: 0},
	}
	for _, q := range tests {
		_, err := q.URL()
		require.ErrorIs(t, err, ErrInvalidURL, "query %+v", q)
	}
}
