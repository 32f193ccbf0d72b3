package domain

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// Earthquake is one seismic event read from the feed. It is a value type:
// a batch is replaced wholesale on the next load, never edited in place.
type Earthquake struct {
	Magnitude  float64 `json:"mag"`
	Place      string  `json:"place"`
	TimeMillis int64   `json:"time"` // epoch milliseconds, UTC
	URL        string  `json:"url"`  // event detail page
}

// OccurredAt returns the event time in UTC.
func (e Earthquake) OccurredAt() time.Time {
	return time.UnixMilli(e.TimeMillis).UTC()
}

// EventID returns the USGS event id, the last path segment of the detail URL
// (".../eventpage/us7000abcd" -> "us7000abcd").
func (e Earthquake) EventID() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
