package usgs

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultBaseURL is the FDSN event query endpoint.
const DefaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// Query describes a feed request. The format, event type and ordering are
// fixed; magnitude floor and result cap are tunable.
type Query struct {
	BaseURL      string
	MinMagnitude float64
	Limit        int
}

// DefaultQuery returns the ten most recent magnitude 6+ earthquakes.
func DefaultQuery() Query {
	return Query{BaseURL: DefaultBaseURL, MinMagnitude: 6, Limit: 10}
}

// URL renders the request URL, e.g.
// <base>?format=geojson&eventtype=earthquake&orderby=time&minmag=6&limit=10.
func (q Query) URL() (string, error) {
	base, err := parseHTTPURL(q.BaseURL)
	if err != nil {
		return "", err
	}
	if q.Limit < 1 {
		return "", fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidURL, q.Limit)
	}

	// url.Values.Encode sorts keys, so the query is written in order by hand.
	base.RawQuery = "format=geojson&eventtype=earthquake&orderby=time" +
		"&minmag=" + url.QueryEscape(strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64)) +
		"&limit=" + strconv.Itoa(q.Limit)
	return base.String(), nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	return u, nil
}
