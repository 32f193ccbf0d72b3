package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrNoData reports an empty or absent feed body. Nothing was parsed.
	ErrNoData = errors.New("no feed data")

	// ErrMalformedFeed reports a structural or decoding failure. Records
	// parsed before the failure are still returned.
	ErrMalformedFeed = errors.New("malformed feed")
)

// ParseFeed decodes a USGS GeoJSON document into earthquakes, preserving the
// order of the features array.
//
// An empty body returns nil and ErrNoData. Any other failure stops at the
// first bad feature and returns the records accumulated so far (never nil)
// together with an error wrapping ErrMalformedFeed.
func ParseFeed(body []byte) ([]Earthquake, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrNoData
	}

	quakes := []Earthquake{}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return quakes, fmt.Errorf("%w: decode document: %w", ErrMalformedFeed, err)
	}
	rawFeatures, ok := root["features"]
	if !ok {
		return quakes, fmt.Errorf("%w: missing features array", ErrMalformedFeed)
	}
	var features []json.RawMessage
	if err := json.Unmarshal(rawFeatures, &features); err != nil || features == nil {
		return quakes, fmt.Errorf("%w: features is not an array", ErrMalformedFeed)
	}

	for i, raw := range features {
		q, err := parseFeature(raw)
		if err != nil {
			return quakes, fmt.Errorf("%w: feature %d: %w", ErrMalformedFeed, i, err)
		}
		quakes = append(quakes, q)
	}
	return quakes, nil
}

func parseFeature(raw json.RawMessage) (Earthquake, error) {
	feature, err := object(raw)
	if err != nil {
		return Earthquake{}, err
	}
	props, err := object(feature["properties"])
	if err != nil {
		return Earthquake{}, fmt.Errorf("properties: %w", err)
	}

	mag, err := floatField(props, "mag")
	if err != nil {
		return Earthquake{}, err
	}
	place, err := stringField(props, "place")
	if err != nil {
		return Earthquake{}, err
	}
	millis, err := int64Field(props, "time")
	if err != nil {
		return Earthquake{}, err
	}
	u, err := stringField(props, "url")
	if err != nil {
		return Earthquake{}, err
	}

	return Earthquake{Magnitude: mag, Place: place, TimeMillis: millis, URL: u}, nil
}

// object decodes raw as a JSON object. A missing value or null is an error.
func object(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if isNull(raw) {
		return nil, errors.New("expected object, got null")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("expected object: %w", err)
	}
	return m, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func stringField(m map[string]json.RawMessage, key string) (string, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("%s: missing", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: expected string: %w", key, err)
	}
	return s, nil
}

// number reads a JSON number or a numeric string.
func number(m map[string]json.RawMessage, key string) (string, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("%s: missing", key)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: expected number", key)
	}
	return s, nil
}

func floatField(m map[string]json.RawMessage, key string) (float64, error) {
	s, err := number(m, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// int64Field accepts integers and truncates numbers with a fraction.
func int64Field(m map[string]json.RawMessage, key string) (int64, error) {
	s, err := number(m, key)
	if err != nil {
		return 0, err
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: expected integer", key)
	}
	return int64(f), nil
}
