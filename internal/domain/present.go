package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// NearThe is the offset shown for places without a directional phrase.
	NearThe = "Near the"

	NoEarthquakesFound   = "No earthquakes found."
	NoInternetConnection = "No internet connection."

	dateLayout = "Jan 2, 2006"
	timeLayout = "3:04 PM"
)

// ColorBucket is the magnitude color class of an event.
type ColorBucket int

const (
	Bucket1 ColorBucket = iota + 1
	Bucket2
	Bucket3
	Bucket4
	Bucket5
	Bucket6
	Bucket7
	Bucket8
	Bucket9
	Bucket10Plus
)

var bucketHex = [...]string{
	Bucket1:      "#4A7BA7",
	Bucket2:      "#04B4B3",
	Bucket3:      "#10CAC9",
	Bucket4:      "#F5A623",
	Bucket5:      "#FF7D50",
	Bucket6:      "#FC6644",
	Bucket7:      "#E75F40",
	Bucket8:      "#E13A20",
	Bucket9:      "#D93218",
	Bucket10Plus: "#C03823",
}

// String returns the color resource name, e.g. "magnitude4".
func (b ColorBucket) String() string {
	switch {
	case b == Bucket10Plus:
		return "magnitude10plus"
	case b >= Bucket1 && b <= Bucket9:
		return "magnitude" + strconv.Itoa(int(b))
	default:
		return "unknown"
	}
}

// Hex returns the palette color for the bucket.
func (b ColorBucket) Hex() string {
	if b < Bucket1 || b > Bucket10Plus {
		return ""
	}
	return bucketHex[b]
}

// MarshalText encodes the bucket as its resource name.
func (b ColorBucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText decodes a resource name produced by MarshalText.
func (b *ColorBucket) UnmarshalText(text []byte) error {
	for c := Bucket1; c <= Bucket10Plus; c++ {
		if string(text) == c.String() {
			*b = c
			return nil
		}
	}
	return fmt.Errorf("unknown color bucket %q", text)
}

// MagnitudeColorBucket truncates m toward zero and maps it to a bucket.
// 0 and 1 share Bucket1; anything outside 0..9 after truncation is
// Bucket10Plus.
func MagnitudeColorBucket(m float64) ColorBucket {
	switch {
	case math.IsNaN(m):
		return Bucket1
	case m >= 10 || m <= -1:
		return Bucket10Plus
	}
	n := int(m)
	if n <= 1 {
		return Bucket1
	}
	return ColorBucket(n)
}

// FormatMagnitude renders m with exactly one decimal digit ("3.2").
func FormatMagnitude(m float64) string {
	return strconv.FormatFloat(m, 'f', 1, 64)
}

// PlaceParts is a place string split for two-line display.
type PlaceParts struct {
	Offset  string `json:"offset"`
	Primary string `json:"primary"`
}

// SplitPlace cuts place on the first "of ". "12km SW of Town" yields
// {"12km SW of", "Town"}; a place without it yields {"Near the", place}.
func SplitPlace(place string) PlaceParts {
	before, after, found := strings.Cut(place, "of ")
	if !found {
		return PlaceParts{Offset: NearThe, Primary: place}
	}
	return PlaceParts{Offset: before + "of", Primary: after}
}

// FormatDate renders epoch milliseconds as "Mar 3, 1984" in loc.
// A nil loc means time.Local.
func FormatDate(ms int64, loc *time.Location) string {
	return inLocation(ms, loc).Format(dateLayout)
}

// FormatTime renders epoch milliseconds as "4:30 PM" in loc.
// A nil loc means time.Local.
func FormatTime(ms int64, loc *time.Location) string {
	return inLocation(ms, loc).Format(timeLayout)
}

func inLocation(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}

// Presentation holds the display values derived from one earthquake.
type Presentation struct {
	Magnitude string      `json:"magnitude"`
	Color     ColorBucket `json:"color"`
	ColorHex  string      `json:"color_hex"`
	Offset    string      `json:"offset"`
	Primary   string      `json:"primary"`
	Date      string      `json:"date"`
	Time      string      `json:"time"`
	URL       string      `json:"url"`
}

// Present derives every display value for e. Nothing is stored on e.
func Present(e Earthquake, loc *time.Location) Presentation {
	bucket := MagnitudeColorBucket(e.Magnitude)
	parts := SplitPlace(e.Place)
	return Presentation{
		Magnitude: FormatMagnitude(e.Magnitude),
		Color:     bucket,
		ColorHex:  bucket.Hex(),
		Offset:    parts.Offset,
		Primary:   parts.Primary,
		Date:      FormatDate(e.TimeMillis, loc),
		Time:      FormatTime(e.TimeMillis, loc),
		URL:       e.URL,
	}
}

// EmptyStateMessage picks the message shown when there is nothing to list.
// An absent batch or a failed connectivity check reads as no connection.
func EmptyStateMessage(hasData, online bool) string {
	if !hasData || !online {
		return NoInternetConnection
	}
	return NoEarthquakesFound
}
