// Package domain models USGS earthquake feed data and the presentation values
// derived from it.
//
// # Data Source
//
// Records come from the USGS FDSN event web service, queried as GeoJSON:
//
//	https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&eventtype=earthquake&orderby=time&minmag=6&limit=10
//
// The feed is pre-sorted by time (newest first) and capped by the limit
// parameter. Only four properties of each feature are read:
//
//	{"features": [{"properties": {"mag": 6.1, "place": "10km N of Town",
//	                              "time": 1388600840000, "url": "https://..."}}]}
//
// # Parsing Policy
//
// An empty body means "no data" and is reported as [ErrNoData], distinct from
// a document with zero features. The first malformed feature stops parsing;
// the records accumulated before it are returned alongside an error wrapping
// [ErrMalformedFeed]. See [ParseFeed].
//
// # Place Strings
//
// USGS places usually carry a directional offset: "12km SW of Example City".
// [SplitPlace] cuts on the first literal "of " so the offset ("12km SW of")
// and the primary location ("Example City") render separately. Places without
// it get the offset "Near the". The match is purely textual, so any word
// ending in "of" followed by a space also splits ("Hoof Lake" -> "Hoof", "Lake").
//
// # Magnitude Colors
//
// Magnitudes truncate toward zero into ten color buckets:
//
//	0–1 magnitude1 | 2 magnitude2 | … | 9 magnitude9 | ≥10 magnitude10plus
//
// Date and time render as "Mar 3, 1984" and "4:30 PM" in the display
// timezone.
package domain
