// Command quakereport fetches the USGS feed once and prints the most recent
// significant earthquakes as a table.
//
// Usage:
//
//	go run ./cmd/quakereport -minmag 6 -limit 10 -tz America/Los_Angeles
//	go run ./cmd/quakereport -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/quake-report/internal/adapter/usgs"
	"github.com/couchcryptid/quake-report/internal/domain"
	"github.com/couchcryptid/quake-report/internal/observability"
	"github.com/couchcryptid/quake-report/internal/pipeline"
	"github.com/samber/lo"
)

func main() {
	if err := run(os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(out io.Writer) error {
	def := usgs.DefaultQuery()
	baseURL := flag.String("url", def.BaseURL, "FDSN event query endpoint")
	minMag := flag.Float64("minmag", def.MinMagnitude, "minimum magnitude")
	limit := flag.Int("limit", def.Limit, "maximum number of events")
	tz := flag.String("tz", "Local", "IANA timezone for dates and times")
	asJSON := flag.Bool("json", false, "print JSON instead of a table")
	verbose := flag.Bool("v", false, "log fetch details to stderr")
	flag.Parse()

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("invalid -tz: %w", err)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	metrics := observability.NewMetrics()

	q := usgs.Query{BaseURL: *baseURL, MinMagnitude: *minMag, Limit: *limit}
	feedURL, err := q.URL()
	if err != nil {
		return err
	}
	probe, err := usgs.NewProbe(feedURL, 3*time.Second)
	if err != nil {
		return err
	}

	client := usgs.NewClient(15*time.Second, 10*time.Second, metrics, logger)
	p := pipeline.New(client, pipeline.NewTransformer(logger, metrics), nil, logger, metrics, feedURL, 0)

	ctx := context.Background()
	res := p.Load(ctx)

	views := lo.Map(res.Earthquakes, func(e domain.Earthquake, _ int) domain.Presentation {
		return domain.Present(e, loc)
	})

	var message string
	if len(views) == 0 {
		message = domain.EmptyStateMessage(res.HasData, probe.Available(ctx))
	}

	if *asJSON {
		return writeJSON(out, views, message)
	}
	if message != "" {
		_, err := fmt.Fprintln(out, message)
		return err
	}
	return writeTable(out, views)
}

type report struct {
	Earthquakes []domain.Presentation `json:"earthquakes"`
	Message     string                `json:"message,omitempty"`
}

func writeJSON(out io.Writer, views []domain.Presentation, message string) error {
	if views == nil {
		views = []domain.Presentation{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Earthquakes: views, Message: message})
}

func writeTable(out io.Writer, views []domain.Presentation) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MAG\tCOLOR\tOFFSET\tLOCATION\tDATE\tTIME")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", v.Magnitude, v.ColorHex, v.Offset, v.Primary, v.Date, v.Time)
	}
	return tw.Flush()
}
