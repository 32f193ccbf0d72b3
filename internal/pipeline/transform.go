package pipeline

import (
	"errors"
	"log/slog"

	"github.com/couchcryptid/quake-report/internal/domain"
	"github.com/couchcryptid/quake-report/internal/observability"
)

// FeedTransformer implements Transformer using domain.ParseFeed. Parse
// failures are logged and counted; the accumulated records still flow on.
type FeedTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a FeedTransformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *FeedTransformer {
	return &FeedTransformer{logger: logger, metrics: metrics}
}

func (t *FeedTransformer) Transform(body []byte) ([]domain.Earthquake, error) {
	quakes, err := domain.ParseFeed(body)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoData):
		t.logger.Debug("feed body empty, nothing to parse")
	default:
		t.metrics.ParseErrors.Inc()
		t.logger.Warn("problem parsing the earthquake feed",
			"error", err,
			"parsed", len(quakes),
		)
	}
	return quakes, err
}
