package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/quake-report/internal/domain"
	"github.com/couchcryptid/quake-report/internal/observability"
)

// Fetcher retrieves the raw feed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Transformer converts a feed document into earthquakes. It may return
// partial results alongside an error.
type Transformer interface {
	Transform(body []byte) ([]domain.Earthquake, error)
}

// BatchLoader hands a loaded batch to a downstream sink.
type BatchLoader interface {
	LoadBatch(ctx context.Context, quakes []domain.Earthquake, fetchedAt time.Time) error
}

// Result is the outcome of one fetch-then-parse load.
type Result struct {
	// Earthquakes is the parsed batch in feed order. Nil when HasData is false.
	Earthquakes []domain.Earthquake
	// HasData is false when no document was retrieved or it was empty. A
	// document that parsed to zero records still has data.
	HasData   bool
	FetchedAt time.Time
	// Err is the fetch or parse failure, if any. A partial parse sets both
	// Err and Earthquakes.
	Err error
}

// Pipeline runs at most one load at a time. A newer load cancels the one in
// flight; only the latest load's result is stored and delivered.
type Pipeline struct {
	fetcher     Fetcher
	transformer Transformer
	loader      BatchLoader // optional
	logger      *slog.Logger
	metrics     *observability.Metrics
	url         string
	interval    time.Duration

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	latest  Result
	loaded  bool
	stopped bool
	baseCtx context.Context
	wg      sync.WaitGroup
}

// New creates a Pipeline loading url. interval > 0 enables periodic refresh
// in Run. loader may be nil.
func New(f Fetcher, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, url string, interval time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:     f,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		url:         url,
		interval:    interval,
		baseCtx:     context.Background(),
	}
}

// CheckReadiness returns nil once a load has produced data, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded || !p.latest.HasData {
		return errors.New("no earthquake data loaded yet")
	}
	return nil
}

// Load performs one fetch-then-parse unit of work synchronously. It makes
// exactly one request; failures degrade to a Result without data.
func (p *Pipeline) Load(ctx context.Context) Result {
	body, err := p.fetcher.Fetch(ctx, p.url)
	fetchedAt := domain.Clock().Now()
	if err != nil {
		p.metrics.LoadsTotal.WithLabelValues("no_data").Inc()
		return Result{FetchedAt: fetchedAt, Err: err}
	}

	quakes, err := p.transformer.Transform(body)
	if errors.Is(err, domain.ErrNoData) {
		p.metrics.LoadsTotal.WithLabelValues("no_data").Inc()
		return Result{FetchedAt: fetchedAt, Err: err}
	}
	if err != nil {
		p.metrics.LoadsTotal.WithLabelValues("partial").Inc()
	} else {
		p.metrics.LoadsTotal.WithLabelValues("data").Inc()
	}
	return Result{Earthquakes: quakes, HasData: true, FetchedAt: fetchedAt, Err: err}
}

// Start runs Load on a background goroutine and reports its result to done.
// A load already in flight is cancelled and its result discarded; done is
// never called for a cancelled load. Start is a no-op once Run has returned.
func (p *Pipeline) Start(ctx context.Context, done func(Result)) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	if p.cancel != nil {
		p.cancel()
		p.metrics.LoadsSuperseded.Inc()
		p.logger.Debug("superseding in-flight load")
	}
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()

		res := p.Load(ctx)

		p.mu.Lock()
		if gen != p.gen || ctx.Err() != nil {
			p.mu.Unlock()
			return
		}
		p.cancel = nil
		p.store(res)
		p.mu.Unlock()

		p.publish(ctx, res)
		if done != nil {
			done(res)
		}
	}()
}

// Refresh starts a load bound to the Run context, superseding any in flight.
func (p *Pipeline) Refresh() {
	p.mu.Lock()
	ctx := p.baseCtx
	p.mu.Unlock()
	p.Start(ctx, nil)
}

// Latest returns the most recently completed load. ok is false before the
// first load completes or after Reset.
func (p *Pipeline) Latest() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.latest
	res.Earthquakes = slices.Clone(res.Earthquakes)
	return res, p.loaded
}

// Reset drops the stored batch and cancels any load in flight.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	p.latest = Result{}
	p.loaded = false
	p.metrics.EarthquakesLoaded.Set(0)
}

// Run loads once, then refreshes every interval until ctx is cancelled.
// On return no load is left running.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "url", p.url, "refresh_interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.mu.Lock()
	p.baseCtx = ctx
	p.mu.Unlock()

	p.Refresh()

	if p.interval > 0 {
		ticker := domain.Clock().NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return p.stop(ctx)
			case <-ticker.Chan():
				p.Refresh()
			}
		}
	}

	<-ctx.Done()
	return p.stop(ctx)
}

func (p *Pipeline) stop(ctx context.Context) error {
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	p.mu.Lock()
	p.stopped = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

// store replaces the latest batch wholesale. Callers hold p.mu.
func (p *Pipeline) store(res Result) {
	p.latest = res
	p.loaded = true
	p.metrics.EarthquakesLoaded.Set(float64(len(res.Earthquakes)))
	if res.HasData {
		p.metrics.LastSuccessUnixTime.Set(float64(res.FetchedAt.Unix()))
	}

	attrs := []any{"has_data", res.HasData, "count", len(res.Earthquakes)}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}
	p.logger.Info("load finished", attrs...)
}

// publish hands a non-empty batch to the sink. Sink failures never fail the
// load.
func (p *Pipeline) publish(ctx context.Context, res Result) {
	if p.loader == nil || len(res.Earthquakes) == 0 {
		return
	}
	if err := p.loader.LoadBatch(ctx, res.Earthquakes, res.FetchedAt); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish batch failed", "error", err, "batch_size", len(res.Earthquakes))
	}
}
