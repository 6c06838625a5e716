package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/usecase/business"
)

// CollectorWorker runs the collection pipeline on a fixed interval.
// An immediate pass runs at startup so a fresh deployment does not
// wait a full interval for its first data.
type CollectorWorker struct {
	useCase  *business.UseCase
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	running bool
	mu      sync.Mutex

	done   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCollectorWorker creates a new collection worker
func NewCollectorWorker(
	useCase *business.UseCase,
	collectorCfg *config.CollectorConfig,
	logger zerolog.Logger,
) *CollectorWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &CollectorWorker{
		useCase:  useCase,
		interval: collectorCfg.PollInterval,
		timeout:  collectorCfg.CycleTimeout,
		logger:   logger,
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the collection worker
func (w *CollectorWorker) Start() {
	w.logger.Info().
		Dur("interval", w.interval).
		Dur("timeout", w.timeout).
		Msg("Starting collector worker")

	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the collection worker
func (w *CollectorWorker) Stop() {
	w.logger.Info().Msg("Stopping collector worker")

	w.cancel()
	close(w.done)
	w.wg.Wait()

	w.logger.Info().Msg("Collector worker stopped")
}

// run is the main worker loop
func (w *CollectorWorker) run() {
	defer w.wg.Done()

	// First pass right away, then on the ticker.
	w.collect()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.collect()
		}
	}
}

// collect performs a single collection cycle. A cycle that outlives its
// interval is not stacked on top of by the next tick.
func (w *CollectorWorker) collect() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn().Msg("Previous collection cycle still running, skipping tick")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	w.logger.Debug().Msg("Starting collection cycle")

	report, err := w.useCase.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			w.logger.Warn().Err(err).Msg("Collection cycle cancelled or timed out")
		} else {
			w.logger.Error().Err(err).Msg("Collection cycle failed")
		}
		return
	}

	w.logger.Debug().
		Int("channels", len(report.Channels)).
		Int("failed", len(report.Failed())).
		Int("collected", report.TotalCollected()).
		Msg("Collection cycle completed")
}
