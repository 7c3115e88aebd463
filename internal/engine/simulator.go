package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
)

// Simulator periodically perturbs every instrument's price by a random
// percentage drawn uniformly from [-maxDelta, +maxDelta]. It knows nothing
// about accounts or orders.
type Simulator struct {
	interval time.Duration
	maxDelta float64
	registry *domain.Registry
	logger   *slog.Logger

	tickMu sync.Mutex // serializes ticks and guards rng
	rng    *rand.Rand
	ticks  atomic.Int64

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSimulator creates a stopped Simulator. A nil rng is replaced by a
// randomly seeded one.
func NewSimulator(
	interval time.Duration,
	maxDeltaPercent float64,
	registry *domain.Registry,
	rng *rand.Rand,
	logger *slog.Logger,
) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		interval: interval,
		maxDelta: maxDeltaPercent,
		registry: registry,
		logger:   logger,
		rng:      rng,
		done:     make(chan struct{}),
	}
}

// Start launches the background goroutine that ticks at the configured
// interval. It runs until ctx is cancelled or Stop is called. Only the
// first call has any effect, and Start after Stop does nothing.
func (s *Simulator) Start(ctx context.Context) {
	s.once.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		go s.run(ctx)
	})
}

// Stop cancels the loop and waits for it to exit. A tick already in
// progress completes first; no tick starts after Stop returns. Stop may be
// called more than once, and before Start.
func (s *Simulator) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Simulator) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("market simulator started",
		slog.Duration("interval", s.interval),
		slog.Float64("max_delta_percent", s.maxDelta),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("market simulator stopped", slog.Int64("ticks", s.ticks.Load()))
			return
		case <-ticker.C:
			// A tick and a cancellation can be ready together; prefer
			// stopping so that no tick begins after cancellation.
			if ctx.Err() != nil {
				continue
			}
			s.Tick()
		}
	}
}

// Tick applies one random price move to every instrument. Each instrument
// is updated atomically on its own; instruments are not updated together.
func (s *Simulator) Tick() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	floored := 0
	for _, inst := range s.registry.Instruments() {
		delta := decimal.NewFromFloat((s.rng.Float64()*2 - 1) * s.maxDelta).Round(4)
		price, atFloor := inst.ApplyDelta(delta)
		if atFloor {
			floored++
		}
		s.logger.Debug("price updated",
			slog.String("symbol", inst.Symbol),
			slog.String("delta_percent", delta.String()),
			slog.String("price", price.String()),
		)
	}

	n := s.ticks.Add(1)
	if floored > 0 {
		s.logger.Warn("prices clamped to floor",
			slog.Int64("tick", n),
			slog.Int("instruments", floored),
		)
	}
}

// TickCount returns the number of completed ticks.
func (s *Simulator) TickCount() int64 {
	return s.ticks.Load()
}
