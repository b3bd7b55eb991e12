package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quickserve/dispatch/internal/domain/model"
)

// Fetcher retrieves the current active-order backlog for the actor scope.
type Fetcher interface {
	ActiveOrders(ctx context.Context) ([]model.DeliveryOrder, error)
}

// Gate reports whether polling may proceed. Riders return false while offline
// or unauthenticated; the poller then idles without ticking the detector.
type Gate func() bool

// Handler receives new-order events produced by the detector.
type Handler func(NewOrders)

// Poller fetches snapshots on a fixed interval and feeds them through a
// detector. A failed fetch keeps the previous snapshot and never stops the
// loop; the next tick retries on schedule, there is no tight retry.
type Poller struct {
	fetcher  Fetcher
	detector *Detector
	gate     Gate
	handler  Handler
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPoller constructs a poller. A nil gate means always open.
func NewPoller(fetcher Fetcher, gate Gate, handler Handler, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if gate == nil {
		gate = func() bool { return true }
	}
	return &Poller{
		fetcher:  fetcher,
		detector: NewDetector(),
		gate:     gate,
		handler:  handler,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background poll loop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(runCtx)
}

// Stop waits for the loop to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.gate() {
		// The next snapshot after going back online is a fresh baseline.
		p.detector.Reset()
		return
	}

	orders, err := p.fetcher.ActiveOrders(ctx)
	if err != nil {
		p.logger.Warn("snapshot fetch failed", slog.String("error", err.Error()))
		return
	}

	snapshot := model.NewSnapshot(orders, time.Now())
	if event, ok := p.detector.Observe(snapshot); ok && p.handler != nil {
		p.handler(event)
	}
}
