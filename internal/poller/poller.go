// Package poller drives periodic conversation fetches while a chat view is
// open. One poller per open conversation; it stops the moment the view closes.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Fetcher is the slice of the conversation client the poller drives.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Poller fires an immediate fetch on Start and then one per interval. Ticks
// overlap-protect: if a fetch is still in flight when the next tick fires,
// that tick is skipped rather than queued. Stop cancels the poller context,
// which guarantees an in-flight fetch cannot mutate conversation state after
// Stop returns.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	done     chan struct{}
	cancel   context.CancelFunc
	stopOnce sync.Once

	mu       sync.Mutex
	inFlight bool
}

func New(fetcher Fetcher, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
	log.Info().Dur("interval", p.interval).Msg("conversation poller started")
}

// Stop is idempotent and safe to call from any goroutine.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		close(p.done)
		log.Info().Msg("conversation poller stopped")
	})
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick launches one fetch unless the previous one is still running.
func (p *Poller) tick(ctx context.Context) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		log.Debug().Msg("poll tick skipped, previous fetch still in flight")
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.inFlight = false
			p.mu.Unlock()
		}()
		if err := p.fetcher.Fetch(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("poll fetch failed, keeping last known state")
		}
	}()
}
