// Package poller re-runs a refresh on a cadence that depends on whether the
// viewer is looking.
package poller

import (
	"context"
	"sync"
	"time"
)

// Cadences used by the board.
const (
	FeedVisible       = 10 * time.Second
	FeedHidden        = 30 * time.Second
	ModerationVisible = 6 * time.Second
	ModerationHidden  = 30 * time.Second
)

// Poller owns a single ticker. Changing visibility replaces the ticker
// instead of resetting it.
type Poller struct {
	visibleEvery time.Duration
	hiddenEvery  time.Duration
	tick         func(context.Context)

	mu      sync.Mutex
	ctx     context.Context
	visible bool
	ticker  *time.Ticker
	done    chan struct{}
}

func New(visibleEvery, hiddenEvery time.Duration, tick func(context.Context)) *Poller {
	return &Poller{
		visibleEvery: visibleEvery,
		hiddenEvery:  hiddenEvery,
		tick:         tick,
		visible:      true,
	}
}

// Start arms the ticker. Ticks stop when ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()
	p.Reset()
}

// Reset clears the active ticker and arms a new one for the current visibility.
func (p *Poller) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		return
	}
	p.stopLocked()

	every := p.hiddenEvery
	if p.visible {
		every = p.visibleEvery
	}
	t := time.NewTicker(every)
	done := make(chan struct{})
	p.ticker, p.done = t, done
	go p.loop(p.ctx, t, done)
}

// SetVisible switches cadence. Becoming visible also triggers an immediate tick.
func (p *Poller) SetVisible(visible bool) {
	p.mu.Lock()
	p.visible = visible
	ctx := p.ctx
	p.mu.Unlock()

	p.Reset()
	if visible && ctx != nil && ctx.Err() == nil {
		go p.tick(ctx)
	}
}

// Interval reports the cadence currently in effect.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible {
		return p.visibleEvery
	}
	return p.hiddenEvery
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	close(p.done)
	p.ticker, p.done = nil, nil
}

func (p *Poller) loop(ctx context.Context, t *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-t.C:
			select {
			case <-done:
				return
			default:
			}
			p.tick(ctx)
		}
	}
}
