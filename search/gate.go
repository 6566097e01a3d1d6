// Package search implements the debounced address search and its
// suggestion list.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"civicsync-client/clock"
)

// DefaultDebounce is the quiet period before a query is sent.
const DefaultDebounce = 300 * time.Millisecond

// Gate debounces search input. Only the latest text typed within one quiet
// period is searched, and each query carries a version so late results can
// be recognised as stale.
type Gate struct {
	clock    clock.Clock
	delay    time.Duration
	onSearch func(ctx context.Context, text string, version uint64)
	onClear  func()

	mu      sync.Mutex
	version uint64
	timer   clock.Timer
}

// NewGate returns a gate that calls onSearch once input has been quiet for
// delay, and onClear as soon as the input becomes blank.
func NewGate(clk clock.Clock, delay time.Duration, onSearch func(ctx context.Context, text string, version uint64), onClear func()) *Gate {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Gate{clock: clk, delay: delay, onSearch: onSearch, onClear: onClear}
}

// Input records a change of the search text.
func (g *Gate) Input(ctx context.Context, text string) {
	g.mu.Lock()
	g.version++
	g.stopLocked()

	if strings.TrimSpace(text) == "" {
		g.mu.Unlock()
		if g.onClear != nil {
			g.onClear()
		}
		return
	}

	version := g.version
	g.timer = g.clock.AfterFunc(g.delay, func() { g.fire(ctx, text, version) })
	g.mu.Unlock()
}

func (g *Gate) fire(ctx context.Context, text string, version uint64) {
	g.mu.Lock()
	if version != g.version {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.mu.Unlock()

	g.onSearch(ctx, text, version)
}

// Cancel drops the pending query and invalidates any query in flight.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.version++
	g.stopLocked()
}

// Current reports whether version is still the latest query.
func (g *Gate) Current(version uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return version == g.version
}

// Pending reports whether a query is waiting for its quiet period to end.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}

func (g *Gate) stopLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
