package executor

import (
	"sync"

	"civicsync-client/metrics"
)

// Indicator is the single shared busy flag. Overlapping operations share one
// visible state: it turns on with the first pending operation and clears
// when the last one finishes.
type Indicator struct {
	// emit serializes each flip with its notification.
	emit sync.Mutex

	mu        sync.Mutex
	inFlight  int
	observers []func(busy bool)
}

// Busy reports the visible state.
func (b *Indicator) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight > 0
}

// OnChange registers fn to be called whenever the visible state flips.
func (b *Indicator) OnChange(fn func(busy bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

func (b *Indicator) begin() {
	b.emit.Lock()
	defer b.emit.Unlock()

	b.mu.Lock()
	b.inFlight++
	flipped := b.inFlight == 1
	observers := b.observers
	b.mu.Unlock()

	metrics.OperationsInFlight.Inc()
	if flipped {
		notify(observers, true)
	}
}

func (b *Indicator) end() {
	b.emit.Lock()
	defer b.emit.Unlock()

	b.mu.Lock()
	if b.inFlight > 0 {
		b.inFlight--
	}
	flipped := b.inFlight == 0
	observers := b.observers
	b.mu.Unlock()

	metrics.OperationsInFlight.Dec()
	if flipped {
		notify(observers, false)
	}
}

func notify(observers []func(bool), busy bool) {
	for _, fn := range observers {
		fn(busy)
	}
}
