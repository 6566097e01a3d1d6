package executor

import (
	"context"
	"sync"
	"time"

	"civicsync-client/clock"
)

// RetryFunc re-invokes a failed operation.
type RetryFunc func(ctx context.Context)

// Message is the content of the shared message slot.
type Message struct {
	ID        uint64        `json:"id"`
	Text      string        `json:"text"`
	Timeout   time.Duration `json:"timeout"`
	Retryable bool          `json:"retryable"`

	retry RetryFunc
}

// Slot is the single user-visible message area. The last writer wins; a
// message's timeout only ever hides that same message.
type Slot struct {
	clock clock.Clock

	// emit keeps observer calls in the order messages were shown and hidden.
	emit sync.Mutex

	mu        sync.Mutex
	seq       uint64
	current   *Message
	timer     clock.Timer
	observers []func(msg Message, visible bool)
}

// NewSlot returns an empty message slot using clk for timeouts.
func NewSlot(clk clock.Clock) *Slot {
	return &Slot{clock: clk}
}

// Show replaces the visible message. A zero timeout keeps it until it is
// replaced or dismissed.
func (s *Slot) Show(text string, timeout time.Duration) uint64 {
	return s.show(text, timeout, nil)
}

// ShowRetry is Show with a retry action attached.
func (s *Slot) ShowRetry(text string, timeout time.Duration, retry RetryFunc) uint64 {
	return s.show(text, timeout, retry)
}

func (s *Slot) show(text string, timeout time.Duration, retry RetryFunc) uint64 {
	s.emit.Lock()
	defer s.emit.Unlock()

	s.mu.Lock()
	s.seq++
	msg := &Message{
		ID:        s.seq,
		Text:      text,
		Timeout:   timeout,
		Retryable: retry != nil,
		retry:     retry,
	}
	s.current = msg
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	observers := s.observers
	s.mu.Unlock()

	for _, fn := range observers {
		fn(*msg, true)
	}

	if timeout > 0 {
		id := msg.ID
		timer := s.clock.AfterFunc(timeout, func() { s.expire(id) })
		s.mu.Lock()
		if s.current != nil && s.current.ID == id {
			s.timer = timer
		} else {
			timer.Stop()
		}
		s.mu.Unlock()
	}
	return msg.ID
}

func (s *Slot) expire(id uint64) {
	s.emit.Lock()
	defer s.emit.Unlock()

	s.mu.Lock()
	if s.current == nil || s.current.ID != id {
		s.mu.Unlock()
		return
	}
	msg := *s.current
	s.current = nil
	s.timer = nil
	observers := s.observers
	s.mu.Unlock()

	for _, fn := range observers {
		fn(msg, false)
	}
}

// Dismiss hides the visible message, if any.
func (s *Slot) Dismiss() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	id := s.current.ID
	s.mu.Unlock()
	s.expire(id)
}

// Current returns the visible message.
func (s *Slot) Current() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Message{}, false
	}
	return *s.current, true
}

// Retry runs the retry action of the visible message. It reports false when
// nothing retryable is shown.
func (s *Slot) Retry(ctx context.Context) bool {
	s.mu.Lock()
	var retry RetryFunc
	if s.current != nil {
		retry = s.current.retry
	}
	s.mu.Unlock()

	if retry == nil {
		return false
	}
	retry(ctx)
	return true
}

// OnChange registers fn for every show and hide.
func (s *Slot) OnChange(fn func(msg Message, visible bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}
