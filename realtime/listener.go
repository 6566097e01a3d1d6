// Package realtime listens for issues created by other clients and merges
// them into the local snapshot.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"civicsync-client/clock"
	"civicsync-client/metrics"
	"civicsync-client/models"

	"github.com/apex/log"
	"github.com/avast/retry-go"
)

// EventNewIssue is the only event the client reacts to.
const EventNewIssue = "new_issue"

const (
	dialAttempts = 5
	maxDelay     = 30 * time.Second
)

// State is the connection state of the listener.
type State string

const (
	Disconnected State = "disconnected"
	Connected    State = "connected"
)

// ErrIgnoredEvent is returned by DecodeEvent for well-formed events of
// another type.
var ErrIgnoredEvent = errors.New("realtime: ignored event")

// Subscriber opens one connection to the realtime channel. The returned
// channel carries raw event payloads and is closed when the connection ends.
type Subscriber interface {
	Name() string
	Dial(ctx context.Context) (<-chan []byte, error)
}

// Listener keeps a Subscriber connected and decodes what it receives.
type Listener struct {
	sub     Subscriber
	clock   clock.Clock
	backoff time.Duration
	issues  chan models.Issue

	emit      sync.Mutex
	mu        sync.Mutex
	state     State
	observers []func(State)
}

// NewListener returns a listener. backoff is the first reconnect delay.
func NewListener(sub Subscriber, clk clock.Clock, backoff time.Duration) *Listener {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Listener{
		sub:     sub,
		clock:   clk,
		backoff: backoff,
		issues:  make(chan models.Issue, 16),
		state:   Disconnected,
	}
}

// Issues is the stream of decoded new issues. It is closed when Run returns.
func (l *Listener) Issues() <-chan models.Issue { return l.issues }

// State returns the connection state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// OnStateChange registers fn for every state transition.
func (l *Listener) OnStateChange(fn func(State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

func (l *Listener) setState(s State) {
	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	if l.state == s {
		l.mu.Unlock()
		return
	}
	l.state = s
	observers := l.observers
	l.mu.Unlock()

	if s == Connected {
		metrics.RealtimeConnected.Set(1)
	} else {
		metrics.RealtimeConnected.Set(0)
	}
	for _, fn := range observers {
		fn(s)
	}
}

// Run connects and reconnects until ctx is done. Connection problems are
// only logged; the rest of the client keeps working without updates.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.issues)
	logger := log.WithField("transport", l.sub.Name())

	for {
		var payloads <-chan []byte
		err := retry.Do(
			func() error {
				ch, err := l.sub.Dial(ctx)
				if err != nil {
					return err
				}
				payloads = ch
				return nil
			},
			retry.Context(ctx),
			retry.Attempts(dialAttempts),
			retry.Delay(l.backoff),
			retry.MaxDelay(maxDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				logger.WithError(err).Warnf("realtime connect attempt %d failed", n+1)
			}),
		)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logger.WithError(err).Error("realtime channel unavailable, continuing without live updates")
			select {
			case <-ctx.Done():
				return nil
			case <-l.clock.After(maxDelay):
			}
			continue
		}

		logger.Info("realtime connected")
		l.setState(Connected)
		l.consume(ctx, payloads)
		l.setState(Disconnected)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("realtime connection lost, reconnecting")
	}
}

func (l *Listener) consume(ctx context.Context, payloads <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-payloads:
			if !ok {
				return
			}
			issue, err := DecodeEvent(raw)
			if errors.Is(err, ErrIgnoredEvent) {
				continue
			}
			if err != nil {
				metrics.RealtimeEventsTotal.WithLabelValues("malformed").Inc()
				log.WithError(err).Warn("skipping malformed realtime event")
				continue
			}
			select {
			case l.issues <- issue:
			case <-ctx.Done():
				return
			}
		}
	}
}

// DecodeEvent accepts either an envelope {"event": ..., "data": {...}} or a
// bare issue object.
func DecodeEvent(raw []byte) (models.Issue, error) {
	raw = bytes.TrimSpace(raw)
	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return models.Issue{}, fmt.Errorf("decode event: %w", err)
	}

	body := raw
	if envelope.Event != "" {
		if envelope.Event != EventNewIssue {
			return models.Issue{}, ErrIgnoredEvent
		}
		body = envelope.Data
	}
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return models.Issue{}, errors.New("decode event: empty payload")
	}

	var issue models.Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return models.Issue{}, fmt.Errorf("decode issue: %w", err)
	}
	return issue, nil
}
