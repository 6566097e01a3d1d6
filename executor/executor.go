// Package executor wraps outbound network calls with the shared busy
// indicator, the shared message slot and user-invocable retries.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civicsync-client/clock"
	"civicsync-client/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// historySize bounds the operation lifecycle table.
const historySize = 50

// Notice is a message to show after an operation completes. An empty Text
// shows nothing.
type Notice struct {
	Text    string
	Timeout time.Duration
}

// Request describes one retryable operation.
type Request[T any] struct {
	// Name identifies the operation in logs and in the lifecycle table.
	Name string

	// Call performs the network operation.
	Call func(ctx context.Context) (T, error)

	// OnSuccess applies the result and returns an optional transient notice.
	OnSuccess func(result T) Notice

	// OnFailure returns the failure message. It may also apply a fallback.
	// Without it the message is "<Name> failed" with no timeout.
	OnFailure func(err error) Notice

	// Retry replaces the default retry, which re-runs this request unchanged.
	Retry RetryFunc
}

// Operation is one entry of the lifecycle table.
type Operation struct {
	ID       uuid.UUID           `json:"id"`
	Name     string              `json:"name"`
	State    models.RequestState `json:"state"`
	Reason   string              `json:"reason,omitempty"`
	Started  time.Time           `json:"started"`
	Finished time.Time           `json:"finished,omitempty"`
}

// Executor owns the busy indicator, the message slot and the lifecycle table.
type Executor struct {
	clock    clock.Clock
	timeout  time.Duration
	busy     *Indicator
	messages *Slot

	mu  sync.Mutex
	ops []*Operation
}

// New returns an Executor. Each call gets its own timeout; a zero timeout
// disables it.
func New(clk clock.Clock, timeout time.Duration) *Executor {
	return &Executor{
		clock:    clk,
		timeout:  timeout,
		busy:     &Indicator{},
		messages: NewSlot(clk),
	}
}

// Busy returns the shared busy indicator.
func (e *Executor) Busy() *Indicator { return e.busy }

// Messages returns the shared message slot.
func (e *Executor) Messages() *Slot { return e.messages }

// Run performs req. The busy indicator is released on every exit path,
// including a panicking call. Failures are surfaced through the message
// slot with a retry action and returned; they never panic past Run.
func Run[T any](ctx context.Context, e *Executor, req Request[T]) (T, error) {
	op := e.begin(req.Name)
	e.busy.begin()
	defer e.busy.end()

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	result, err := invoke(callCtx, req.Call)
	if err != nil {
		e.finish(op, err)
		log.WithFields(log.Fields{
			"operation": req.Name,
			"id":        op.ID,
		}).WithError(err).Error("request failed")

		notice := Notice{Text: req.Name + " failed"}
		if req.OnFailure != nil {
			notice = req.OnFailure(err)
		}
		retry := req.Retry
		if retry == nil {
			retry = func(ctx context.Context) { _, _ = Run(ctx, e, req) }
		}
		if notice.Text != "" {
			e.messages.ShowRetry(notice.Text, notice.Timeout, retry)
		}
		return result, err
	}

	e.finish(op, nil)
	if req.OnSuccess != nil {
		if notice := req.OnSuccess(result); notice.Text != "" {
			e.messages.Show(notice.Text, notice.Timeout)
		}
	}
	return result, nil
}

// callContext detaches the call from the caller's cancellation: an in-flight
// request is never aborted, only superseded.
func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if e.timeout <= 0 {
		return detached, func() {}
	}
	return context.WithTimeout(detached, e.timeout)
}

func invoke[T any](ctx context.Context, call func(context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return call(ctx)
}

func (e *Executor) begin(name string) *Operation {
	op := &Operation{
		ID:      uuid.New(),
		Name:    name,
		State:   models.RequestPending,
		Started: e.clock.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops = append(e.ops, op)
	if len(e.ops) > historySize {
		e.ops = e.ops[len(e.ops)-historySize:]
	}
	return op
}

func (e *Executor) finish(op *Operation, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	op.Finished = e.clock.Now()
	if err != nil {
		op.State = models.RequestFailed
		op.Reason = err.Error()
		return
	}
	op.State = models.RequestSucceeded
}

// Operations returns the most recent operations, oldest first.
func (e *Executor) Operations() []Operation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Operation, len(e.ops))
	for i, op := range e.ops {
		out[i] = *op
	}
	return out
}

// Pending returns the operations that have not finished yet.
func (e *Executor) Pending() []Operation {
	var pending []Operation
	for _, op := range e.Operations() {
		if op.State == models.RequestPending {
			pending = append(pending, op)
		}
	}
	return pending
}
