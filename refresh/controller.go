// Package refresh loads the issues around the map center under the current
// filters, applying only the newest response.
package refresh

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"civicsync-client/clock"
	"civicsync-client/executor"
	"civicsync-client/metrics"
	"civicsync-client/models"
	"civicsync-client/snapshot"

	"github.com/apex/log"
)

const (
	LoadedTimeout = 2 * time.Second
	FailedText    = "Failed to load issues"

	// EmptyAreaDelay is how long after start the empty-area hint waits.
	EmptyAreaDelay = 3 * time.Second
	EmptyAreaText  = "No issues found in this area. Try adjusting the radius or be the first to report!"

	DefaultSettleDelay = 600 * time.Millisecond
)

// Fetcher lists issues for a filter.
type Fetcher interface {
	FetchIssues(ctx context.Context, filter models.Filter) ([]models.Issue, error)
}

// Centerer reports the current map center.
type Centerer interface {
	Center() models.Point
}

// State is the filter as entered, without the center.
type State struct {
	RadiusKm float64              `json:"radius_km"`
	Status   string               `json:"status"`
	Category models.IssueCategory `json:"category"`
}

// Controller owns the filter state and the refresh sequence.
type Controller struct {
	exec    *executor.Executor
	fetcher Fetcher
	store   *snapshot.Store
	center  Centerer
	clock   clock.Clock
	settle  time.Duration

	mu     sync.Mutex
	state  State
	issued uint64

	applyMu sync.Mutex
}

// NewController returns a controller starting with radiusKm and no status or
// category restriction.
func NewController(clk clock.Clock, exec *executor.Executor, fetcher Fetcher, store *snapshot.Store, center Centerer, radiusKm float64, settle time.Duration) *Controller {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Controller{
		exec:    exec,
		fetcher: fetcher,
		store:   store,
		center:  center,
		clock:   clk,
		settle:  settle,
		state:   State{RadiusKm: radiusKm},
	}
}

// SetRadius sets the search radius in kilometres.
func (c *Controller) SetRadius(km float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.RadiusKm = km
}

// SetStatus sets the status filter; empty means any.
func (c *Controller) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Status = status
}

// SetCategory sets the category filter; empty means any.
func (c *Controller) SetCategory(category models.IssueCategory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Category = category
}

// State returns the entered filter values.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RadiusLabel is the radius as shown next to the slider.
func (c *Controller) RadiusLabel() string {
	return strconv.FormatFloat(c.State().RadiusKm, 'f', -1, 64) + " km"
}

// Filter snapshots the filter with the map center as of now.
func (c *Controller) Filter() models.Filter {
	s := c.State()
	return models.Filter{
		Center:   c.center.Center(),
		RadiusKm: s.RadiusKm,
		Status:   s.Status,
		Category: s.Category,
	}
}

// Refresh fetches issues for the current filter.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, c.Filter())
}

func (c *Controller) fetch(ctx context.Context, filter models.Filter) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	logger := log.WithFields(log.Fields{
		"seq":      seq,
		"lat":      filter.Center.Lat,
		"lng":      filter.Center.Lng,
		"radius":   filter.RadiusKm,
		"status":   filter.Status,
		"category": filter.Category,
	})
	logger.Debug("refreshing issues")

	_, err := executor.Run(ctx, c.exec, executor.Request[[]models.Issue]{
		Name: "Load issues",
		Call: func(ctx context.Context) ([]models.Issue, error) {
			return c.fetcher.FetchIssues(ctx, filter)
		},
		OnSuccess: func(issues []models.Issue) executor.Notice {
			c.applyMu.Lock()
			defer c.applyMu.Unlock()
			if !c.latest(seq) {
				metrics.RefreshTotal.WithLabelValues("stale").Inc()
				logger.Info("discarding stale refresh response")
				return executor.Notice{}
			}
			shown := c.store.Replace(issues)
			metrics.RefreshTotal.WithLabelValues("applied").Inc()
			logger.WithField("shown", shown).Infof("loaded %d issues", len(issues))
			return executor.Notice{Text: fmt.Sprintf("Loaded %d issues", len(issues)), Timeout: LoadedTimeout}
		},
		OnFailure: func(err error) executor.Notice {
			metrics.RefreshTotal.WithLabelValues("failed").Inc()
			if !c.latest(seq) {
				return executor.Notice{}
			}
			return executor.Notice{Text: FailedText}
		},
		Retry: func(ctx context.Context) { _ = c.fetch(ctx, filter) },
	})
	return err
}

func (c *Controller) latest(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.issued
}

// Start runs the initial refresh once the map has settled and arms the
// empty-area hint.
func (c *Controller) Start(ctx context.Context) {
	c.ScheduleRefresh(ctx, c.settle)
	c.clock.AfterFunc(EmptyAreaDelay, func() {
		if ctx.Err() != nil {
			return
		}
		if c.store.Len() == 0 {
			c.exec.Messages().Show(EmptyAreaText, 0)
		}
	})
}

// ScheduleRefresh refreshes once after d.
func (c *Controller) ScheduleRefresh(ctx context.Context, d time.Duration) {
	c.clock.AfterFunc(d, func() {
		if ctx.Err() != nil {
			return
		}
		_ = c.Refresh(ctx)
	})
}
