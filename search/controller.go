package search

import (
	"context"
	"sync"
	"time"

	"civicsync-client/clock"
	"civicsync-client/executor"
	"civicsync-client/metrics"
	"civicsync-client/models"

	"github.com/apex/log"
)

// LocatedTimeout is how long the selection confirmation stays visible.
const LocatedTimeout = 3 * time.Second

// Geocoder finds places for a free-text query.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]models.Place, error)
}

// Viewport is recentred when a suggestion is selected.
type Viewport interface {
	SetView(center models.Point, zoom int)
}

// AddressSink receives the address to submit with the next issue.
type AddressSink interface {
	SetAddress(address string)
}

// Controller ties the input text, the gate, the list and the executor
// together.
type Controller struct {
	exec     *executor.Executor
	geocoder Geocoder
	viewport Viewport
	address  AddressSink
	gate     *Gate
	list     *List

	mu   sync.Mutex
	text string
}

// NewController wires a search controller.
func NewController(clk clock.Clock, debounce time.Duration, exec *executor.Executor, geocoder Geocoder, viewport Viewport, address AddressSink) *Controller {
	c := &Controller{
		exec:     exec,
		geocoder: geocoder,
		viewport: viewport,
		address:  address,
		list:     NewList(),
	}
	c.gate = NewGate(clk, debounce, c.search, c.list.Clear)
	return c
}

// List returns the suggestion list.
func (c *Controller) List() *List { return c.list }

// Text is the current input text.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Input handles a change of the input text.
func (c *Controller) Input(ctx context.Context, text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
	c.gate.Input(ctx, text)
}

// Key forwards a navigation key to the list, applying a committed row.
func (c *Controller) Key(k Key) bool {
	place, ok := c.list.Key(k)
	if ok {
		c.apply(place)
	}
	return ok
}

// Select commits row i.
func (c *Controller) Select(i int) bool {
	place, ok := c.list.Select(i)
	if ok {
		c.apply(place)
	}
	return ok
}

// Clear empties the input, forgets the chosen address and drops the list.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.text = ""
	c.mu.Unlock()
	c.gate.Cancel()
	c.list.Clear()
	c.address.SetAddress("")
}

// Dismiss hides the list without committing.
func (c *Controller) Dismiss() {
	c.list.Hide()
}

func (c *Controller) search(ctx context.Context, text string, version uint64) {
	logger := log.WithFields(log.Fields{"query": text, "version": version})

	_, _ = executor.Run(ctx, c.exec, executor.Request[[]models.Place]{
		Name: "Search",
		Call: func(ctx context.Context) ([]models.Place, error) {
			return c.geocoder.Search(ctx, text)
		},
		OnSuccess: func(places []models.Place) executor.Notice {
			if !c.gate.Current(version) {
				metrics.SearchTotal.WithLabelValues("stale").Inc()
				logger.Debug("discarding stale search results")
				return executor.Notice{}
			}
			metrics.SearchTotal.WithLabelValues("success").Inc()
			c.list.Show(places)
			return executor.Notice{}
		},
		OnFailure: func(err error) executor.Notice {
			if !c.gate.Current(version) {
				metrics.SearchTotal.WithLabelValues("stale").Inc()
				logger.WithError(err).Debug("discarding stale search failure")
				return executor.Notice{}
			}
			metrics.SearchTotal.WithLabelValues("failed").Inc()
			c.list.Hide()
			return executor.Notice{Text: "Search failed"}
		},
	})
}

func (c *Controller) apply(place models.Place) {
	c.mu.Lock()
	c.text = place.DisplayName
	c.mu.Unlock()
	c.gate.Cancel()

	if pos, ok := place.Position(); ok {
		c.viewport.SetView(pos, place.ZoomLevel())
	} else {
		log.WithField("place", place.DisplayName).Warn("selected place has no usable position")
	}
	c.address.SetAddress(place.DisplayName)
	c.exec.Messages().Show("📍 Located: "+place.DisplayName, LocatedTimeout)
}
