package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"civicsync-client/clock"
	"civicsync-client/executor"
	"civicsync-client/models"
	"civicsync-client/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixedCenter struct{ p models.Point }

func (f *fixedCenter) Center() models.Point { return f.p }

type fakeFetcher struct {
	mu      sync.Mutex
	filters []models.Filter
	respond func(call int, f models.Filter) ([]models.Issue, error)
}

func (f *fakeFetcher) FetchIssues(ctx context.Context, filter models.Filter) ([]models.Issue, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	call := len(f.filters)
	f.mu.Unlock()
	return f.respond(call, filter)
}

func issues(ids ...string) []models.Issue {
	out := make([]models.Issue, len(ids))
	for i, id := range ids {
		out[i] = models.Issue{ID: models.ID(id), Latitude: models.Degrees(12.9), Longitude: models.Degrees(77.5)}
	}
	return out
}

type harness struct {
	clk     *clock.FakeClock
	exec    *executor.Executor
	store   *snapshot.Store
	center  *fixedCenter
	fetcher *fakeFetcher
	ctrl    *Controller
}

func newHarness(respond func(call int, f models.Filter) ([]models.Issue, error)) *harness {
	h := &harness{
		clk:     clock.NewFake(epoch),
		store:   snapshot.NewStore(),
		center:  &fixedCenter{p: models.Point{Lat: 12.9716, Lng: 77.5946}},
		fetcher: &fakeFetcher{respond: respond},
	}
	h.exec = executor.New(h.clk, time.Second)
	h.ctrl = NewController(h.clk, h.exec, h.fetcher, h.store, h.center, 5, 0)
	return h
}

func TestRefreshAppliesResponse(t *testing.T) {
	h := newHarness(func(int, models.Filter) ([]models.Issue, error) {
		bad := models.Issue{ID: "bad"}
		return append(issues("1", "2"), bad), nil
	})
	h.ctrl.SetStatus("reported")
	h.ctrl.SetCategory(models.Roads)

	require.NoError(t, h.ctrl.Refresh(context.Background()))

	assert.Equal(t, 2, h.store.Len())
	msg, ok := h.exec.Messages().Current()
	require.True(t, ok)
	assert.Equal(t, "Loaded 3 issues", msg.Text)
	assert.Equal(t, LoadedTimeout, msg.Timeout)

	require.Len(t, h.fetcher.filters, 1)
	assert.Equal(t, models.Filter{
		Center:   models.Point{Lat: 12.9716, Lng: 77.5946},
		RadiusKm: 5,
		Status:   "reported",
		Category: models.Roads,
	}, h.fetcher.filters[0])
	assert.False(t, h.exec.Busy().Busy())
}

func TestRefreshFailureRetriesIdenticalFilter(t *testing.T) {
	h := newHarness(func(call int, f models.Filter) ([]models.Issue, error) {
		if call == 1 {
			return nil, errors.New("connection reset")
		}
		return issues("1"), nil
	})
	h.store.Replace(issues("old"))

	require.Error(t, h.ctrl.Refresh(context.Background()))
	assert.Equal(t, 1, h.store.Len(), "failure keeps the previous set")
	msg, ok := h.exec.Messages().Current()
	require.True(t, ok)
	assert.Equal(t, FailedText, msg.Text)
	assert.True(t, msg.Retryable)

	h.center.p = models.Point{Lat: 28.6, Lng: 77.2}
	h.ctrl.SetRadius(20)
	require.True(t, h.exec.Messages().Retry(context.Background()))

	require.Len(t, h.fetcher.filters, 2)
	assert.Equal(t, h.fetcher.filters[0], h.fetcher.filters[1])
	assert.Equal(t, "1", h.store.Issues()[0].Key)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(func(call int, f models.Filter) ([]models.Issue, error) {
		if call == 1 {
			<-release
			return issues("a1", "a2", "a3"), nil
		}
		return issues("b1"), nil
	})

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		h.fetcher.mu.Lock()
		defer h.fetcher.mu.Unlock()
		return len(h.fetcher.filters) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, h.ctrl.Refresh(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, h.store.Len())
	assert.Equal(t, "b1", h.store.Issues()[0].Key)
	msg, _ := h.exec.Messages().Current()
	assert.Equal(t, "Loaded 1 issues", msg.Text)
	assert.False(t, h.exec.Busy().Busy())
}

func TestStartSettlesThenRefreshes(t *testing.T) {
	h := newHarness(func(int, models.Filter) ([]models.Issue, error) { return nil, nil })
	h.ctrl.Start(context.Background())

	h.clk.Advance(599 * time.Millisecond)
	assert.Empty(t, h.fetcher.filters)
	h.clk.Advance(time.Millisecond)
	assert.Len(t, h.fetcher.filters, 1)

	h.clk.Advance(EmptyAreaDelay)
	msg, ok := h.exec.Messages().Current()
	require.True(t, ok)
	assert.Equal(t, EmptyAreaText, msg.Text)
}

func TestEmptyAreaHintSkippedWhenIssuesShown(t *testing.T) {
	h := newHarness(func(int, models.Filter) ([]models.Issue, error) { return issues("1"), nil })
	h.ctrl.Start(context.Background())
	h.clk.Advance(EmptyAreaDelay)

	msg, ok := h.exec.Messages().Current()
	if ok {
		assert.NotEqual(t, EmptyAreaText, msg.Text)
	}
}

func TestStartStopsWithContext(t *testing.T) {
	h := newHarness(func(int, models.Filter) ([]models.Issue, error) { return nil, nil })
	ctx, cancel := context.WithCancel(context.Background())
	h.ctrl.Start(ctx)
	cancel()
	h.clk.Advance(5 * time.Second)
	assert.Empty(t, h.fetcher.filters)
}

func TestRadiusLabel(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, "5 km", h.ctrl.RadiusLabel())
	h.ctrl.SetRadius(2.5)
	assert.Equal(t, "2.5 km", h.ctrl.RadiusLabel())
}
