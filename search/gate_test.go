package search

import (
	"context"
	"testing"
	"time"

	"civicsync-client/clock"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type gateRecorder struct {
	queries []string
	clears  int
}

func newRecordedGate() (*Gate, *gateRecorder, *clock.FakeClock) {
	clk := clock.NewFake(epoch)
	rec := &gateRecorder{}
	g := NewGate(clk, 300*time.Millisecond,
		func(ctx context.Context, text string, version uint64) { rec.queries = append(rec.queries, text) },
		func() { rec.clears++ })
	return g, rec, clk
}

func TestGateOnlyLatestInputSurvives(t *testing.T) {
	g, rec, clk := newRecordedGate()
	ctx := context.Background()

	g.Input(ctx, "M")
	clk.Advance(100 * time.Millisecond)
	g.Input(ctx, "Ma")
	clk.Advance(100 * time.Millisecond)
	g.Input(ctx, "Main")
	clk.Advance(299 * time.Millisecond)
	assert.Empty(t, rec.queries)

	clk.Advance(time.Millisecond)
	assert.Equal(t, []string{"Main"}, rec.queries)
	assert.False(t, g.Pending())
}

func TestGateBlankInputClearsImmediately(t *testing.T) {
	g, rec, clk := newRecordedGate()
	ctx := context.Background()

	g.Input(ctx, "Park")
	g.Input(ctx, "   ")
	assert.Equal(t, 1, rec.clears)
	assert.False(t, g.Pending())

	clk.Advance(time.Second)
	assert.Empty(t, rec.queries)
}

func TestGateVersionInvalidatedByLaterInput(t *testing.T) {
	clk := clock.NewFake(epoch)
	var versions []uint64
	g := NewGate(clk, 0, func(ctx context.Context, text string, version uint64) {
		versions = append(versions, version)
	}, nil)

	g.Input(context.Background(), "Koramangala")
	clk.Advance(DefaultDebounce)
	if assert.Len(t, versions, 1) {
		assert.True(t, g.Current(versions[0]))
		g.Input(context.Background(), "")
		assert.False(t, g.Current(versions[0]))
	}
}

func TestGateCancel(t *testing.T) {
	g, rec, clk := newRecordedGate()
	g.Input(context.Background(), "Main")
	g.Cancel()
	clk.Advance(time.Second)
	assert.Empty(t, rec.queries)
}
