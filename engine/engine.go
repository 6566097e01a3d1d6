// Package engine assembles the client components and runs their background
// loops.
package engine

import (
	"context"

	"civicsync-client/clock"
	"civicsync-client/config"
	"civicsync-client/events"
	"civicsync-client/executor"
	"civicsync-client/location"
	"civicsync-client/mapview"
	"civicsync-client/markers"
	"civicsync-client/models"
	"civicsync-client/preferences"
	"civicsync-client/realtime"
	"civicsync-client/refresh"
	"civicsync-client/search"
	"civicsync-client/snapshot"
	"civicsync-client/submission"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"
)

// Backend is the issues API.
type Backend interface {
	refresh.Fetcher
	submission.Creator
}

// Geocoder is the forward and reverse geocoding provider.
type Geocoder interface {
	search.Geocoder
	location.ReverseGeocoder
}

// Deps are the external collaborators of the engine.
type Deps struct {
	Clock       clock.Clock
	Backend     Backend
	Geocoder    Geocoder
	Subscriber  realtime.Subscriber
	Preferences preferences.KV
}

// Engine owns every piece of client state.
type Engine struct {
	Exec       *executor.Executor
	Store      *snapshot.Store
	Map        *mapview.Map
	Search     *search.Controller
	Refresh    *refresh.Controller
	Submission *submission.Flow
	Picker     *location.Picker
	Theme      *preferences.Store
	Hub        *events.Hub

	renderer *markers.Renderer
	listener *realtime.Listener
	merger   *realtime.Merger
}

// New builds an engine from cfg and deps. A nil Subscriber runs the client
// in pull-only mode.
func New(cfg *config.Config, deps Deps) *Engine {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	kv := deps.Preferences
	if kv == nil {
		kv = preferences.NewMemoryKV()
	}

	e := &Engine{
		Exec:  executor.New(clk, cfg.RequestTimeout),
		Store: snapshot.NewStore(),
		Map:   mapview.New(clk, models.Point{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}, cfg.DefaultZoom),
		Theme: preferences.NewStore(kv),
		Hub:   events.NewHub(),
	}
	e.renderer = markers.NewRenderer(e.Map)
	e.Refresh = refresh.NewController(clk, e.Exec, deps.Backend, e.Store, e.Map, cfg.DefaultRadiusKm, cfg.SettleDelay)
	e.Submission = submission.NewFlow(e.Exec, deps.Backend, e.Store, e.Map, e.Refresh)
	e.Search = search.NewController(clk, cfg.DebounceDelay, e.Exec, deps.Geocoder, e.Map, e.Submission)
	e.Picker = location.NewPicker(e.Exec, deps.Geocoder, e.Map, e.Submission)

	if deps.Subscriber != nil {
		e.listener = realtime.NewListener(deps.Subscriber, clk, cfg.RealtimeRetryBackoff)
		e.merger = realtime.NewMerger(e.Store, e.Exec.Messages(), e.Map)
	}

	e.observe()
	return e
}

// observe forwards view changes to the event streams.
func (e *Engine) observe() {
	e.Exec.Busy().OnChange(func(busy bool) {
		e.Hub.Publish("busy", busy)
	})
	e.Exec.Messages().OnChange(func(msg executor.Message, visible bool) {
		if !visible {
			e.Hub.Publish("message", nil)
			return
		}
		e.Hub.Publish("message", msg)
	})
	e.Map.OnChange(func(c mapview.Change) {
		e.Hub.Publish("map", c)
	})
	e.Search.List().OnChange(func(v search.View) {
		e.Hub.Publish("suggestions", v)
	})
	e.Submission.OnChange(func(f submission.Form) {
		e.Hub.Publish("form", f)
	})
	if e.listener != nil {
		e.listener.OnStateChange(func(s realtime.State) {
			e.Hub.Publish("realtime", s)
		})
	}
}

// Run starts the background loops and the initial load. It returns when ctx
// is done or a loop fails.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	storeEvents := e.Store.Subscribe(ctx, 64)
	g.Go(func() error { return e.Hub.Run(ctx) })
	g.Go(func() error { return e.renderer.Run(ctx, storeEvents) })

	if e.listener != nil {
		g.Go(func() error { return e.listener.Run(ctx) })
		g.Go(func() error { return e.merger.Run(ctx, e.listener.Issues()) })
	} else {
		log.Info("realtime disabled, running in pull-only mode")
	}

	e.Submission.Bind(ctx)
	e.Refresh.Start(ctx)
	return g.Wait()
}

// RealtimeState reports the live connection state.
func (e *Engine) RealtimeState() realtime.State {
	if e.listener == nil {
		return realtime.Disconnected
	}
	return e.listener.State()
}
