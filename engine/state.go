package engine

import (
	"context"

	"civicsync-client/executor"
	"civicsync-client/mapview"
	"civicsync-client/models"
	"civicsync-client/preferences"
	"civicsync-client/realtime"
	"civicsync-client/refresh"
	"civicsync-client/search"
	"civicsync-client/submission"

	geojson "github.com/paulmach/go.geojson"
)

// State is the full view state served to the front-end.
type State struct {
	Markers     *geojson.FeatureCollection `json:"markers"`
	Viewport    mapview.Viewport           `json:"viewport"`
	Selection   *models.Point              `json:"selection,omitempty"`
	SearchText  string                     `json:"search_text"`
	Suggestions search.View                `json:"suggestions"`
	Message     *executor.Message          `json:"message,omitempty"`
	Busy        bool                       `json:"busy"`
	Form        submission.Form            `json:"form"`
	Counter     string                     `json:"counter"`
	Filter      refresh.State              `json:"filter"`
	RadiusLabel string                     `json:"radius_label"`
	Theme       preferences.Theme          `json:"theme"`
	Realtime    realtime.State             `json:"realtime"`
	Operations  []executor.Operation       `json:"operations"`
}

// State snapshots the view.
func (e *Engine) State(ctx context.Context) State {
	s := State{
		Markers:     e.Map.FeatureCollection(),
		Viewport:    e.Map.Viewport(),
		SearchText:  e.Search.Text(),
		Suggestions: e.Search.List().View(),
		Busy:        e.Exec.Busy().Busy(),
		Form:        e.Submission.Form(),
		Counter:     e.Submission.Counter(),
		Filter:      e.Refresh.State(),
		RadiusLabel: e.Refresh.RadiusLabel(),
		Theme:       e.Theme.Theme(ctx),
		Realtime:    e.RealtimeState(),
		Operations:  e.Exec.Operations(),
	}
	if p, ok := e.Map.Selection(); ok {
		s.Selection = &p
	}
	if msg, ok := e.Exec.Messages().Current(); ok {
		s.Message = &msg
	}
	return s
}
