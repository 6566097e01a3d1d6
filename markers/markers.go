// Package markers projects snapshot events onto a map widget.
package markers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"civicsync-client/models"
	"civicsync-client/snapshot"
)

// MapWidget is the drawing surface markers are rendered onto.
type MapWidget interface {
	ClearMarkers()
	AddMarker(m Marker)
	OpenPopup(id string)
}

// Marker is one drawable issue.
type Marker struct {
	ID       string               `json:"id"`
	Position models.Point         `json:"position"`
	Category models.IssueCategory `json:"category"`
	Color    string               `json:"color"`
	Popup    string               `json:"popup"`
}

// DefaultColor is used for unknown categories.
const DefaultColor = "#2ecc71"

var categoryColors = map[models.IssueCategory]string{
	models.Roads:        "#ff7a29",
	models.Water:        "#36b3f6",
	models.Garbage:      "#9aa0a6",
	models.Lighting:     "#ffd34d",
	models.Safety:       "#ff5c5c",
	models.Obstructions: "#9b59b6",
}

// Color returns the marker colour of category.
func Color(category models.IssueCategory) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return DefaultColor
}

// Popup renders the escaped popup body of issue.
func Popup(issue models.Issue) string {
	title := issue.Title
	if title == "" {
		title = "Issue"
	}
	created := ""
	if !issue.CreatedAt.IsZero() {
		created = issue.CreatedAt.In(time.Local).Format("2006-01-02")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<strong>%s</strong>", html.EscapeString(title))
	fmt.Fprintf(&b, `<div class="muted">%s • %s</div>`,
		html.EscapeString(string(issue.Category)), html.EscapeString(issue.Status))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(issue.Description))
	fmt.Fprintf(&b, `<div class="small-muted">%s</div>`, created)
	return b.String()
}

// FromEntry builds the marker of a stored issue.
func FromEntry(e snapshot.Entry) Marker {
	return Marker{
		ID:       e.Key,
		Position: e.Position,
		Category: e.Issue.Category,
		Color:    Color(e.Issue.Category),
		Popup:    Popup(e.Issue),
	}
}

// Renderer keeps no state of its own; the widget mirrors the store.
type Renderer struct {
	widget MapWidget
}

// NewRenderer returns a renderer drawing onto widget.
func NewRenderer(widget MapWidget) *Renderer {
	return &Renderer{widget: widget}
}

// Apply draws one store event.
func (r *Renderer) Apply(ev snapshot.Event) {
	switch ev.Kind {
	case snapshot.Replaced:
		r.widget.ClearMarkers()
		for _, e := range ev.Issues {
			r.widget.AddMarker(FromEntry(e))
		}
	case snapshot.Added:
		for _, e := range ev.Issues {
			r.widget.AddMarker(FromEntry(e))
			if ev.Open {
				r.widget.OpenPopup(e.Key)
			}
		}
	}
}

// Run applies events until the channel closes or ctx is done.
func (r *Renderer) Run(ctx context.Context, events <-chan snapshot.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Apply(ev)
		}
	}
}
