package markers

import (
	"context"
	"testing"
	"time"

	"civicsync-client/models"
	"civicsync-client/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWidget struct {
	calls   []string
	markers map[string]Marker
}

func newRecordingWidget() *recordingWidget {
	return &recordingWidget{markers: map[string]Marker{}}
}

func (w *recordingWidget) ClearMarkers() {
	w.calls = append(w.calls, "clear")
	w.markers = map[string]Marker{}
}

func (w *recordingWidget) AddMarker(m Marker) {
	w.calls = append(w.calls, "add:"+m.ID)
	w.markers[m.ID] = m
}

func (w *recordingWidget) OpenPopup(id string) {
	w.calls = append(w.calls, "open:"+id)
}

func entry(id string, category models.IssueCategory) snapshot.Entry {
	return snapshot.Entry{
		Key:      id,
		Issue:    models.Issue{ID: models.ID(id), Title: "t" + id, Category: category},
		Position: models.Point{Lat: 1, Lng: 2},
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, "#ff7a29", Color(models.Roads))
	assert.Equal(t, "#36b3f6", Color(models.Water))
	assert.Equal(t, "#9b59b6", Color(models.Obstructions))
	assert.Equal(t, DefaultColor, Color("parks"))
}

func TestPopupEscapesAndDefaults(t *testing.T) {
	p := Popup(models.Issue{
		Description: `<script>alert("x")</script>`,
		Category:    models.Safety,
		Status:      "reported",
	})
	assert.Contains(t, p, "<strong>Issue</strong>")
	assert.Contains(t, p, "safety • reported")
	assert.Contains(t, p, "&lt;script&gt;")
	assert.NotContains(t, p, "<script>")
	assert.Contains(t, p, `<div class="small-muted"></div>`)

	created := models.Issue{Title: "Pothole"}
	created.CreatedAt = models.Timestamp{Time: time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)}
	assert.Contains(t, Popup(created), "2024-03-09")
}

func TestApplyReplacedClearsThenAdds(t *testing.T) {
	w := newRecordingWidget()
	r := NewRenderer(w)

	r.Apply(snapshot.Event{Kind: snapshot.Replaced, Issues: []snapshot.Entry{entry("1", models.Roads), entry("2", models.Water)}})
	r.Apply(snapshot.Event{Kind: snapshot.Replaced})

	assert.Equal(t, []string{"clear", "add:1", "add:2", "clear"}, w.calls)
	assert.Empty(t, w.markers)
}

func TestApplyAddedOpensPopup(t *testing.T) {
	w := newRecordingWidget()
	r := NewRenderer(w)

	r.Apply(snapshot.Event{Kind: snapshot.Added, Issues: []snapshot.Entry{entry("7", models.Garbage)}, Open: true})
	r.Apply(snapshot.Event{Kind: snapshot.Added, Issues: []snapshot.Entry{entry("8", models.Garbage)}})

	assert.Equal(t, []string{"add:7", "open:7", "add:8"}, w.calls)
	assert.Equal(t, "#9aa0a6", w.markers["7"].Color)
}

func TestRunConsumesStoreEvents(t *testing.T) {
	store := snapshot.NewStore()
	w := newRecordingWidget()
	r := NewRenderer(w)

	ctx, cancel := context.WithCancel(context.Background())
	events := store.Subscribe(ctx, 8)
	store.Replace([]models.Issue{{ID: "1", Latitude: models.Degrees(1), Longitude: models.Degrees(1)}})
	store.Add(models.Issue{ID: "2", Latitude: models.Degrees(2), Longitude: models.Degrees(2)}, true)
	cancel()

	require.NoError(t, r.Run(context.Background(), events))
	assert.Equal(t, []string{"clear", "add:1", "add:2", "open:2"}, w.calls)
}
