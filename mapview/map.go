// Package mapview is the in-process map widget: the marker layer, the
// viewport and the temporary selection marker.
package mapview

import (
	"sync"
	"time"

	"civicsync-client/clock"
	"civicsync-client/markers"
	"civicsync-client/models"

	geojson "github.com/paulmach/go.geojson"
)

const (
	MinZoom = 0
	MaxZoom = 19
)

// ChangeKind names what part of the map changed.
type ChangeKind string

const (
	MarkersChanged   ChangeKind = "markers"
	PopupOpened      ChangeKind = "popup"
	ViewportChanged  ChangeKind = "viewport"
	SelectionChanged ChangeKind = "selection"
)

// Change is sent to observers after every mutation.
type Change struct {
	Kind ChangeKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

// Viewport is the visible map area.
type Viewport struct {
	Center models.Point `json:"center"`
	Zoom   int          `json:"zoom"`
}

// Map implements markers.MapWidget.
type Map struct {
	clock clock.Clock

	// emit is held across a mutation and its notification.
	emit sync.Mutex

	mu        sync.RWMutex
	order     []string
	markers   map[string]markers.Marker
	popup     string
	viewport  Viewport
	selection *models.Point
	selSeq    uint64
	selTimer  clock.Timer
	observers []func(Change)
}

// New returns a map centred at center.
func New(clk clock.Clock, center models.Point, zoom int) *Map {
	return &Map{
		clock:    clk,
		markers:  make(map[string]markers.Marker),
		viewport: Viewport{Center: center, Zoom: clampZoom(zoom)},
	}
}

// OnChange registers fn for every change.
func (m *Map) OnChange(fn func(Change)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Map) notify(c Change) {
	m.mu.RLock()
	observers := m.observers
	m.mu.RUnlock()
	for _, fn := range observers {
		fn(c)
	}
}

// ClearMarkers removes every issue marker.
func (m *Map) ClearMarkers() {
	m.emit.Lock()
	defer m.emit.Unlock()

	m.mu.Lock()
	m.order = nil
	m.markers = make(map[string]markers.Marker)
	m.popup = ""
	m.mu.Unlock()
	m.notify(Change{Kind: MarkersChanged})
}

// AddMarker draws mk, replacing a marker with the same id.
func (m *Map) AddMarker(mk markers.Marker) {
	m.emit.Lock()
	defer m.emit.Unlock()

	m.mu.Lock()
	if _, ok := m.markers[mk.ID]; !ok {
		m.order = append(m.order, mk.ID)
	}
	m.markers[mk.ID] = mk
	m.mu.Unlock()
	m.notify(Change{Kind: MarkersChanged, ID: mk.ID})
}

// OpenPopup opens the popup of marker id.
func (m *Map) OpenPopup(id string) {
	m.emit.Lock()
	defer m.emit.Unlock()

	m.mu.Lock()
	if _, ok := m.markers[id]; !ok {
		m.mu.Unlock()
		return
	}
	m.popup = id
	m.mu.Unlock()
	m.notify(Change{Kind: PopupOpened, ID: id})
}

// Markers returns the drawn markers in draw order.
func (m *Map) Markers() []markers.Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]markers.Marker, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.markers[id])
	}
	return out
}

// MarkerCount is the number of drawn markers.
func (m *Map) MarkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// OpenedPopup returns the id of the open popup, if any.
func (m *Map) OpenedPopup() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.popup
}

// Viewport returns the visible area.
func (m *Map) Viewport() Viewport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport
}

// Center is the current viewport center.
func (m *Map) Center() models.Point {
	return m.Viewport().Center
}

// SetView recentres the map.
func (m *Map) SetView(center models.Point, zoom int) {
	m.emit.Lock()
	defer m.emit.Unlock()

	m.mu.Lock()
	m.viewport = Viewport{Center: center, Zoom: clampZoom(zoom)}
	m.mu.Unlock()
	m.notify(Change{Kind: ViewportChanged})
}

// SetViewport records a pan or zoom made by the user in the widget.
// Invalid centers are ignored.
func (m *Map) SetViewport(v Viewport) bool {
	if !v.Center.Valid() {
		return false
	}
	m.SetView(v.Center, v.Zoom)
	return true
}

// ZoomBy changes the zoom level by delta within the supported range.
func (m *Map) ZoomBy(delta int) int {
	m.emit.Lock()
	defer m.emit.Unlock()

	m.mu.Lock()
	m.viewport.Zoom = clampZoom(m.viewport.Zoom + delta)
	zoom := m.viewport.Zoom
	m.mu.Unlock()
	m.notify(Change{Kind: ViewportChanged})
	return zoom
}

// ShowSelection draws the temporary selection marker at p and removes it
// after ttl. A newer selection replaces the previous one and its timer.
func (m *Map) ShowSelection(p models.Point, ttl time.Duration) {
	m.emit.Lock()
	defer m.emit.Unlock()

	m.mu.Lock()
	m.selSeq++
	seq := m.selSeq
	m.selection = &p
	if m.selTimer != nil {
		m.selTimer.Stop()
		m.selTimer = nil
	}
	m.mu.Unlock()
	m.notify(Change{Kind: SelectionChanged})

	if ttl <= 0 {
		return
	}
	timer := m.clock.AfterFunc(ttl, func() { m.clearSelection(seq) })
	m.mu.Lock()
	if m.selSeq == seq && m.selection != nil {
		m.selTimer = timer
	}
	m.mu.Unlock()
}

// ClearSelection removes the selection marker.
func (m *Map) ClearSelection() {
	m.mu.RLock()
	seq := m.selSeq
	m.mu.RUnlock()
	m.clearSelection(seq)
}

func (m *Map) clearSelection(seq uint64) {
	m.emit.Lock()
	defer m.emit.Unlock()

	m.mu.Lock()
	if m.selSeq != seq || m.selection == nil {
		m.mu.Unlock()
		return
	}
	m.selection = nil
	if m.selTimer != nil {
		m.selTimer.Stop()
		m.selTimer = nil
	}
	m.mu.Unlock()
	m.notify(Change{Kind: SelectionChanged})
}

// Selection returns the temporary selection marker position.
func (m *Map) Selection() (models.Point, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selection == nil {
		return models.Point{}, false
	}
	return *m.selection, true
}

// FeatureCollection renders the marker layer as GeoJSON points.
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	popup := m.OpenedPopup()
	for _, mk := range m.Markers() {
		f := geojson.NewPointFeature([]float64{mk.Position.Lng, mk.Position.Lat})
		f.ID = mk.ID
		f.SetProperty("category", string(mk.Category))
		f.SetProperty("color", mk.Color)
		f.SetProperty("popup", mk.Popup)
		f.SetProperty("open", mk.ID == popup)
		fc.AddFeature(f)
	}
	return fc
}

func clampZoom(z int) int {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
