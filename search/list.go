package search

import (
	"sync"

	"civicsync-client/models"
)

// Key is a navigation key forwarded from the search input.
type Key string

const (
	KeyDown   Key = "ArrowDown"
	KeyUp     Key = "ArrowUp"
	KeyEnter  Key = "Enter"
	KeyEscape Key = "Escape"
)

// View is the renderable state of the list.
type View struct {
	Rows      []Row `json:"rows"`
	Hidden    bool  `json:"hidden"`
	Highlight int   `json:"highlight"`
}

// List is the suggestion list. Highlight is -1 when nothing is highlighted.
type List struct {
	// emit orders notifications like the changes that caused them.
	emit sync.Mutex

	mu        sync.Mutex
	results   []models.Place
	rows      []Row
	hidden    bool
	highlight int
	observers []func(View)
}

// NewList returns an empty hidden list.
func NewList() *List {
	return &List{hidden: true, highlight: -1}
}

// OnChange registers fn for every visible change.
func (l *List) OnChange(fn func(View)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Show replaces the rows with results and makes the list visible.
func (l *List) Show(results []models.Place) {
	if len(results) > DisplayLimit {
		results = results[:DisplayLimit]
	}
	l.update(func() {
		l.results = results
		l.rows = Rows(results)
		l.hidden = false
		l.highlight = -1
	})
}

// Clear drops the rows and hides the list.
func (l *List) Clear() {
	l.update(func() {
		l.results = nil
		l.rows = nil
		l.hidden = true
		l.highlight = -1
	})
}

// Hide hides the list and keeps its rows.
func (l *List) Hide() {
	l.update(func() { l.hidden = true })
}

// Focus shows the list again when it still has results.
func (l *List) Focus() {
	l.update(func() {
		if len(l.results) > 0 {
			l.hidden = false
		}
	})
}

// Highlight marks row i, as on mouse hover.
func (l *List) Highlight(i int) {
	l.update(func() {
		if l.selectableLocked(i) {
			l.highlight = i
		}
	})
}

// Key applies a navigation key. It returns the committed place on Enter.
func (l *List) Key(k Key) (models.Place, bool) {
	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	n := len(l.results)
	if l.hidden || n == 0 {
		l.mu.Unlock()
		return models.Place{}, false
	}

	switch k {
	case KeyDown:
		if l.highlight < 0 {
			l.highlight = 0
		} else {
			l.highlight = (l.highlight + 1) % n
		}
	case KeyUp:
		if l.highlight < 0 {
			l.highlight = n - 1
		} else {
			l.highlight = (l.highlight - 1 + n) % n
		}
	case KeyEnter:
		if l.highlight < 0 {
			l.mu.Unlock()
			return models.Place{}, false
		}
		place := l.results[l.highlight]
		l.hidden = true
		l.mu.Unlock()
		l.changed()
		return place, true
	case KeyEscape:
		l.hidden = true
	default:
		l.mu.Unlock()
		return models.Place{}, false
	}
	l.mu.Unlock()
	l.changed()
	return models.Place{}, false
}

// Select commits row i, as on click.
func (l *List) Select(i int) (models.Place, bool) {
	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	if !l.selectableLocked(i) {
		l.mu.Unlock()
		return models.Place{}, false
	}
	place := l.results[i]
	l.hidden = true
	l.highlight = i
	l.mu.Unlock()
	l.changed()
	return place, true
}

// View returns the current state.
func (l *List) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

func (l *List) viewLocked() View {
	rows := make([]Row, len(l.rows))
	copy(rows, l.rows)
	return View{Rows: rows, Hidden: l.hidden, Highlight: l.highlight}
}

func (l *List) selectableLocked(i int) bool {
	return i >= 0 && i < len(l.results)
}

func (l *List) update(fn func()) {
	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	fn()
	l.mu.Unlock()
	l.changed()
}

func (l *List) changed() {
	l.mu.Lock()
	view := l.viewLocked()
	observers := l.observers
	l.mu.Unlock()
	for _, fn := range observers {
		fn(view)
	}
}
