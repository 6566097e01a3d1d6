// Package snapshot holds the authoritative set of issues shown on the map.
package snapshot

import (
	"context"
	"sync"

	"civicsync-client/metrics"
	"civicsync-client/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// EventKind distinguishes a full replacement from an incremental add.
type EventKind string

const (
	Replaced EventKind = "replaced"
	Added    EventKind = "added"
)

// Event is one store mutation. For Replaced, Issues is the complete new set;
// for Added it holds the single issue and Open asks for its popup.
type Event struct {
	Kind   EventKind
	Issues []Entry
	Open   bool
}

// Entry is an issue with the key it is stored under.
type Entry struct {
	Key      string
	Issue    models.Issue
	Position models.Point
}

// Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	order       []string
	entries     map[string]Entry
	subscribers map[int]*subscriber
	nextSub     int
}

type subscriber struct {
	ch   chan Event
	done <-chan struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries:     make(map[string]Entry),
		subscribers: make(map[int]*subscriber),
	}
}

// Subscribe returns a channel receiving every later mutation. The channel is
// closed once ctx is done.
func (s *Store) Subscribe(ctx context.Context, buffer int) <-chan Event {
	sub := &subscriber{ch: make(chan Event, buffer), done: ctx.Done()}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = sub
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		close(sub.ch)
	}()
	return sub.ch
}

// Replace discards the current set and stores every valid issue of issues.
// It returns how many were stored.
func (s *Store) Replace(issues []models.Issue) int {
	order := make([]string, 0, len(issues))
	entries := make(map[string]Entry, len(issues))
	for _, issue := range issues {
		entry, ok := newEntry(issue)
		if !ok {
			continue
		}
		if _, exists := entries[entry.Key]; !exists {
			order = append(order, entry.Key)
		}
		entries[entry.Key] = entry
	}

	s.mu.Lock()
	s.order = order
	s.entries = entries
	snapshot := s.snapshotLocked()
	s.publishLocked(Event{Kind: Replaced, Issues: snapshot})
	s.mu.Unlock()

	metrics.MarkersShown.Set(float64(len(snapshot)))
	return len(snapshot)
}

// Add inserts issue, or supersedes the entry with the same identity, leaving
// every other entry untouched. It reports false when the issue has no valid
// position.
func (s *Store) Add(issue models.Issue, open bool) bool {
	entry, ok := newEntry(issue)
	if !ok {
		return false
	}

	s.mu.Lock()
	if _, exists := s.entries[entry.Key]; !exists {
		s.order = append(s.order, entry.Key)
	}
	s.entries[entry.Key] = entry
	count := len(s.entries)
	s.publishLocked(Event{Kind: Added, Issues: []Entry{entry}, Open: open})
	s.mu.Unlock()

	metrics.MarkersShown.Set(float64(count))
	return true
}

// Issues returns the stored entries in insertion order.
func (s *Store) Issues() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len is the number of stored issues.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) snapshotLocked() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.entries[key])
	}
	return out
}

// publishLocked hands ev to every subscriber in mutation order. A subscriber
// whose context is done is skipped.
func (s *Store) publishLocked(ev Event) {
	for _, sub := range s.subscribers {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		}
	}
}

func newEntry(issue models.Issue) (Entry, bool) {
	pos, ok := issue.Position()
	if !ok {
		log.WithFields(log.Fields{
			"id":        issue.ID,
			"title":     issue.Title,
			"latitude":  issue.Latitude.Value,
			"longitude": issue.Longitude.Value,
		}).Warn("skipping issue with invalid coordinates")
		return Entry{}, false
	}

	key := string(issue.ID)
	if key == "" {
		key = "local-" + uuid.NewString()
	}
	return Entry{Key: key, Issue: issue, Position: pos}, true
}
