package realtime

import (
	"context"
	"time"

	"civicsync-client/executor"
	"civicsync-client/metrics"
	"civicsync-client/models"
	"civicsync-client/snapshot"

	"github.com/apex/log"
)

const (
	// MergedText is shown when a live issue lands on the map.
	MergedText    = "New issue posted — map updated"
	MergedTimeout = 2400 * time.Millisecond
)

// Centerer reports the current map center.
type Centerer interface {
	Center() models.Point
}

// Merger applies live issues to the snapshot.
type Merger struct {
	store    *snapshot.Store
	messages *executor.Slot
	center   Centerer
}

// NewMerger returns a merger. center may be nil.
func NewMerger(store *snapshot.Store, messages *executor.Slot, center Centerer) *Merger {
	return &Merger{store: store, messages: messages, center: center}
}

// Merge adds issue with its popup open and announces it.
func (m *Merger) Merge(issue models.Issue) bool {
	if !m.store.Add(issue, true) {
		metrics.RealtimeEventsTotal.WithLabelValues("invalid").Inc()
		return false
	}
	metrics.RealtimeEventsTotal.WithLabelValues("merged").Inc()

	fields := log.Fields{"id": issue.ID, "category": issue.Category}
	if m.center != nil {
		if pos, ok := issue.Position(); ok {
			fields["distance_km"] = pos.DistanceKm(m.center.Center())
		}
	}
	log.WithFields(fields).Info("merged live issue")

	m.messages.Show(MergedText, MergedTimeout)
	return true
}

// Run merges issues until the channel closes or ctx is done.
func (m *Merger) Run(ctx context.Context, issues <-chan models.Issue) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case issue, ok := <-issues:
			if !ok {
				return nil
			}
			m.Merge(issue)
		}
	}
}
