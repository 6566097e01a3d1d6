package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"civicsync-client/clock"
	"civicsync-client/executor"
	"civicsync-client/models"
	"civicsync-client/snapshot"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeSubscriber struct {
	mu       sync.Mutex
	failures int
	dials    int
	payloads chan []byte
}

func (s *fakeSubscriber) Name() string { return "fake" }

func (s *fakeSubscriber) Dial(ctx context.Context) (<-chan []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dials++
	if s.dials <= s.failures {
		return nil, errors.New("connection refused")
	}
	return s.payloads, nil
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  models.ID
		wantErr error
	}{
		{"envelope", `{"event":"new_issue","data":{"id":7,"title":"Leak"}}`, "7", nil},
		{"bare issue", `{"id":"x1","latitude":"12.9"}`, "x1", nil},
		{"other event", `{"event":"vote","data":{}}`, "", ErrIgnoredEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, err := DecodeEvent([]byte(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, issue.ID)
		})
	}

	for _, raw := range []string{`not json`, `{"event":"new_issue"}`, `[1,2]`} {
		_, err := DecodeEvent([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestListenerRetriesThenForwardsIssues(t *testing.T) {
	sub := &fakeSubscriber{failures: 2, payloads: make(chan []byte, 4)}
	l := NewListener(sub, clock.NewFake(epoch), time.Millisecond)

	var states []State
	var mu sync.Mutex
	l.OnStateChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	sub.payloads <- []byte(`{"event":"new_issue","data":{"id":1,"latitude":12.9,"longitude":77.6}}`)
	sub.payloads <- []byte(`garbage`)
	sub.payloads <- []byte(`{"event":"new_issue","data":{"id":2,"latitude":13,"longitude":77.5}}`)

	first := <-l.Issues()
	second := <-l.Issues()
	assert.Equal(t, models.ID("1"), first.ID)
	assert.Equal(t, models.ID("2"), second.ID)
	assert.Equal(t, Connected, l.State())

	cancel()
	require.NoError(t, <-done)
	_, open := <-l.Issues()
	assert.False(t, open)

	sub.mu.Lock()
	assert.Equal(t, 3, sub.dials)
	sub.mu.Unlock()
	mu.Lock()
	assert.Equal(t, []State{Connected, Disconnected}, states)
	mu.Unlock()
}

func TestWebsocketSubscriber(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"new_issue","data":{"id":"ws-1"}}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	sub := &WebsocketSubscriber{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
	payloads, err := sub.Dial(context.Background())
	require.NoError(t, err)

	raw, ok := <-payloads
	require.True(t, ok)
	issue, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, models.ID("ws-1"), issue.ID)

	_, ok = <-payloads
	assert.False(t, ok, "channel closes with the connection")
}

func TestWebsocketSubscriberDialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	sub := &WebsocketSubscriber{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
	_, err := sub.Dial(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRedisSubscriberRequiresClient(t *testing.T) {
	_, err := (&RedisSubscriber{}).Dial(context.Background())
	assert.Error(t, err)
}

func TestMergerAddsAndAnnounces(t *testing.T) {
	store := snapshot.NewStore()
	store.Replace([]models.Issue{{ID: "1", Latitude: models.Degrees(12.9), Longitude: models.Degrees(77.5)}})
	slot := executor.NewSlot(clock.NewFake(epoch))
	m := NewMerger(store, slot, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := store.Subscribe(ctx, 4)
	defer cancel()

	assert.True(t, m.Merge(models.Issue{ID: "2", Latitude: models.Degrees(13), Longitude: models.Degrees(77.6)}))
	assert.Equal(t, 2, store.Len())

	ev := <-events
	assert.Equal(t, snapshot.Added, ev.Kind)
	assert.True(t, ev.Open)

	msg, ok := slot.Current()
	require.True(t, ok)
	assert.Equal(t, MergedText, msg.Text)
	assert.Equal(t, MergedTimeout, msg.Timeout)

	assert.False(t, m.Merge(models.Issue{ID: "3"}))
	assert.Equal(t, 2, store.Len())
}

func TestMergerRunStopsWhenChannelCloses(t *testing.T) {
	store := snapshot.NewStore()
	m := NewMerger(store, executor.NewSlot(clock.NewFake(epoch)), nil)
	issues := make(chan models.Issue, 1)
	issues <- models.Issue{ID: "9", Latitude: models.Degrees(1), Longitude: models.Degrees(1)}
	close(issues)

	require.NoError(t, m.Run(context.Background(), issues))
	assert.Equal(t, 1, store.Len())
}
