package realtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/apex/log"
	"github.com/gorilla/websocket"
)

// WebsocketSubscriber reads events from a websocket endpoint.
type WebsocketSubscriber struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
}

func (s *WebsocketSubscriber) Name() string { return "websocket" }

// Dial opens the socket and pumps text frames until it fails or ctx ends.
func (s *WebsocketSubscriber) Dial(ctx context.Context) (<-chan []byte, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, s.URL, s.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s: status %d: %w", s.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", s.URL, err)
	}

	out := make(chan []byte, 16)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && ctx.Err() == nil {
					log.WithError(err).Warn("websocket read failed")
				}
				return
			}
			if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
				continue
			}
			select {
			case out <- data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
