package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vdbops/vantage/internal/activity"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin console; the dashboard is served from this process.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleActivityWS streams activity feed lines to the browser as they
// happen. Each message is one JSON-encoded feed entry. The connection
// lives until the client disconnects or an operational event can no
// longer be delivered.
func (s *WebServer) handleActivityWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(ch)

	// Drain client frames so close messages are processed; the console
	// never sends anything meaningful upstream.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				return
			}
			msg := activity.Describe(evt)
			if msg == "" {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			payload := map[string]any{"ts": evt.Timestamp, "message": msg}
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}
}
