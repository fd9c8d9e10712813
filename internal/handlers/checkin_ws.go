package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/evently-hq/evently-backend/internal/services"
)

// feedUpgrader is the shared upgrader for check-in feed connections.
var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// CheckInFeed handles GET /ws/checkins?event_id=. Dashboards subscribe here
// to see check-ins as they happen; events are fanned out from Redis pub/sub
// so every instance delivers the same stream.
func CheckInFeed(w http.ResponseWriter, r *http.Request) {
	eventIDParam := r.URL.Query().Get("event_id")
	if eventIDParam == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}
	eventID, err := uuid.Parse(eventIDParam)
	if err != nil {
		http.Error(w, "invalid event_id", http.StatusBadRequest)
		return
	}

	event, err := eventByID(eventID)
	if err != nil {
		http.Error(w, "failed to fetch event", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	eventsCh, unsubscribe := services.SubscribeCheckInFeed(eventID.String())
	defer unsubscribe()

	// Writer: forward feed events to this connection. A write failure closes
	// the conn so the read loop below unblocks. The goroutine itself exits
	// when unsubscribe closes the channel.
	go func() {
		for evt := range eventsCh {
			if err := conn.WriteJSON(evt); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// Reader loop: keep the connection alive and detect disconnects.
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
