package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"vocab-quiz-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type feedMessage struct {
	Type    string                `json:"type"`
	Payload domain.ProgressUpdate `json:"payload"`
}

// serveFeed streams progress updates to the authenticated user over a
// websocket: a snapshot on connect, then one message per recorded session.
// The stream is one-way; inbound frames are read only to detect close.
func (h *Handler) serveFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	overview, err := h.progress.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe(userID)
	defer cancel()

	snapshot := domain.ProgressUpdate{
		UserID:      userID,
		TotalPoints: overview.Profile.TotalPoints,
		Streak:      overview.Profile.Streak,
	}
	if overview.Profile.LastActivityDate != nil {
		snapshot.LastActivity = *overview.Profile.LastActivityDate
	}
	if err := conn.WriteJSON(feedMessage{Type: "snapshot", Payload: snapshot}); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(feedMessage{Type: "progress", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
