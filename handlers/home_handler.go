package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"triptracker/observable"
	"triptracker/services"
)

const writeWait = 10 * time.Second

type HomeHandler struct {
	feed     *services.HomeFeed
	upgrader websocket.Upgrader
}

type FeedResponse struct {
	Status  string               `json:"status"`
	Entries []services.FeedEntry `json:"entries"`
	Error   string               `json:"error,omitempty"`
}

func NewHomeHandler(feed *services.HomeFeed, allowedOrigins []string) *HomeHandler {
	return &HomeHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

func (h *HomeHandler) snapshot() FeedResponse {
	entries, status := h.feed.Value().Get()
	resp := FeedResponse{Status: status.String(), Entries: entries}
	if resp.Entries == nil {
		resp.Entries = []services.FeedEntry{}
	}
	if err := h.feed.Value().Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Feed returns the current home feed. A feed that has not loaded yet is
// reported with status "pending" and no entries.
func (h *HomeHandler) Feed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

// Stream pushes the feed over a websocket every time it changes.
func (h *HomeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Value().Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.send(conn, h.snapshot()); err != nil {
		return
	}
	for {
		select {
		case entries, ok := <-updates:
			if !ok {
				return
			}
			if err := h.send(conn, FeedResponse{Status: observable.Ready.String(), Entries: entries}); err != nil {
				log.Printf("WebSocket write failed: %v", err)
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *HomeHandler) send(conn *websocket.Conn, resp FeedResponse) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(resp)
}
