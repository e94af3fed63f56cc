package api

import (
	"net/http"
	"time"

	"invito/internal/hub"
	"invito/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const heartbeatInterval = 30 * time.Second

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type liveRoutes struct {
	hub       *hub.Hub
	heartbeat time.Duration
}

func NewLiveRoutes(handler *gin.RouterGroup, h *hub.Hub) {
	r := &liveRoutes{hub: h, heartbeat: heartbeatInterval}

	handler.GET("/users/live", r.handleLiveUpdates)
}

// handleLiveUpdates upgrades the connection, subscribes it to the hub
// and streams registration events until the client goes away. The
// reader goroutine exists only to notice the disconnect.
func (r *liveRoutes) handleLiveUpdates(c *gin.Context) {
	log := logger.Logger()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := r.hub.Subscribe()

	go r.readLoop(conn, sub)
	go r.writeLoop(conn, sub)
}

func (r *liveRoutes) readLoop(conn *websocket.Conn, sub *hub.Subscription) {
	log := logger.Logger()

	defer func() {
		sub.Close()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (r *liveRoutes) writeLoop(conn *websocket.Conn, sub *hub.Subscription) {
	log := logger.Logger()

	defer func() {
		sub.Close()
		conn.Close()
	}()

	// Snapshot message so clients can tell "stream established" from
	// the first real event.
	if err := writeMessage(conn, Message{Type: "connected"}); err != nil {
		log.Error("failed to send connected message", zap.Error(err))
		return
	}

	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()

	var lastDropped uint64

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}

			if d := sub.Dropped(); d > lastDropped {
				log.Warn("subscriber lagging, events dropped",
					zap.Uint64("dropped", d-lastDropped))
				lastDropped = d
			}

			msg := Message{
				Type:    "user_created",
				Payload: map[string]any{"user": ev.User},
			}
			if err := writeMessage(conn, msg); err != nil {
				log.Error("failed to send registration event", zap.Error(err))
				return
			}

		case <-ticker.C:
			msg := Message{
				Type:    "heartbeat",
				Payload: map[string]any{"status": "ok"},
			}
			if err := writeMessage(conn, msg); err != nil {
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
