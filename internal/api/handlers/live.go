package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/google/uuid"
	"github.com/rouletted/roulette-tracker/internal/logging"
	"github.com/rouletted/roulette-tracker/internal/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS middleware.
		return true
	},
}

// LiveHandler upgrades clients onto the live spin feed
type LiveHandler struct {
	hub *websocket.Hub
}

// NewLiveHandler creates a live feed handler
func NewLiveHandler(hub *websocket.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// HandleLiveFeed subscribes a WebSocket client to recorded spins
func (h *LiveHandler) HandleLiveFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.L().Error("websocket upgrade failed", "error", err)
		return
	}

	client := &websocket.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Room: websocket.LiveFeed,
		Send: make(chan *websocket.Message, 64),
		Hub:  h.hub,
	}

	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
