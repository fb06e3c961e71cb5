package handlers

import (
	"net/http"
	"time"

	"warehouse_backend/internal/socket"
	"warehouse_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// pongWait is the maximum time to wait for a ping from the client before
// the connection is considered dead.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades connections and hands them to the Hub.
type WebSocketHandler struct {
	Hub *socket.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *socket.Hub) *WebSocketHandler {
	return &WebSocketHandler{Hub: hub}
}

// ServeWs handles WebSocket upgrade requests. Clients authenticate with a
// token query parameter because browsers cannot set headers on WebSocket
// upgrades.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	if _, err := utils.ValidateToken(tokenString); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogError(err, "ServeWs: Failed to upgrade connection")
		return
	}

	h.Hub.Register(conn)

	defer func() {
		h.Hub.Unregister(conn)
		conn.Close()
	}()

	// Heartbeat: the client pings, we extend the read deadline. The gorilla
	// library answers with a pong automatically.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.LogError(err, "ServeWs: Unexpected close error")
			}
			break
		}
	}
}
