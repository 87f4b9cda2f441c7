package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the HTTP layer; the socket accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClient adapts a websocket connection to the chat hub. Writes are
// serialized by the hub's mutex.
type wsClient struct {
	conn *websocket.Conn
}

func (c *wsClient) SendJSON(v any) error {
	return c.conn.WriteJSON(v)
}

// ChatSocket upgrades the request and runs the connection's read loop until
// it disconnects.
func (h *Handler) ChatSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	h.Hub.Join(client)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			h.Hub.Leave(client)
			return
		}
		h.Hub.HandleInbound(client, raw)
	}
}
