package ws

import (
	"errors"
	"net/http"
	"time"

	"indico/config"
	"indico/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var ErrTokenRequired = errors.New("token required")

// Authenticate reads the access token from the "token" query parameter or the
// Authorization header; browsers cannot set headers on WebSocket handshakes.
func Authenticate(cfg *config.JWTConfig, c *gin.Context) (auth.Identity, error) {
	token := c.Query("token")
	if token == "" {
		if h := c.GetHeader("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
			token = h[7:]
		}
	}
	if token == "" {
		return auth.Identity{}, ErrTokenRequired
	}
	claims, err := auth.ParseAccessToken(cfg, token)
	if err != nil {
		return auth.Identity{}, err
	}
	return claims.Identity(), nil
}

func Upgrade(c *gin.Context) (*websocket.Conn, error) {
	return upgrader.Upgrade(c.Writer, c.Request, nil)
}

// UpgradeNotificationWS streams a user's notifications while the socket is open.
func UpgradeNotificationWS(cfg *config.JWTConfig, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := Authenticate(cfg, c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		conn, err := Upgrade(c)
		if err != nil {
			return
		}
		defer conn.Close()
		client := NewClient(id.UserID, id.Role)
		hub.Register(client)
		defer client.Close()
		go WritePump(client.Send, conn)
		ReadPump(conn)
	}
}

// WritePump copies messages from send to the connection until send is closed.
func WritePump(send <-chan []byte, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump discards inbound frames and returns when the peer goes away.
func ReadPump(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
