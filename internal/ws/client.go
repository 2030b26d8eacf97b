package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/kiwari-pos/tableside/internal/auth"
	"github.com/kiwari-pos/tableside/internal/enum"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must stay below pongWait
	maxMessageSize = 512
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Screens connect from any origin; the token is the gate.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is a single WebSocket connection subscribed to one room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	room string
	send chan []byte
}

// ReadPump only watches for disconnects; screens never send commands.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			log.Printf("WARN: ws %s: %v", c.room, err)
		}
		return
	}
}

// WritePump delivers one event per text frame and keeps the peer alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub dropped us.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// admit checks the query token and room before the upgrade. It returns
// the room, or an HTTP status and message to reject with.
func admit(jwtSecret string, r *http.Request) (string, int, string) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return "", http.StatusUnauthorized, "missing token"
	}
	claims, err := auth.ValidateToken(jwtSecret, tokenStr)
	if err != nil {
		return "", http.StatusUnauthorized, "invalid token"
	}

	room := chi.URLParam(r, "room")
	if !ValidRoom(room) {
		return "", http.StatusNotFound, "unknown room"
	}
	if claims.Role == enum.UserRoleKitchen && room != RoomKitchen {
		return "", http.StatusForbidden, "room access denied"
	}
	return room, 0, ""
}

// ServeWS handles WS /ws/{room}?token=JWT
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	room, status, msg := admit(jwtSecret, r)
	if status != 0 {
		http.Error(w, msg, status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR: ws upgrade: %v", err)
		return
	}

	client := &Client{hub: hub, conn: conn, room: room, send: make(chan []byte, sendBuffer)}
	hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
