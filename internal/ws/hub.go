package ws

import (
	"encoding/json"
	"errors"
	"sync"
)

// Rooms screens can subscribe to.
const (
	RoomKitchen = "kitchen"
	RoomFloor   = "floor"
)

// ErrBacklogFull is returned when the hub cannot take another broadcast.
var ErrBacklogFull = errors.New("websocket broadcast backlog full")

// Event is a WebSocket message to be broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent routes an event to one room.
type roomEvent struct {
	Room  string
	Event Event
}

// ValidRoom reports whether room is one clients may join.
func ValidRoom(room string) bool {
	return room == RoomKitchen || room == RoomFloor
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients by room
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *roomEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
	}
}

// Run starts the hub's main loop. Call it as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Room] {
				select {
				case client.send <- message:
				default:
					// Slow client: drop it rather than stall the room.
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its send channel. Caller holds mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

// BroadcastToRoom queues an event for every client in room. It never
// blocks; a full backlog returns ErrBacklogFull.
func (h *Hub) BroadcastToRoom(room string, event Event) error {
	select {
	case h.broadcast <- &roomEvent{Room: room, Event: event}:
		return nil
	default:
		return ErrBacklogFull
	}
}
