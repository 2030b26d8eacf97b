package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kiwari-pos/tableside/internal/service"
)

// Notifier pushes service events to connected screens. Ticket changes go
// to the kitchen and floor rooms; table changes go to the floor room.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates a Notifier on hub.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) TicketChanged(_ context.Context, ev service.TicketEvent) error {
	event, err := newEvent("ticket."+strings.ToLower(ev.Status), ev)
	if err != nil {
		return err
	}
	return errors.Join(
		n.hub.BroadcastToRoom(RoomKitchen, event),
		n.hub.BroadcastToRoom(RoomFloor, event),
	)
}

func (n *Notifier) TableChanged(_ context.Context, ev service.TableEvent) error {
	event, err := newEvent("table.changed", ev)
	if err != nil {
		return err
	}
	return n.hub.BroadcastToRoom(RoomFloor, event)
}

func newEvent(typ string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return Event{Type: typ, Payload: data}, nil
}
