// Package realtime pushes seat status changes to connected clients over
// SockJS. Clients subscribe per trip and reconcile their local selection
// against the broadcasts before submitting a hold.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"fasobus/internal/domain/models"
	"fasobus/internal/holds"
)

type Client struct {
	ID     string
	Send   chan []byte
	TripID int64
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type SubscribeMessage struct {
	Action string `json:"action"`
	TripID int64  `json:"trip_id"`
}

type seatEvent struct {
	Type   string                       `json:"type"`
	TripID int64                        `json:"trip_id"`
	Seats  map[string]models.SeatStatus `json:"seats"`
	SentAt time.Time                    `json:"sent_at"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) Subscribe(client *Client, tripID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.TripID = tripID
}

// BroadcastSeatChange fans a registry change event out to every client
// subscribed to the trip. Slow clients lose the message, not the stream.
func (h *Hub) BroadcastSeatChange(ev holds.ChangeEvent) {
	payload, err := json.Marshal(seatEvent{
		Type:   "seat_change",
		TripID: ev.TripID,
		Seats:  ev.Seats,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.TripID != ev.TripID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop seat event for client %s", client.ID)
		}
	}
}

func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}
