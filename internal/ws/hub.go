package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSeatReserved        MessageType = "seat_reserved"
	MessageTypeReservationReleased MessageType = "reservation_released"
	MessageTypeReservationFailed   MessageType = "reservation_failed"
	MessageTypeSeatBooked          MessageType = "seat_booked"
)

// Message is the wire format sent to subscribers of a flight.
type Message struct {
	Type       MessageType `json:"type"`
	FlightID   int64       `json:"flight_id"`
	SeatNumber string      `json:"seat_number"`
	BookingRef string      `json:"booking_ref,omitempty"`
	IsSelf     bool        `json:"is_self,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}

// broadcastMsg pairs a Message with the holder it originates from so the
// hub can tag is_self per recipient. holderID never goes on the wire.
type broadcastMsg struct {
	msg      Message
	holderID string
}

// Hub manages WebSocket connections per flight. All hold-state broadcasts
// go only to subscribers of that flight, never globally.
type Hub struct {
	clients    map[int64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.flightID] == nil {
				h.clients[client.flightID] = make(map[*Client]bool)
			}
			h.clients[client.flightID][client] = true
			h.mu.Unlock()
			log.Printf("ws: holder %s subscribed to flight %d", client.holderID, client.flightID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.flightID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.flightID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("ws: holder %s left flight %d", client.holderID, client.flightID)

		case bm := <-h.broadcast:
			h.deliver(bm)
		}
	}
}

func (h *Hub) deliver(bm *broadcastMsg) {
	// two payloads, marshaled once: the holder's own view and everyone
	// else's
	selfMsg := bm.msg
	selfMsg.IsSelf = true
	selfData, err := json.Marshal(selfMsg)
	if err != nil {
		log.Printf("ws: failed to marshal message: %v", err)
		return
	}
	otherData, err := json.Marshal(bm.msg)
	if err != nil {
		log.Printf("ws: failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[bm.msg.FlightID]))
	for client := range h.clients[bm.msg.FlightID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		data := otherData
		if bm.holderID != "" && bm.holderID == client.holderID {
			data = selfData
		}
		select {
		case client.send <- data:
		default:
			// slow consumer, drop it
			h.mu.Lock()
			if _, ok := h.clients[bm.msg.FlightID][client]; ok {
				delete(h.clients[bm.msg.FlightID], client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastSeatReserved tells every subscriber of the flight that a hold
// was placed; the holder's own connection sees is_self=true.
func (h *Hub) BroadcastSeatReserved(flightID int64, seatNumber, bookingRef, holderID string) {
	h.broadcast <- &broadcastMsg{
		msg: Message{
			Type:       MessageTypeSeatReserved,
			FlightID:   flightID,
			SeatNumber: seatNumber,
			BookingRef: bookingRef,
			Timestamp:  time.Now().UnixMilli(),
		},
		holderID: holderID,
	}
}

// BroadcastReservationReleased makes the seat selectable again in every
// connected client.
func (h *Hub) BroadcastReservationReleased(flightID int64, seatNumber string) {
	h.broadcast <- &broadcastMsg{
		msg: Message{
			Type:       MessageTypeReservationReleased,
			FlightID:   flightID,
			SeatNumber: seatNumber,
			Timestamp:  time.Now().UnixMilli(),
		},
	}
}

// BroadcastSeatBooked announces a permanent durable assignment.
func (h *Hub) BroadcastSeatBooked(flightID int64, seatNumber, bookingRef string) {
	h.broadcast <- &broadcastMsg{
		msg: Message{
			Type:       MessageTypeSeatBooked,
			FlightID:   flightID,
			SeatNumber: seatNumber,
			BookingRef: bookingRef,
			Timestamp:  time.Now().UnixMilli(),
		},
	}
}

// ClientCount returns the number of subscribers for a flight.
func (h *Hub) ClientCount(flightID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[flightID])
}
