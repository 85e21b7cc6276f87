package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SeatCommands is what a connected holder can do with seats. Implemented
// by the reservation registry.
type SeatCommands interface {
	Reserve(ctx context.Context, flightID int64, seatNumber, bookingRef, holderID string) error
	Release(ctx context.Context, flightID int64, seatNumber string) error
	OnHolderDisconnected(holderID string)
}

// Command is an inbound frame from a connected agent.
type Command struct {
	Action     string `json:"action"`
	SeatNumber string `json:"seat_number"`
	BookingRef string `json:"booking_ref,omitempty"`
}

// Client is one subscribed connection. Its holderID is the holder
// identity for every hold placed over this connection.
type Client struct {
	hub      *Hub
	commands SeatCommands
	conn     *websocket.Conn
	send     chan []byte
	flightID int64
	holderID string
}

// ServeWS upgrades the request and subscribes the connection to the flight.
func ServeWS(hub *Hub, commands SeatCommands, flightID int64, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:      hub,
		commands: commands,
		conn:     conn,
		send:     make(chan []byte, 64),
		flightID: flightID,
		holderID: uuid.NewString(),
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}

// HolderID exposes the connection's holder identity for tests.
func (c *Client) HolderID() string { return c.holderID }

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		// release every hold this connection owns; the resulting
		// broadcasts go to the remaining subscribers
		c.commands.OnHolderDisconnected(c.holderID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: holder %s read error: %v", c.holderID, err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("ws: holder %s sent malformed command: %v", c.holderID, err)
			continue
		}
		c.handle(cmd)
	}
}

func (c *Client) handle(cmd Command) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	switch cmd.Action {
	case "reserve":
		if err := c.commands.Reserve(ctx, c.flightID, cmd.SeatNumber, cmd.BookingRef, c.holderID); err != nil {
			// failures go back to the requester only, never broadcast
			c.sendMessage(Message{
				Type:       MessageTypeReservationFailed,
				FlightID:   c.flightID,
				SeatNumber: cmd.SeatNumber,
				Reason:     err.Error(),
				Timestamp:  time.Now().UnixMilli(),
			})
		}
	case "release":
		if err := c.commands.Release(ctx, c.flightID, cmd.SeatNumber); err != nil {
			log.Printf("ws: release %d/%s: %v", c.flightID, cmd.SeatNumber, err)
		}
	default:
		log.Printf("ws: holder %s sent unknown action %q", c.holderID, cmd.Action)
	}
}

func (c *Client) sendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
