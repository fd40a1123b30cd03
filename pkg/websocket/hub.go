package websocket

import (
	"context"
	"encoding/json"
	"time"

	"ridelifecycle/pkg/logger"
)

// Hub fans messages out to the clients subscribed to a room. All room state is
// owned by the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	rooms      map[string]map[*Client]bool
	done       chan struct{}
	logger     *logger.Logger
}

type Message struct {
	Type      string      `json:"type"`
	Room      string      `json:"room"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
		rooms:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, room := range h.rooms {
			for client := range room {
				close(client.send)
			}
		}
		h.rooms = make(map[string]map[*Client]bool)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.sendToRoom(message)
		}
	}
}

// Broadcast queues message for its room. It reports false once the hub has stopped.
func (h *Hub) Broadcast(ctx context.Context, message *Message) bool {
	if message.Timestamp == 0 {
		message.Timestamp = getCurrentTimestamp()
	}
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- message:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	if h.rooms[client.room] == nil {
		h.rooms[client.room] = make(map[*Client]bool)
	}
	h.rooms[client.room][client] = true
	h.logger.WithFields(map[string]interface{}{
		"room":    client.room,
		"user_id": client.UserID,
	}).Debug("Stream client registered")

	h.sendToClient(client, &Message{
		Type:      "subscribed",
		Room:      client.room,
		Timestamp: getCurrentTimestamp(),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	room, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	h.drop(client)
	h.logger.WithFields(map[string]interface{}{
		"room":    client.room,
		"user_id": client.UserID,
	}).Debug("Stream client unregistered")
}

func (h *Hub) drop(client *Client) {
	room := h.rooms[client.room]
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.room)
	}
	close(client.send)
}

func (h *Hub) sendToRoom(message *Message) {
	room, exists := h.rooms[message.Room]
	if !exists {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode stream message")
		return
	}
	for client := range room {
		h.deliver(client, data)
	}
}

func (h *Hub) sendToClient(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode stream message")
		return
	}
	h.deliver(client, data)
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.WithField("room", client.room).Warn("Dropping slow stream client")
		h.drop(client)
	}
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
