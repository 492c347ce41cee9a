package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// Record event types.
const (
	RecordCreated  = "record.created"
	RecordUpdated  = "record.updated"
	RecordApproved = "record.approved"
	RecordRejected = "record.rejected"
	RecordDeleted  = "record.deleted"
)

// Event is a real-time notification pushed to subscribers of a game.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is the channel an SSE handler reads encoded events from.
type Client chan []byte

// Hub fans out events to the clients watching each game.
type Hub struct {
	games map[uint]map[Client]bool
	mu    sync.RWMutex
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		games: make(map[uint]map[Client]bool),
	}
}

// Subscribe registers a buffered client for a game's events.
func (h *Hub) Subscribe(gameID uint) Client {
	client := make(Client, 16)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.games[gameID]; !ok {
		h.games[gameID] = make(map[Client]bool)
	}
	h.games[gameID][client] = true
	return client
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(gameID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.games[gameID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client)
	if len(clients) == 0 {
		delete(h.games, gameID)
	}
}

// Subscribers returns how many clients watch a game.
func (h *Hub) Subscribers(gameID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// Broadcast sends an event to every client of a game. Slow clients whose
// buffer is full miss the event.
func (h *Hub) Broadcast(gameID uint, event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.games[gameID]
	if !ok {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: encode %s event: %v", event.Type, err)
		return
	}
	for client := range clients {
		select {
		case client <- data:
		default:
		}
	}
}
