package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"quizhub/models"

	"github.com/gorilla/websocket"
)

// Hub pushes refreshed leaderboard standings to subscribed clients. Each
// client watches one creator's board, optionally narrowed to a single
// question set; a successful submission triggers a broadcast.
type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	mutex       sync.RWMutex
	leaderboard *LeaderboardService
}

type Client struct {
	hub           *Hub
	id            string
	socket        *websocket.Conn
	send          chan []byte
	creatorID     uint
	questionSetID *uint
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(leaderboard *LeaderboardService) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		leaderboard: leaderboard,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Leaderboard client registered: %s (creator %d) - total clients: %d", client.id, client.creatorID, len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Leaderboard client unregistered: %s (creator %d) - total clients: %d", client.id, client.creatorID, len(h.clients))
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastStandings recomputes the visible board for a creator and pushes
// it to every client watching that creator. Clients pinned to a different
// question set than the one that changed are skipped.
func (h *Hub) BroadcastStandings(creatorID uint, questionSetID *uint) {
	h.mutex.RLock()
	watchers := []*Client{}
	for client := range h.clients {
		if client.creatorID != creatorID {
			continue
		}
		if client.questionSetID != nil && questionSetID != nil && *client.questionSetID != *questionSetID {
			continue
		}
		watchers = append(watchers, client)
	}
	h.mutex.RUnlock()

	for _, client := range watchers {
		filters := LeaderboardFilters{CreatedBy: &client.creatorID, QuestionSetID: client.questionSetID}
		entries, err := h.leaderboard.GetLeaderboard(filters)
		if err != nil {
			log.Printf("Error loading standings for creator %d: %v", client.creatorID, err)
			continue
		}

		data, err := json.Marshal(Message{Type: "leaderboard_update", Payload: entries})
		if err != nil {
			log.Printf("Error marshaling leaderboard update: %v", err)
			continue
		}

		h.mutex.Lock()
		if _, ok := h.clients[client]; ok {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// BroadcastForQuestionSet resolves the set's creator and refreshes that
// creator's watchers. Called after a successful submission.
func (h *Hub) BroadcastForQuestionSet(questionSetID uint) {
	var set models.QuestionSet
	if err := h.leaderboard.db.First(&set, questionSetID).Error; err != nil {
		log.Printf("Error resolving question set %d for broadcast: %v", questionSetID, err)
		return
	}
	setID := set.ID
	h.BroadcastStandings(set.CreatedBy, &setID)
}

func (h *Hub) RegisterClient(conn *websocket.Conn, creatorID uint, questionSetID *uint) *Client {
	client := &Client{
		hub:           h,
		id:            generateClientID(),
		socket:        conn,
		send:          make(chan []byte, 256),
		creatorID:     creatorID,
		questionSetID: questionSetID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer func() {
		c.socket.Close()
	}()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		c.send <- data

	case "refresh":
		// Client asked for the current standings out of band.
		c.hub.BroadcastStandings(c.creatorID, c.questionSetID)

	default:
		log.Printf("Unknown message type %q from leaderboard client %s", msg.Type, c.id)
	}
}

func generateClientID() string {
	return fmt.Sprintf("client_%d", time.Now().UnixNano())
}
