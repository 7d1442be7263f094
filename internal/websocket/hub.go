package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/coursedeck/api/internal/model"
)

// Client is one live subscription to a job's progress stream.
type Client struct {
	ProcessID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub fans extraction lifecycle events out to websocket subscribers,
// grouped by process id. Polling stays the contract of record; the hub is
// a convenience for clients that want push updates.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu sync.RWMutex
}

type broadcastMessage struct {
	processID string
	payload   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ProcessID] == nil {
				h.clients[client.ProcessID] = make(map[*Client]bool)
			}
			h.clients[client.ProcessID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ProcessID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.ProcessID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.processID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.payload:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastProgress sends a progress milestone to job subscribers.
func (h *Hub) BroadcastProgress(processID string, progress int, status model.JobStatus) {
	h.send(processID, model.WSProgressMessage{
		Type:      model.WSMessageTypeProgress,
		ProcessID: processID,
		Progress:  progress,
		Status:    status,
	})
}

// BroadcastComplete tells subscribers the extracted text is ready.
func (h *Hub) BroadcastComplete(processID string, textLength int) {
	h.send(processID, model.WSCompleteMessage{
		Type:       model.WSMessageTypeComplete,
		ProcessID:  processID,
		TextLength: textLength,
		Status:     model.JobStatusCompleted,
	})
}

// BroadcastError tells subscribers the job failed.
func (h *Hub) BroadcastError(processID string, message string) {
	h.send(processID, model.WSErrorMessage{
		Type:      model.WSMessageTypeError,
		ProcessID: processID,
		Status:    model.JobStatusError,
		Message:   message,
	})
}

func (h *Hub) send(processID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal ws message: %v", err)
		return
	}
	h.broadcast <- &broadcastMessage{processID: processID, payload: data}
}

// HandleConnection serves one subscriber until it disconnects.
func (h *Hub) HandleConnection(c *websocket.Conn, processID string) {
	client := &Client{
		ProcessID: processID,
		Conn:      c,
		Send:      make(chan []byte, 256),
	}

	h.register <- client
	defer func() { h.unregister <- client }()

	// Writer goroutine with keep-alive pings.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop; clients only ever send ping.
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == model.WSMessageTypePing {
			pong, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			client.Send <- pong
		}
	}
}
