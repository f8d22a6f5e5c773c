package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"taskhub/internal/models"
	"taskhub/pkg/logger"
)

// Conn adalah bagian dari *websocket.Conn yang dipakai hub.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client merepresentasikan satu koneksi WebSocket milik satu user.
type Client struct {
	UserID int
	Conn   Conn
	Mu     sync.Mutex
}

// Event adalah payload yang dikirim ke client saat task berubah.
// Untuk task_deleted hanya task_id yang dikirim.
type Event struct {
	Event  string       `json:"event"`
	Task   *models.Task `json:"task,omitempty"`
	TaskID int          `json:"task_id,omitempty"`
}

type message struct {
	userID  int
	payload []byte
}

// Hub mengelola koneksi WebSocket per user. Event hanya dikirim ke koneksi
// milik owner record yang berubah, tidak pernah di-broadcast ke semua.
type Hub struct {
	clients    map[int]map[*Client]bool
	publish    chan message
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int]map[*Client]bool),
		publish:    make(chan message, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Publish mengirim event task ke semua koneksi milik userID.
func (h *Hub) Publish(userID int, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case h.publish <- message{userID: userID, payload: payload}:
	default:
		// Hub penuh; notifikasi bersifat best-effort
		logger.ErrorLogger.Error("Websocket publish buffer full",
			zap.Int("user_id", userID),
		)
	}
}

// Run menjalankan loop Hub untuk mengelola register, unregister, dan publish.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
		case client := <-h.Unregister:
			h.remove(client)
		case msg := <-h.publish:
			for client := range h.clients[msg.userID] {
				client.Mu.Lock()
				err := client.Conn.WriteMessage(websocket.TextMessage, msg.payload)
				client.Mu.Unlock()
				if err != nil {
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	if conns, ok := h.clients[client.UserID]; ok && conns[client] {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
		client.Conn.Close()
	}
}
