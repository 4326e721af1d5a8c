package ws

import (
	"encoding/json"
	"log"
	"sync"

	"go-stockwise/internal/session"
	"go-stockwise/internal/store"

	"github.com/gofiber/contrib/websocket"
)

// Hub fans data and auth change events out to connected clients, the same
// role the storage event plays between browser tabs: every client hears
// about every committed mutation and every sign-in or sign-out.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS Client Connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// WatchStore forwards store change events to all clients. The returned
// func cancels the subscription.
func (h *Hub) WatchStore(st *store.Store) func() {
	return st.OnChange(func(ev store.Event) {
		payload := map[string]interface{}{
			"type":      "data_update",
			"table":     ev.Table,
			"action":    ev.Action,
			"record_id": ev.RecordID,
		}
		msg, err := json.Marshal(payload)
		if err != nil {
			return
		}
		go func() { h.Broadcast <- msg }()
	})
}

// WatchSession forwards auth state transitions to all clients.
func (h *Hub) WatchSession(sessions *session.Manager) func() {
	return sessions.OnChange(func(ev session.Event) {
		payload := map[string]interface{}{
			"type":          "auth_update",
			"authenticated": ev.Authenticated,
		}
		if ev.User != nil {
			payload["username"] = ev.User.Username
		}
		if ev.Reason != "" {
			payload["reason"] = ev.Reason
		}
		msg, err := json.Marshal(payload)
		if err != nil {
			return
		}
		go func() { h.Broadcast <- msg }()
	})
}
