package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/logger"
)

const sendBufferSize = 64

// Event is the frame pushed to a user's sessions.
type Event struct {
	Type      string       `json:"type"`
	Order     *model.Order `json:"order,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type delivery struct {
	userID  uint
	payload []byte
}

type countRequest struct {
	userID uint
	reply  chan int
}

// Hub tracks every open session per user. All map access happens on the Run
// goroutine; callers talk to it through channels.
type Hub struct {
	sessions map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	publish    chan delivery
	count      chan countRequest
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		publish:    make(chan delivery, 1024),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.sessions[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.sessions[client.userID] = set
			}
			set[client] = struct{}{}
			logger.Info("WebSocket session registered", map[string]interface{}{
				"user_id":  client.userID,
				"sessions": len(set),
			})

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.publish:
			for client := range h.sessions[msg.userID] {
				select {
				case client.send <- msg.payload:
				default:
					logger.Warn("Session send buffer full, disconnecting", map[string]interface{}{
						"user_id": msg.userID,
					})
					h.drop(client)
				}
			}

		case req := <-h.count:
			req.reply <- len(h.sessions[req.userID])

		case <-h.done:
			for _, set := range h.sessions {
				for client := range set {
					close(client.send)
				}
			}
			h.sessions = make(map[uint]map[*Client]struct{})
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	set, ok := h.sessions[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.sessions, client.userID)
	}
	logger.Debug("WebSocket session unregistered", map[string]interface{}{
		"user_id":  client.userID,
		"sessions": len(set),
	})
}

// Stop closes every session and ends Run.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Serve attaches an upgraded connection to userID and starts its pumps.
func (h *Hub) Serve(conn *websocket.Conn, userID uint) {
	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// PublishToUser queues event for every session of userID without blocking.
func (h *Hub) PublishToUser(userID uint, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case h.publish <- delivery{userID: userID, payload: data}:
	default:
		logger.Warn("Publish queue full, event dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// NotifyOrder pushes an order event to the order's owner.
func (h *Hub) NotifyOrder(userID uint, eventType string, order *model.Order) {
	err := h.PublishToUser(userID, Event{
		Type:      eventType,
		Order:     order,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		logger.Error("Failed to encode order event", err, map[string]interface{}{
			"user_id": userID,
			"type":    eventType,
		})
	}
}

// SessionCount reports how many sessions userID has open.
func (h *Hub) SessionCount(userID uint) int {
	req := countRequest{userID: userID, reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}
