package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"microsoc/internal/logger"
	"microsoc/internal/metrics"
	"microsoc/internal/pubsub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans messages from the broker out to connected websocket clients.
type Hub struct {
	broker     *pubsub.Broker
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
}

func NewHub(broker *pubsub.Broker) *Hub {
	return &Hub{
		broker:     broker,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set until ctx is cancelled. All registration and
// broadcast happens on this goroutine, so no lock is needed.
func (h *Hub) Run(ctx context.Context) {
	sub := h.broker.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.ConnectedObservers.Inc()
			logger.Debugf("ws: client connected (%d total)", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer; disconnect rather than stall the hub.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	metrics.ConnectedObservers.Dec()
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("ws: upgrade failed: %v", err)
		return
	}
	client := newClient(h, conn)
	h.register <- client
	client.start()
}
