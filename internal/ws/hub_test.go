package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"microsoc/internal/pubsub"
)

func TestHubBroadcastsBrokerMessages(t *testing.T) {
	broker := pubsub.NewBroker(8)
	hub := NewHub(broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration completes inside ServeHTTP shortly after the handshake;
	// give it a moment before publishing.
	time.Sleep(100 * time.Millisecond)

	broker.Publish(pubsub.Message{
		Type: pubsub.TypeNewEvent,
		Data: map[string]string{"id": "ev-1"},
	})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var msg pubsub.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != pubsub.TypeNewEvent {
		t.Fatalf("unexpected message type: %s", msg.Type)
	}
}

func TestHubClientDisconnectDoesNotBlockPublish(t *testing.T) {
	broker := pubsub.NewBroker(8)
	hub := NewHub(broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	// Publishing after the client is gone must not stall the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			broker.Publish(pubsub.Message{Type: pubsub.TypeNewEvent})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked after client disconnect")
	}
}
