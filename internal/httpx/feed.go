package httpx

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	kafkago "github.com/segmentio/kafka-go"
)

// Feed pushes order events to connected admin dashboards. It is fed by a
// Kafka consumer over the order topics running inside the API process.
type Feed struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

func (f *Feed) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	f.mu.Lock()
	f.conns[conn] = true
	f.mu.Unlock()

	// read loop only to notice the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.mu.Lock()
			delete(f.conns, conn)
			f.mu.Unlock()
			return
		}
	}
}

func (f *Feed) Broadcast(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			conn.Close()
			delete(f.conns, conn)
		}
	}
}

// HandleOrderEvent forwards order event envelopes to the dashboards.
func (f *Feed) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	f.Broadcast(m.Value)
	return nil
}
