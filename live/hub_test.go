package live

import (
	"testing"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
)

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()
	a := hub.Register(&websocket.Conn{})
	b := hub.Register(&websocket.Conn{})
	assert.Equal(t, 2, hub.ClientCount())

	hub.Broadcast("event_created")

	assert.Equal(t, "event_created", <-a)
	assert.Equal(t, "event_created", <-b)
}

func TestBroadcastNeverBlocksOnSlowConsumer(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}
	ch := hub.Register(conn)

	// Overfill the buffer; extra notices are dropped, not queued.
	for i := 0; i < cap(ch)+10; i++ {
		hub.Broadcast("event_created")
	}

	assert.Len(t, ch, cap(ch))
}

func TestUnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}
	ch := hub.Register(conn)

	hub.Unregister(conn)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-ch
	assert.False(t, open)

	// Double unregister is a no-op.
	hub.Unregister(conn)
}

func TestBroadcastWithNoClientsIsSafe(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("event_created")
	assert.Equal(t, 0, hub.ClientCount())
}
