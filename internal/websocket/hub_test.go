package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskhub/internal/models"
)

// fakeConn merekam pesan yang ditulis hub.
type fakeConn struct {
	mu       sync.Mutex
	messages []string
	closed   bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, string(data))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// Event harus sampai hanya ke koneksi milik owner, tidak pernah ke user lain.
func TestHubDeliversOnlyToOwner(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	connA := &fakeConn{}
	connB := &fakeConn{}
	hub.Register <- &Client{UserID: 1, Conn: connA}
	hub.Register <- &Client{UserID: 2, Conn: connB}

	task := &models.Task{ID: 10, UserID: 1, Title: "t", Status: models.StatusPending}
	hub.Publish(1, Event{Event: "task_created", Task: task})

	waitFor(t, func() bool { return len(connA.received()) == 1 })
	assert.Contains(t, connA.received()[0], `"task_created"`)
	assert.Empty(t, connB.received())
}

func TestHubMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := &fakeConn{}
	second := &fakeConn{}
	hub.Register <- &Client{UserID: 1, Conn: first}
	hub.Register <- &Client{UserID: 1, Conn: second}

	hub.Publish(1, Event{Event: "task_deleted", TaskID: 5})

	waitFor(t, func() bool {
		return len(first.received()) == 1 && len(second.received()) == 1
	})
	assert.Contains(t, first.received()[0], `"task_id":5`)
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := &fakeConn{}
	client := &Client{UserID: 1, Conn: conn}
	hub.Register <- client
	hub.Unregister <- client

	waitFor(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.closed
	})

	hub.Publish(1, Event{Event: "task_deleted", TaskID: 5})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, conn.received())
}
