package websocket

import (
	"strings"
	"sync"
	"testing"
)

func TestBroadcastToUserDeliversToMatchingClients(t *testing.T) {
	h := NewHub()
	mine := &Client{send: make(chan []byte, 1), userID: 1}
	other := &Client{send: make(chan []byte, 1), userID: 2}
	h.clients[mine] = true
	h.clients[other] = true

	h.BroadcastToUser(1, Message{Type: "notification"})

	select {
	case msg := <-mine.send:
		if !strings.Contains(string(msg), "notification") {
			t.Errorf("unexpected payload %q", msg)
		}
	default:
		t.Fatal("expected a message for user 1")
	}

	select {
	case msg := <-other.send:
		t.Fatalf("user 2 received %q", msg)
	default:
	}

	if got := h.GetClientCount(); got != 2 {
		t.Errorf("client count = %d, want 2", got)
	}
}

func TestBroadcastToUserEvictsStalledClientsConcurrently(t *testing.T) {
	h := NewHub()
	for i := 0; i < 8; i++ {
		// Unbuffered send channels so every delivery attempt stalls.
		h.clients[&Client{send: make(chan []byte), userID: 7}] = true
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.BroadcastToUser(7, Message{Type: "notification"})
		}()
	}
	wg.Wait()

	if got := h.GetClientCount(); got != 0 {
		t.Errorf("client count after eviction = %d, want 0", got)
	}
}
