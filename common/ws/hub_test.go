package ws

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHubSubscribeBroadcast(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	defer hub.Stop()

	ch, cancel := hub.Subscribe("ui-1", 10)
	if hub.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", hub.Count())
	}

	hub.Publish(MessageTypePrinterCreated, map[string]interface{}{"printer_id": "p-1"})
	msg := receive(t, ch)
	if msg.Type != MessageTypePrinterCreated || msg.Data["printer_id"] != "p-1" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Publish should stamp the message")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestHubBroadcastToMultipleClients(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	defer hub.Stop()

	const numClients = 5
	channels := make([]<-chan Message, numClients)
	for i := range channels {
		channels[i], _ = hub.Subscribe(fmt.Sprintf("client-%d", i), 10)
	}

	hub.Broadcast(Message{Type: MessageTypeTonersImported, Data: map[string]interface{}{"imported": 3}})
	for i, ch := range channels {
		if msg := receive(t, ch); msg.Type != MessageTypeTonersImported {
			t.Errorf("client %d: got %q", i, msg.Type)
		}
	}
}

func TestHubSlowSubscriberDrops(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	defer hub.Stop()

	var mu sync.Mutex
	drops := map[string]int{}
	hub.OnDrop = func(id string) {
		mu.Lock()
		drops[id]++
		mu.Unlock()
	}

	slow, _ := hub.Subscribe("slow", 1)
	fast, _ := hub.Subscribe("fast", 10)

	for i := 0; i < 3; i++ {
		hub.Publish(MessageTypePrinterUpdated, map[string]interface{}{"n": i})
	}
	for i := 0; i < 3; i++ {
		if msg := receive(t, fast); msg.Data["n"] != i {
			t.Errorf("fast subscriber got %v at %d", msg.Data["n"], i)
		}
	}
	deadline := time.Now().Add(time.Second)
	for hub.Dropped() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if msg := receive(t, slow); msg.Data["n"] != 0 {
		t.Errorf("slow subscriber first message = %v", msg.Data["n"])
	}

	mu.Lock()
	defer mu.Unlock()
	if drops["slow"] != 2 || drops["fast"] != 0 {
		t.Errorf("drops = %v", drops)
	}
	if hub.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", hub.Dropped())
	}
}

func TestHubReRegisterClosesPrevious(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	defer hub.Stop()

	first, _ := hub.Subscribe("dup", 1)
	second, _ := hub.Subscribe("dup", 1)

	if _, ok := <-first; ok {
		t.Error("first channel should be closed when the id is reused")
	}
	hub.Publish(MessageTypeHello, nil)
	receive(t, second)
	if hub.Count() != 1 {
		t.Errorf("Count() = %d, want 1", hub.Count())
	}
}

func TestHubStop(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, cancel := hub.Subscribe("a", 1)
	hub.Stop()
	hub.Stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}

	// Calls after Stop must not block.
	cancel()
	late, _ := hub.Subscribe("late", 1)
	if _, ok := <-late; ok {
		t.Error("subscription after Stop should be closed")
	}
	hub.Broadcast(Message{Type: "ignored"})
}
