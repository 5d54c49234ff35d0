package ws

import (
	"sync"
	"sync/atomic"
)

// Hub fans messages out to in-process subscribers. It has no dependency on
// net/http; the events endpoint bridges subscriptions onto websocket
// connections. A subscriber whose buffer is full misses the message rather
// than stalling the hub.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]chan Message
	register   chan registration
	unregister chan string
	broadcast  chan Message
	shutdown   chan struct{}
	stopOnce   sync.Once
	dropped    atomic.Int64

	// OnDrop, when set before the first Broadcast, is called with the
	// subscriber id each time a message is dropped for it.
	OnDrop func(id string)
}

type registration struct {
	id   string
	ch   chan Message
	done chan struct{}
}

// NewHub creates and starts a new Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]chan Message),
		register:   make(chan registration),
		unregister: make(chan string),
		broadcast:  make(chan Message, 100),
		shutdown:   make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[reg.id]; ok {
				close(old)
			}
			h.clients[reg.id] = reg.ch
			h.mu.Unlock()
			close(reg.done)
		case id := <-h.unregister:
			h.mu.Lock()
			if ch, ok := h.clients[id]; ok {
				close(ch)
				delete(h.clients, id)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for id, ch := range h.clients {
				select {
				case ch <- msg:
				default:
					h.dropped.Add(1)
					if h.OnDrop != nil {
						h.OnDrop(id)
					}
				}
			}
			h.mu.RUnlock()
		case <-h.shutdown:
			h.mu.Lock()
			for id, ch := range h.clients {
				close(ch)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a subscriber channel under id, replacing (and closing) any
// channel already registered under that id. It returns once the hub has
// recorded the subscriber. The channel should be buffered.
func (h *Hub) Register(id string, ch chan Message) {
	reg := registration{id: id, ch: ch, done: make(chan struct{})}
	select {
	case h.register <- reg:
		<-reg.done
	case <-h.shutdown:
		close(ch)
	}
}

// Subscribe registers a new buffered channel and returns it with a cancel
// func that unregisters it.
func (h *Hub) Subscribe(id string, buffer int) (<-chan Message, func()) {
	ch := make(chan Message, buffer)
	h.Register(id, ch)
	return ch, func() { h.Unregister(id) }
}

// Unregister removes the client with the given id and closes its channel.
func (h *Hub) Unregister(id string) {
	select {
	case h.unregister <- id:
	case <-h.shutdown:
	}
}

// Broadcast queues msg for every subscriber. It never blocks; when the hub
// queue itself is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
	}
}

// Publish is Broadcast with a freshly stamped Message.
func (h *Hub) Publish(typ string, data map[string]interface{}) {
	h.Broadcast(NewMessage(typ, data))
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many deliveries were skipped.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Stop shuts down the hub and closes all client channels. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.shutdown) })
}
