package domain

import (
	"fmt"
	"sync"
)

const subscriberBuffer = 256

// Presenter receives kiosk change notifications. Implementations must not
// block; the hub calls them from its own goroutine.
type Presenter interface {
	Present(event KioskEvent)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(event KioskEvent)

func (f PresenterFunc) Present(event KioskEvent) { f(event) }

// EventHub fans kiosk events out to every registered subscriber. A
// subscriber whose buffer is full misses the event instead of stalling the
// publisher.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]chan KioskEvent
	dropped     map[string]uint64
	closed      bool
}

func NewEventHub() *EventHub {
	return &EventHub{
		subscribers: make(map[string]chan KioskEvent),
		dropped:     make(map[string]uint64),
	}
}

// Subscribe registers id and returns its event channel. The channel is
// closed by Unsubscribe or Close.
func (h *EventHub) Subscribe(id string) (<-chan KioskEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, fmt.Errorf("event hub closed")
	}
	if _, exists := h.subscribers[id]; exists {
		return nil, fmt.Errorf("subscriber already registered: %s", id)
	}
	ch := make(chan KioskEvent, subscriberBuffer)
	h.subscribers[id] = ch
	return ch, nil
}

func (h *EventHub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
		delete(h.dropped, id)
	}
}

// Attach runs p for every event until the subscription ends.
func (h *EventHub) Attach(id string, p Presenter) error {
	ch, err := h.Subscribe(id)
	if err != nil {
		return err
	}
	go func() {
		for event := range ch {
			p.Present(event)
		}
	}()
	return nil
}

// Present publishes event to every subscriber, so the hub itself is a
// Presenter for the use cases.
func (h *EventHub) Present(event KioskEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.dropped[id]++
		}
	}
}

func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns how many events id has missed.
func (h *EventHub) Dropped(id string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped[id]
}

func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.closed = true
}
