package video

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mailbox is a single-slot, latest-wins handoff between the ingestion worker
// and the display loop. Publish never blocks; an unconsumed frame is
// overwritten and counted as dropped.
type Mailbox struct {
	mu      sync.Mutex
	frame   *Frame
	pending bool
	ready   chan struct{}

	drops atomic.Uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{}, 1)}
}

func (m *Mailbox) Publish(frame *Frame) {
	m.mu.Lock()
	if m.pending {
		m.drops.Add(1)
	}
	m.frame = frame
	m.pending = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Consume waits up to timeout for a frame published since the previous
// Consume and returns a private copy of it.
func (m *Mailbox) Consume(timeout time.Duration) (*Frame, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if frame, ok := m.take(); ok {
			return frame.Clone(), true
		}
		select {
		case <-m.ready:
		case <-timer.C:
			// a publish may have raced the timer
			frame, ok := m.take()
			if !ok {
				return nil, false
			}
			return frame.Clone(), true
		}
	}
}

func (m *Mailbox) take() (*Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending {
		return nil, false
	}
	m.pending = false
	return m.frame, true
}

// Reset discards any pending frame.
func (m *Mailbox) Reset() {
	m.mu.Lock()
	m.frame = nil
	m.pending = false
	m.mu.Unlock()
	select {
	case <-m.ready:
	default:
	}
}

// Drops reports how many frames were overwritten before being consumed.
func (m *Mailbox) Drops() uint64 {
	return m.drops.Load()
}
