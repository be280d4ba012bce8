package core

import (
	"sync"

	"lottobox/core/events"
)

// eventCollector buffers events emitted during one operation so they can be
// discarded when the operation reverts. It is only touched under the node's
// write lock.
type eventCollector struct {
	pending []events.Event
}

func (c *eventCollector) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	c.pending = append(c.pending, evt)
}

func (c *eventCollector) reset() {
	c.pending = c.pending[:0]
}

func (c *eventCollector) drain() []events.Event {
	drained := make([]events.Event, len(c.pending))
	copy(drained, c.pending)
	c.pending = c.pending[:0]
	return drained
}

// eventHub fans committed events out to subscribers. Slow subscribers drop
// events instead of blocking the node.
type eventHub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan events.Event
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[int]chan events.Event)}
}

func (h *eventHub) subscribe(buffer int) (<-chan events.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan events.Event, buffer)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (h *eventHub) publish(evt events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub <- evt:
		default:
		}
	}
}
