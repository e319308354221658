package session

import (
	"sync"

	"github.com/mockmate/rehearse/pkg/metrics"
)

const defaultQueueCapacity = 1024

// eventQueue is the ordered, bounded queue serializing all inbound
// events for one session. Enqueue is non-blocking; the controller loop
// is the single consumer.
type eventQueue struct {
	events chan event

	mu     sync.RWMutex
	closed bool
}

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &eventQueue{events: make(chan event, capacity)}
}

// enqueue adds an event to the queue. The event is dropped when the
// queue is closed (ErrClosed) or full (ErrQueueFull).
func (q *eventQueue) enqueue(e event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordEventDropped()
		return ErrClosed
	}

	select {
	case q.events <- e:
		metrics.UpdateQueueDepth(len(q.events))
		return nil
	default:
		metrics.RecordEventDropped()
		return ErrQueueFull
	}
}

// channel exposes the consume side. Closed when the queue is closed.
func (q *eventQueue) channel() <-chan event {
	return q.events
}

func (q *eventQueue) len() int {
	return len(q.events)
}

// close shuts the queue down. After close, no new events are accepted
// and the consume channel drains then closes.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	close(q.events)
	q.closed = true
}
