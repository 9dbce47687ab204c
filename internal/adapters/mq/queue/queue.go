// Package queue buffers inbound datagrams between the socket reader and the
// handler workers so a slow handler never stalls the read loop.
package queue

import (
	"context"
	"sync"

	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Datagram is the payload flowing through the queue.
type Datagram = model.Datagram

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds d to the queue. It never blocks; ErrFull or ErrClosed is
	// returned when d was not accepted.
	Enqueue(ctx context.Context, d Datagram) error

	// Dequeue returns the receive side of the queue. The channel is closed
	// once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Datagram

	// Len returns the current number of queued datagrams.
	Len(ctx context.Context) int

	// Close stops accepting datagrams. Already queued datagrams stay
	// readable from Dequeue.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Datagram
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Datagram, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a datagram to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, d Datagram) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.items <- d:
		metrics.UpdateQueueSize(len(q.items))
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Datagram {
	return q.items
}

// Len returns the current number of queued datagrams.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting datagrams. Calling it twice is fine.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
