// Package eventlog keeps the most recent router events in memory and fans
// them out to live subscribers.
package eventlog

import (
	"sync"
	"sync/atomic"

	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/metrics"
)

const (
	DefaultCapacity         = 100
	defaultSubscriberBuffer = 64
)

// NoticeKind tells subscribers what happened to the log.
type NoticeKind string

const (
	NoticeEvent   NoticeKind = "message"
	NoticeCleared NoticeKind = "logCleared"
)

// Notice is delivered to subscribers. Event is set only for NoticeEvent.
type Notice struct {
	Kind  NoticeKind   `json:"kind"`
	Event *model.Event `json:"event,omitempty"`
}

// Log is a fixed-capacity ring of events, newest first on read.
type Log struct {
	capacity  int
	subBuffer int

	mu    sync.RWMutex
	ring  []model.Event
	head  int // index of the next write
	count int

	subMu   sync.RWMutex
	subs    map[uint64]chan Notice
	nextSub uint64
	dropped atomic.Int64
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{
		capacity:  DefaultCapacity,
		subBuffer: defaultSubscriberBuffer,
		subs:      make(map[uint64]chan Notice),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.ring = make([]model.Event, l.capacity)
	return l
}

// Append stores e, evicting the oldest event when full, and notifies
// subscribers.
func (l *Log) Append(e model.Event) {
	l.mu.Lock()
	l.ring[l.head] = e
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}
	n := l.count
	l.mu.Unlock()

	metrics.UpdateEventLogSize(n)
	l.publish(Notice{Kind: NoticeEvent, Event: &e})
}

// Snapshot returns a copy of the retained events, newest first.
func (l *Log) Snapshot() []model.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Event, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.ring[(l.head-1-i+l.capacity)%l.capacity]
	}
	return out
}

// Recent returns at most limit events, newest first. A limit of zero or less
// returns everything.
func (l *Log) Recent(limit int) []model.Event {
	all := l.Snapshot()
	if limit > 0 && limit < len(all) {
		return all[:limit]
	}
	return all
}

// Clear drops all retained events and notifies subscribers.
func (l *Log) Clear() {
	l.mu.Lock()
	l.ring = make([]model.Event, l.capacity)
	l.head, l.count = 0, 0
	l.mu.Unlock()

	metrics.UpdateEventLogSize(0)
	l.publish(Notice{Kind: NoticeCleared})
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Capacity returns the maximum number of retained events.
func (l *Log) Capacity() int { return l.capacity }

// Subscribe registers a new subscriber. Notices are dropped for a subscriber
// whose buffer is full; the log never blocks on a slow reader. The returned
// cancel func unregisters and closes the channel.
func (l *Log) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, l.subBuffer)

	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, id)
			l.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of registered subscribers.
func (l *Log) Subscribers() int {
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	return len(l.subs)
}

// Dropped returns how many notices were discarded for slow subscribers.
func (l *Log) Dropped() int64 { return l.dropped.Load() }

func (l *Log) publish(n Notice) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()

	for _, ch := range l.subs {
		select {
		case ch <- n:
		default:
			l.dropped.Add(1)
			metrics.RecordErrorByComponent("eventlog", "subscriber_full")
		}
	}
}
