// Package correlation pairs the numeric and string halves emitted by stations
// that report one score as two separate messages.
package correlation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/oscrouter/internal/adapters/osc"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/internal/domain/types"
	"github.com/okian/oscrouter/pkg/metrics"
)

// Pair is a completed aggregate, forwarded as (numeric, string). Numeric keeps
// the argument as received, so an int half is forwarded as an int.
type Pair struct {
	Numeric osc.Argument
	Text    string
}

// Store holds at most one pending half-pair per station.
//
// Deposits are last-value-wins per part: a second numeric deposit before any
// string replaces the first. Pending halves never expire.
type Store interface {
	// DepositNumeric stores the numeric argument v for station. If a string
	// half is already held, the completed pair is returned with ok=true and
	// the station is cleared. Non-numeric arguments are ignored.
	DepositNumeric(ctx context.Context, station string, v osc.Argument) (p Pair, ok bool)

	// DepositString is the mirror of DepositNumeric.
	DepositString(ctx context.Context, station string, s string) (p Pair, ok bool)

	// Pending returns a copy of the half-pair held for station.
	Pending(ctx context.Context, station string) types.Pending

	// Snapshot returns copies of every non-empty half-pair keyed by station.
	Snapshot(ctx context.Context) map[string]types.Pending

	// Reset drops every pending half-pair.
	Reset(ctx context.Context)

	Size() int64
}

type slot struct {
	numeric    osc.Argument
	text       string
	hasNumeric bool
	hasText    bool
}

type memoryStore struct {
	mu    sync.Mutex
	slots map[string]*slot
	size  atomic.Int64
}

// NewStore creates an in-memory Store.
func NewStore() Store {
	return &memoryStore{slots: make(map[string]*slot)}
}

func (s *memoryStore) DepositNumeric(_ context.Context, station string, v osc.Argument) (Pair, bool) {
	if !v.IsNumeric() {
		return Pair{}, false
	}
	key := model.NormalizeStation(station)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slotLocked(key)
	if sl.hasNumeric {
		metrics.RecordPartOverwritten("numeric")
	}
	sl.numeric, sl.hasNumeric = v, true
	return s.completeLocked(key, sl)
}

func (s *memoryStore) DepositString(_ context.Context, station string, text string) (Pair, bool) {
	key := model.NormalizeStation(station)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slotLocked(key)
	if sl.hasText {
		metrics.RecordPartOverwritten("string")
	}
	sl.text, sl.hasText = text, true
	return s.completeLocked(key, sl)
}

func (s *memoryStore) Pending(_ context.Context, station string) types.Pending {
	key := model.NormalizeStation(station)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok {
		return types.Pending{}
	}
	return sl.view()
}

func (s *memoryStore) Snapshot(_ context.Context) map[string]types.Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]types.Pending, len(s.slots))
	for key, sl := range s.slots {
		out[key] = sl.view()
	}
	return out
}

func (s *memoryStore) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.slots)
	s.publishSizeLocked()
}

func (s *memoryStore) Size() int64 {
	return s.size.Load()
}

func (s *memoryStore) slotLocked(key string) *slot {
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{}
		s.slots[key] = sl
		s.publishSizeLocked()
	}
	return sl
}

func (s *memoryStore) completeLocked(key string, sl *slot) (Pair, bool) {
	if !sl.hasNumeric || !sl.hasText {
		return Pair{}, false
	}
	p := Pair{Numeric: sl.numeric, Text: sl.text}
	delete(s.slots, key)
	s.publishSizeLocked()
	metrics.RecordPairCompleted()
	return p, true
}

func (s *memoryStore) publishSizeLocked() {
	n := len(s.slots)
	s.size.Store(int64(n))
	metrics.UpdatePendingCorrelations(n)
}

func (sl *slot) view() types.Pending {
	var p types.Pending
	if sl.hasNumeric {
		v, _ := sl.numeric.Numeric()
		p.Numeric = &v
	}
	if sl.hasText {
		t := sl.text
		p.Text = &t
	}
	return p
}
