// Package service hosts the Router: it owns the listening socket, the
// routing table, the correlation store, the outbound client pool and the
// event log, and exposes the administrative operations over them.
package service

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/oscrouter/internal/adapters/eventlog"
	"github.com/okian/oscrouter/internal/adapters/mq/queue"
	"github.com/okian/oscrouter/internal/adapters/mq/worker"
	"github.com/okian/oscrouter/internal/adapters/repository"
	"github.com/okian/oscrouter/internal/adapters/udp"
	"github.com/okian/oscrouter/internal/domain/correlation"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/logger"
)

// Default router configuration.
const (
	DefaultListenPort   = 57121
	DefaultRestartDelay = time.Second
	DefaultQueueSize    = 1024

	outboundAddress = "/score"
	testScore       = 42
	defaultBurst    = 20
)

// Router relays station scores. The zero value is not usable; call New.
type Router struct {
	// opMu serializes Start, Stop and Restart.
	opMu sync.Mutex

	// mu guards the running state below.
	mu        sync.RWMutex
	running   bool
	port      int
	listener  *udp.Listener
	inbound   *queue.InMemoryQueue
	pool      *worker.Pool
	cancel    context.CancelFunc
	serveDone chan struct{}
	clients   *udp.ClientPool

	table  repository.RoutingTable
	pairs  correlation.Store
	events *eventlog.Log

	limMu     sync.Mutex
	limiters  map[string]*rate.Limiter
	rateLimit rate.Limit
	rateBurst int

	bindHost        string
	listenPort      int
	defaultDestPort int
	queueSize       int
	workerCount     int
	restartDelay    time.Duration
	correlated      map[string]struct{}

	logger logger.Logger
}

// New constructs a stopped Router.
func New(opts ...Option) *Router {
	r := &Router{
		clients:         udp.NewClientPool(),
		table:           repository.NewMemoryTable(),
		pairs:           correlation.NewStore(),
		events:          eventlog.New(),
		limiters:        make(map[string]*rate.Limiter),
		rateLimit:       rate.Inf,
		rateBurst:       defaultBurst,
		listenPort:      DefaultListenPort,
		defaultDestPort: model.DefaultStationPort,
		queueSize:       DefaultQueueSize,
		workerCount:     1,
		restartDelay:    DefaultRestartDelay,
		correlated:      map[string]struct{}{"mastermind": {}},
		logger:          logger.Get().Named("router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsRunning reports whether the listener is bound.
func (r *Router) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Router) clientPool() *udp.ClientPool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients
}

func (r *Router) isCorrelated(station string) bool {
	_, ok := r.correlated[station]
	return ok
}

// allow applies the per-host rate limit to a datagram source.
func (r *Router) allow(source string) bool {
	if r.rateLimit == rate.Inf {
		return true
	}
	host := source
	if h, _, err := net.SplitHostPort(source); err == nil {
		host = h
	}

	r.limMu.Lock()
	lim, ok := r.limiters[host]
	if !ok {
		lim = rate.NewLimiter(r.rateLimit, r.rateBurst)
		r.limiters[host] = lim
	}
	r.limMu.Unlock()

	return lim.Allow()
}
