package service

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/oscrouter/internal/adapters/eventlog"
	"github.com/okian/oscrouter/internal/adapters/repository"
	"github.com/okian/oscrouter/internal/domain/correlation"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/logger"
)

// Option applies a configuration option to the Router.
type Option func(*Router)

// WithRoutingTable replaces the default empty table.
func WithRoutingTable(t repository.RoutingTable) Option {
	return func(r *Router) {
		if t != nil {
			r.table = t
		}
	}
}

// WithCorrelationStore replaces the default in-memory store.
func WithCorrelationStore(s correlation.Store) Option {
	return func(r *Router) {
		if s != nil {
			r.pairs = s
		}
	}
}

// WithEventLog replaces the default event log.
func WithEventLog(l *eventlog.Log) Option {
	return func(r *Router) {
		if l != nil {
			r.events = l
		}
	}
}

// WithBindHost sets the interface the listener binds to. Empty means all.
func WithBindHost(host string) Option {
	return func(r *Router) {
		r.bindHost = host
	}
}

// WithListenPort sets the port used when Start is given a non-positive port.
// Zero binds an ephemeral port.
func WithListenPort(port int) Option {
	return func(r *Router) {
		if port >= 0 && port <= 65535 {
			r.listenPort = port
		}
	}
}

// WithDefaultDestPort sets the port for routing updates that omit one.
func WithDefaultDestPort(port int) Option {
	return func(r *Router) {
		if port > 0 && port <= 65535 {
			r.defaultDestPort = port
		}
	}
}

// WithQueueSize sets the inbound datagram queue capacity.
func WithQueueSize(size int) Option {
	return func(r *Router) {
		if size > 0 {
			r.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of handler workers. More than one worker
// gives up arrival ordering between datagrams.
func WithWorkerCount(count int) Option {
	return func(r *Router) {
		if count > 0 {
			r.workerCount = count
		}
	}
}

// WithRestartDelay sets the pause between stop and start on Restart.
func WithRestartDelay(d time.Duration) Option {
	return func(r *Router) {
		if d >= 0 {
			r.restartDelay = d
		}
	}
}

// WithCorrelatedStations sets which stations send their score in two parts.
func WithCorrelatedStations(stations ...string) Option {
	return func(r *Router) {
		r.correlated = make(map[string]struct{}, len(stations))
		for _, s := range stations {
			if key := model.NormalizeStation(s); key != "" {
				r.correlated[key] = struct{}{}
			}
		}
	}
}

// WithRateLimit caps datagrams per second per source host. A non-positive
// limit disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Router) {
		if perSecond <= 0 {
			r.rateLimit = rate.Inf
			return
		}
		r.rateLimit = rate.Limit(perSecond)
		if burst > 0 {
			r.rateBurst = burst
		}
	}
}

// WithLogger sets a custom logger for the router.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}
