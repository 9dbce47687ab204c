package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/okian/oscrouter/internal/adapters/mq/queue"
	"github.com/okian/oscrouter/internal/adapters/mq/worker"
	"github.com/okian/oscrouter/internal/adapters/udp"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/logger"
	"github.com/okian/oscrouter/pkg/metrics"
)

const drainTimeout = 5 * time.Second

// Start binds the listening socket and starts handling datagrams. A
// non-positive port means the configured listen port. Starting a running
// router is a no-op. On bind failure the router stays stopped.
func (r *Router) Start(ctx context.Context, port int) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return r.startLocked(ctx, port)
}

func (r *Router) startLocked(ctx context.Context, port int) error {
	if r.IsRunning() {
		r.logger.Info(ctx, "router already running", logger.Int("port", r.Port()))
		return nil
	}
	if port <= 0 {
		port = r.listenPort
	}

	l, err := udp.Listen(ctx, net.JoinHostPort(r.bindHost, strconv.Itoa(port)))
	if err != nil {
		metrics.RecordErrorByComponent("router", "bind")
		r.logger.Error(ctx, "failed to bind listener", logger.Int("port", port), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrStart, err)
	}

	// The run context outlives the caller, e.g. an HTTP request.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	q := queue.NewInMemoryQueue(queue.WithCapacity(r.queueSize))
	pool := worker.NewPool(r.workerCount, q, worker.HandlerFunc(func(ctx context.Context, d model.Datagram) {
		r.HandleDatagram(ctx, d)
	}))
	pool.Start(runCtx)

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := l.Serve(runCtx, func(d model.Datagram) { r.accept(runCtx, q, d) }); err != nil {
			r.logger.Error(runCtx, "listener stopped", logger.Error(err))
		}
	}()

	r.mu.Lock()
	r.running = true
	r.port = l.Port()
	r.listener = l
	r.inbound = q
	r.pool = pool
	r.cancel = cancel
	r.serveDone = serveDone
	r.mu.Unlock()

	metrics.UpdateRunning(true)
	r.logger.Info(ctx, "router started",
		logger.String("addr", l.Addr().String()),
		logger.Int("workers", pool.Size()),
		logger.Int("queueSize", r.queueSize),
	)
	return nil
}

// Stop closes the listener, lets the workers finish what is queued, then
// closes every cached outbound client and drops pending correlations.
// Stopping a stopped router is a no-op.
func (r *Router) Stop() error {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return r.stopLocked()
}

func (r *Router) stopLocked() error {
	ctx := context.Background()

	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	l, pool, cancel, serveDone := r.listener, r.pool, r.cancel, r.serveDone
	port := r.port
	r.running = false
	r.listener, r.inbound, r.pool, r.cancel, r.serveDone = nil, nil, nil, nil, nil
	r.mu.Unlock()

	var errs []error
	if err := l.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close listener: %w", err))
	}
	<-serveDone

	drainCtx, drainCancel := context.WithTimeout(ctx, drainTimeout)
	if err := pool.Shutdown(drainCtx); err != nil {
		errs = append(errs, err)
	}
	drainCancel()
	cancel()

	r.mu.Lock()
	clients := r.clients
	r.clients = udp.NewClientPool()
	r.mu.Unlock()
	if err := clients.CloseAll(); err != nil {
		errs = append(errs, fmt.Errorf("close clients: %w", err))
	}

	r.pairs.Reset(ctx)

	metrics.UpdateRunning(false)
	r.logger.Info(ctx, "router stopped", logger.Int("port", port))
	return errors.Join(errs...)
}

// Restart stops the router, waits the restart delay so the OS releases the
// port, and starts it again. A non-positive port reuses the current one.
func (r *Router) Restart(ctx context.Context, port int) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.RLock()
	wasRunning, current := r.running, r.port
	r.mu.RUnlock()
	if port <= 0 && wasRunning {
		port = current
	}

	r.logger.Info(ctx, "restarting router", logger.Int("port", port))
	if err := r.stopLocked(); err != nil {
		r.logger.Warn(ctx, "stop during restart reported errors", logger.Error(err))
	}

	if r.restartDelay > 0 {
		t := time.NewTimer(r.restartDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", ErrStart, ctx.Err())
		case <-t.C:
		}
	}

	return r.startLocked(ctx, port)
}

// accept runs on the read loop: it rate limits and enqueues. Rejected
// datagrams still get exactly one event.
func (r *Router) accept(ctx context.Context, q queue.Queue, d model.Datagram) {
	if !r.allow(d.Source) {
		metrics.RecordDatagramReceived()
		r.record(ctx, r.rejected(d, "rate_limited", ErrRateLimited))
		return
	}
	if err := q.Enqueue(ctx, d); err != nil {
		metrics.RecordDatagramReceived()
		r.record(ctx, r.rejected(d, "queue_full", err))
	}
}
