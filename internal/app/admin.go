package service

import (
	"context"
	"net"

	"github.com/okian/oscrouter/internal/adapters/eventlog"
	"github.com/okian/oscrouter/internal/adapters/osc"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/internal/domain/types"
	"github.com/okian/oscrouter/pkg/logger"
)

// Port returns the bound port, or the configured listen port when stopped.
func (r *Router) Port() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.running {
		return r.port
	}
	return r.listenPort
}

// Status summarizes router health.
func (r *Router) Status(ctx context.Context) types.Status {
	r.mu.RLock()
	running, port, clients, q := r.running, r.port, r.clients, r.inbound
	r.mu.RUnlock()

	if !running {
		port = r.listenPort
	}
	st := types.Status{
		IsRunning:         running,
		Port:              port,
		CachedClientCount: clients.Count(),
		RoutingEntryCount: r.table.Len(ctx),
		EventCount:        r.events.Len(),
	}
	if q != nil {
		st.QueueLength = q.Len(ctx)
	}
	if pending := r.pairs.Snapshot(ctx); len(pending) > 0 {
		st.Pending = pending
	}
	return st
}

// RoutingTable returns station -> "host:port".
func (r *Router) RoutingTable(ctx context.Context) map[string]string {
	snap := r.table.Snapshot(ctx)
	out := make(map[string]string, len(snap))
	for _, row := range snap {
		out[row.Station] = row.Endpoint.String()
	}
	return out
}

// Routes returns the routing table as ordered rows.
func (r *Router) Routes(ctx context.Context) []types.Route {
	snap := r.table.Snapshot(ctx)
	out := make([]types.Route, len(snap))
	for i, row := range snap {
		out[i] = types.Route{Station: row.Station, Address: row.Endpoint.String()}
	}
	return out
}

// UpdateRouting points station at address ("host" or "host:port"). The
// change applies to the next datagram handled.
func (r *Router) UpdateRouting(ctx context.Context, station, address string) (model.Endpoint, error) {
	ep, err := model.ParseEndpoint(address, r.defaultDestPort)
	if err != nil {
		return model.Endpoint{}, err
	}
	if err := r.table.Upsert(ctx, station, ep); err != nil {
		return model.Endpoint{}, err
	}
	r.logger.Info(ctx, "routing updated",
		logger.String("station", model.NormalizeStation(station)),
		logger.String("destination", ep.String()),
	)
	return ep, nil
}

// RecentEvents returns up to limit events, newest first. A non-positive
// limit returns everything retained.
func (r *Router) RecentEvents(_ context.Context, limit int) []model.Event {
	return r.events.Recent(limit)
}

// ClearEvents empties the event log.
func (r *Router) ClearEvents(ctx context.Context) {
	r.events.Clear()
	r.logger.Info(ctx, "event log cleared")
}

// Subscribe returns a feed of new events and log clears. Call the returned
// func to unsubscribe.
func (r *Router) Subscribe() (<-chan eventlog.Notice, func()) {
	return r.events.Subscribe()
}

// TestRoute sends a fixed test score to station's endpoint. It does not
// produce a router event.
func (r *Router) TestRoute(ctx context.Context, station string) (model.Endpoint, error) {
	ep, err := r.table.Lookup(ctx, station)
	if err != nil {
		return model.Endpoint{}, err
	}
	payload, err := osc.Encode(outboundAddress, osc.Float(testScore))
	if err != nil {
		return ep, err
	}
	if err := r.clientPool().Send(ctx, ep, payload); err != nil {
		r.logger.Warn(ctx, "test send failed", logger.String("destination", ep.String()), logger.Error(err))
		return ep, err
	}
	r.logger.Info(ctx, "test score sent", logger.String("station", model.NormalizeStation(station)), logger.String("destination", ep.String()))
	return ep, nil
}

// Network tells operators which address stations should target.
func (r *Router) Network(_ context.Context) types.NetworkInfo {
	return types.NetworkInfo{ServerIP: serverIP(r.bindHost), OSCPort: r.Port()}
}

// Stats returns a flat view for the /stats endpoint.
func (r *Router) Stats(ctx context.Context) map[string]interface{} {
	st := r.Status(ctx)
	stats := map[string]interface{}{
		"running":        st.IsRunning,
		"port":           st.Port,
		"cachedClients":  st.CachedClientCount,
		"routingEntries": st.RoutingEntryCount,
		"eventCount":     st.EventCount,
		"eventCapacity":  r.events.Capacity(),
		"subscribers":    r.events.Subscribers(),
		"droppedNotices": r.events.Dropped(),
		"queueLength":    st.QueueLength,
		"queueCapacity":  r.queueSize,
		"workerCount":    r.workerCount,
		"pendingPairs":   r.pairs.Size(),
	}

	r.mu.RLock()
	if r.pool != nil {
		stats["processed"] = r.pool.Processed()
	}
	r.mu.RUnlock()
	return stats
}

// serverIP returns bindHost when it is a concrete address, otherwise the
// first non-loopback IPv4 address of this machine.
func serverIP(bindHost string) string {
	if ip := net.ParseIP(bindHost); ip != nil && !ip.IsUnspecified() {
		return ip.String()
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() {
			continue
		}
		if v4 := ipn.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return "127.0.0.1"
}
