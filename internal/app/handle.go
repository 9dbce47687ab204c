package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/oscrouter/internal/adapters/osc"
	"github.com/okian/oscrouter/internal/domain/correlation"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/logger"
	"github.com/okian/oscrouter/pkg/metrics"
)

// HandleDatagram routes one inbound datagram to completion and returns the
// single event it produced. It never returns an error; failures are recorded
// as error events.
func (r *Router) HandleDatagram(ctx context.Context, d model.Datagram) model.Event {
	start := time.Now()
	metrics.RecordDatagramReceived()

	ev := r.route(ctx, d)
	r.record(ctx, ev)

	metrics.RecordHandleLatency(float64(time.Since(start).Microseconds()) / 1000)
	return ev
}

func (r *Router) route(ctx context.Context, d model.Datagram) model.Event {
	ev := r.newEvent(d)

	msg, err := osc.Decode(d.Data)
	if err != nil {
		return r.failed(ev, "decode", err)
	}
	ev.Address, ev.Args = msg.Address, msg.Arguments

	station, err := stationFromAddress(msg.Address)
	if err != nil {
		return r.failed(ev, "format", err)
	}
	ev.Station = station

	ep, err := r.table.Lookup(ctx, station)
	if err != nil {
		return r.failed(ev, "unmapped", err)
	}
	ev.Destination = ep.String()

	if len(msg.Arguments) == 0 {
		return r.failed(ev, "no_arguments", ErrNoArguments)
	}

	args := msg.Arguments[:1]
	if r.isCorrelated(station) {
		pair, ok, err := r.deposit(ctx, station, msg.Arguments[0])
		if err != nil {
			return r.failed(ev, "argument_kind", err)
		}
		if !ok {
			ev.Outcome = model.OutcomeWaiting
			return ev
		}
		args = []osc.Argument{pair.Numeric, osc.String(pair.Text)}
	}

	payload, err := osc.Encode(outboundAddress, args...)
	if err != nil {
		return r.failed(ev, "encode", err)
	}
	if err := r.clientPool().Send(ctx, ep, payload); err != nil {
		return r.failed(ev, "send", err)
	}

	ev.Outcome = model.OutcomeForwarded
	ev.Sent = &model.Outbound{Address: outboundAddress, Args: args}
	return ev
}

func (r *Router) deposit(ctx context.Context, station string, a osc.Argument) (pair correlation.Pair, ok bool, err error) {
	if a.IsNumeric() {
		pair, ok = r.pairs.DepositNumeric(ctx, station, a)
		return pair, ok, nil
	}
	if s, isText := a.Text(); isText {
		pair, ok = r.pairs.DepositString(ctx, station, s)
		return pair, ok, nil
	}
	return pair, false, fmt.Errorf("%w: %s", ErrUnknownKind, a.Kind())
}

// stationFromAddress accepts exactly /<station>/score, with any number of
// leading slashes, and returns the lower-cased station.
func stationFromAddress(addr string) (string, error) {
	parts := strings.Split(strings.TrimLeft(addr, "/"), "/")
	if len(parts) != 2 || parts[1] != "score" {
		return "", fmt.Errorf("%w: got %q", ErrWrongFormat, addr)
	}
	station := model.NormalizeStation(parts[0])
	if station == "" {
		return "", fmt.Errorf("%w: got %q", ErrWrongFormat, addr)
	}
	return station, nil
}

func (r *Router) newEvent(d model.Datagram) model.Event {
	ts := d.Received
	if ts.IsZero() {
		ts = time.Now()
	}
	return model.Event{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Source:    d.Source,
	}
}

func (r *Router) failed(ev model.Event, kind string, err error) model.Event {
	metrics.RecordRoutingError(kind)
	ev.Outcome = model.OutcomeError
	ev.Error = err.Error()
	return ev
}

// rejected builds the event for a datagram dropped before decoding.
func (r *Router) rejected(d model.Datagram, kind string, err error) model.Event {
	return r.failed(r.newEvent(d), kind, err)
}

func (r *Router) record(ctx context.Context, ev model.Event) {
	r.events.Append(ev)
	metrics.RecordEvent(string(ev.Outcome))

	fields := []logger.Field{
		logger.String("id", ev.ID),
		logger.String("outcome", string(ev.Outcome)),
		logger.String("source", ev.Source),
	}
	if ev.Station != "" {
		fields = append(fields, logger.String("station", ev.Station))
	}
	if ev.Destination != "" {
		fields = append(fields, logger.String("destination", ev.Destination))
	}

	switch ev.Outcome {
	case model.OutcomeError:
		r.logger.Warn(ctx, ev.Error, fields...)
	case model.OutcomeWaiting:
		r.logger.Info(ctx, "waiting for more parts", fields...)
	default:
		r.logger.Info(ctx, "score forwarded", append(fields, logger.Any("args", ev.Sent.Args))...)
	}
}
