// Package udp carries OSC datagrams: a Listener for the inbound socket and a
// ClientPool of cached outbound sockets, one per destination.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/okian/oscrouter/internal/adapters/osc"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/logger"
)

const maxReadBackoff = time.Second

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, osc.MaxPacketSize)
		return &b
	},
}

// Listener owns the inbound UDP socket.
type Listener struct {
	conn   net.PacketConn
	logger logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Listen binds addr (e.g. ":57121"). The returned error wraps ErrBind.
func Listen(ctx context.Context, addr string) (*Listener, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBind, addr, err)
	}
	return &Listener{conn: conn, logger: logger.Get().Named("udp-listener")}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Port returns the bound local port.
func (l *Listener) Port() int {
	if ua, ok := l.conn.LocalAddr().(*net.UDPAddr); ok {
		return ua.Port
	}
	return 0
}

// Serve reads datagrams and hands each to fn until the socket is closed.
// Each datagram gets its own copy of the payload. Serve returns nil after
// Close.
func (l *Listener) Serve(ctx context.Context, fn func(model.Datagram)) error {
	var tempDelay time.Duration
	for {
		d, err := l.read()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > maxReadBackoff {
				tempDelay = maxReadBackoff
			}
			l.logger.Warn(ctx, "read failed", logger.Error(err), logger.Duration("retry_in", tempDelay))
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0
		fn(d)
	}
}

// Close releases the port. Safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

func (l *Listener) read() (model.Datagram, error) {
	b := bufPool.Get().(*[]byte)
	defer bufPool.Put(b)

	n, addr, err := l.conn.ReadFrom(*b)
	if err != nil {
		return model.Datagram{}, err
	}
	data := make([]byte, n)
	copy(data, (*b)[:n])

	src := ""
	if addr != nil {
		src = addr.String()
	}
	return model.Datagram{Data: data, Source: src, Received: time.Now()}, nil
}
