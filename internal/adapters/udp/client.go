package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/metrics"
)

// Client is a connected UDP socket to one destination.
type Client struct {
	endpoint model.Endpoint
	conn     *net.UDPConn
}

// Endpoint returns the destination.
func (c *Client) Endpoint() model.Endpoint { return c.endpoint }

// Send writes one datagram. No retries.
func (c *Client) Send(ctx context.Context, data []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
	}
	start := time.Now()
	n, err := c.conn.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSend, c.endpoint, err)
	}
	metrics.RecordSend(n, float64(time.Since(start).Microseconds())/1000)
	return nil
}

func (c *Client) close() error { return c.conn.Close() }

// ClientPool lazily opens one Client per endpoint and keeps it until CloseAll.
// A failed send does not evict the client.
type ClientPool struct {
	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
}

// NewClientPool returns an empty pool.
func NewClientPool() *ClientPool {
	return &ClientPool{clients: make(map[string]*Client)}
}

// Get returns the cached client for ep, dialing it on first use. Resolving
// and dialing happen outside the pool lock so a slow lookup for one endpoint
// does not stall sends to the others.
func (p *ClientPool) Get(ep model.Endpoint) (*Client, error) {
	key := ep.String()

	if c, err := p.cached(key); c != nil || err != nil {
		return c, err
	}

	raddr, err := net.ResolveUDPAddr("udp", key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, key, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = conn.Close()
		return nil, ErrClosed
	}
	// Another caller may have dialed the same endpoint meanwhile.
	if c, ok := p.clients[key]; ok {
		_ = conn.Close()
		return c, nil
	}

	c := &Client{endpoint: ep, conn: conn}
	p.clients[key] = c
	metrics.UpdateCachedClients(len(p.clients))
	return c, nil
}

func (p *ClientPool) cached(key string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	return p.clients[key], nil
}

// Send writes data to ep through its cached client.
func (p *ClientPool) Send(ctx context.Context, ep model.Endpoint, data []byte) error {
	c, err := p.Get(ep)
	if err != nil {
		return err
	}
	return c.Send(ctx, data)
}

// Count returns the number of cached clients.
func (p *ClientPool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// CloseAll closes every cached client. The pool rejects further use.
func (p *ClientPool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for key, c := range p.clients {
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		delete(p.clients, key)
	}
	p.closed = true
	metrics.UpdateCachedClients(0)
	return errors.Join(errs...)
}
