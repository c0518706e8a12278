package adapter

import (
	"errors"
	"sync"
)

// Pool manages a pool of Conn instances, adapted from the teacher's
// client/pool.Pool to pool adapter.Conn (a transport-agnostic core) rather
// than a full networked client.
type Pool struct {
	mu      sync.Mutex
	factory func() (*Conn, error)
	conns   []*Conn
	maxSize int
	closed  bool
}

// NewPool creates a new connection pool bounded to maxSize idle
// connections, using factory to create new ones on demand.
func NewPool(maxSize int, factory func() (*Conn, error)) *Pool {
	return &Pool{
		factory: factory,
		maxSize: maxSize,
	}
}

// Get returns a Conn from the pool, creating a new one if none are idle.
func (p *Pool) Get() (*Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errors.New("imapcore/adapter: pool is closed")
	}

	if len(p.conns) > 0 {
		c := p.conns[len(p.conns)-1]
		p.conns = p.conns[:len(p.conns)-1]
		return c, nil
	}

	return p.factory()
}

// Put returns a Conn to the pool, closing it instead if the pool is full
// or closed.
func (p *Pool) Put(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.conns) >= p.maxSize {
		c.Close()
		return
	}
	p.conns = append(p.conns, c)
}

// Close closes every idle Conn and marks the pool closed.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for _, c := range p.conns {
		c.Close()
	}
	p.conns = nil
	return nil
}

// Len returns the number of idle connections in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
