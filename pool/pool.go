// Package pool implements the cluster client's connection cache: a
// map from canonical "host:port" endpoints to a single live transport
// handle each, bounded in total size, evicting a uniformly random entry
// when a new connection would push it over capacity.
//
// This is a reshaping of the teacher's per-address channel-pool
// (github.com/kevwan/radix.v2/pool), which keeps a small multi-connection
// idle pool per address plus a background PING-ticker goroutine to keep
// it warm. Neither is needed here: the cluster client is single-threaded
// and keeps at most one handle per endpoint, so liveness is re-checked
// lazily on lookup instead of on a timer.
package pool

import (
	"errors"
	"math/rand"

	"github.com/kevwan/radix.v2/redis"
)

// ErrPoolExhausted is unused by Cache itself (there is no connection
// limit per address, only a total endpoint limit) but kept for parity
// with callers that switch between pool.Cache and the teacher's Pool.
var ErrPoolExhausted = errors.New("pool: connection pool exhausted")

// Conn is the subset of *redis.Client the connection cache and its
// callers depend on. It exists so tests can substitute a fake transport.
type Conn interface {
	Cmd(cmd string, args ...interface{}) *redis.Resp
	Close() error
}

// Dialer opens a new connection to addr.
type Dialer func(addr string) (Conn, error)

// Cache is a bounded map of endpoint -> live Conn.
type Cache struct {
	dial    Dialer
	maxConn int
	conns   map[string]Conn
	rng     *rand.Rand
}

// New creates an empty Cache. maxConn must be at least 1.
func New(maxConn int, dial Dialer, rng *rand.Rand) *Cache {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Cache{
		dial:    dial,
		maxConn: maxConn,
		conns:   make(map[string]Conn),
		rng:     rng,
	}
}

// Len reports the number of cached connections.
func (c *Cache) Len() int { return len(c.conns) }

// GetOrOpen returns the cached connection for addr, probing it with PING
// first and reopening it if the probe fails. If there is no cached
// connection, one is dialed, probed, and (if healthy) inserted -- evicting
// a random existing entry first if that insertion would exceed maxConn.
func (c *Cache) GetOrOpen(addr string) (Conn, error) {
	if conn, ok := c.conns[addr]; ok {
		if isAlive(conn) {
			return conn, nil
		}
		conn.Close()
		delete(c.conns, addr)
	}

	conn, err := c.dial(addr)
	if err != nil {
		return nil, err
	}
	if !isAlive(conn) {
		conn.Close()
		return nil, errors.New("pool: new connection failed PING probe")
	}

	c.evictIfFull()
	c.conns[addr] = conn
	return conn, nil
}

// evictIfFull closes and removes one uniformly-random existing entry if
// inserting a new one would exceed maxConn.
func (c *Cache) evictIfFull() {
	if len(c.conns)+1 <= c.maxConn || len(c.conns) == 0 {
		return
	}
	victim := c.randomKey()
	c.conns[victim].Close()
	delete(c.conns, victim)
}

// randomKey draws a uniformly random key from conns via reservoir
// sampling: draw r in [0, n), keep the r-th element visited. Map iteration
// order in Go is already randomized per-run, so a single pass suffices for
// a uniform pick; this does not rely on that randomization for
// correctness, only for it not making the sample worse.
func (c *Cache) randomKey() string {
	n := len(c.conns)
	r := c.rng.Intn(n)
	i := 0
	for k := range c.conns {
		if i == r {
			return k
		}
		i++
	}
	panic("unreachable")
}

// Remove closes and discards the cached connection for addr, if any. The
// router calls this when a transport reports itself errored so the next
// lookup dials fresh.
func (c *Cache) Remove(addr string) {
	if conn, ok := c.conns[addr]; ok {
		conn.Close()
		delete(c.conns, addr)
	}
}

// CloseAll closes every cached connection and empties the cache.
func (c *Cache) CloseAll() {
	for addr, conn := range c.conns {
		conn.Close()
		delete(c.conns, addr)
	}
}

func isAlive(conn Conn) bool {
	r := conn.Cmd("PING")
	if r == nil || r.Err != nil {
		return false
	}
	if !r.IsType(redis.SimpleStr) {
		return false
	}
	s, err := r.Str()
	return err == nil && s == "PONG"
}
