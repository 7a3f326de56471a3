package hicluster

import (
	"errors"
	"testing"

	"github.com/kevwan/radix.v2/redis"

	"github.com/liying-gg/hicluster/pool"
)

// scriptedConn is a fake transport: it always answers PING with PONG (so
// the connection cache's liveness probe passes) and otherwise defers to a
// per-test handler. It exists so the router and lifecycle tests can drive
// MOVED/ASK/network-failure scenarios without a live cluster.
type scriptedConn struct {
	t      *testing.T
	addr   string
	handle func(cmd string, args ...interface{}) *redis.Resp
	closed bool
	calls  int
}

func (c *scriptedConn) Cmd(cmd string, args ...interface{}) *redis.Resp {
	c.calls++
	if cmd == "PING" {
		return redis.NewRespSimple("PONG")
	}
	if c.handle == nil {
		c.t.Fatalf("scriptedConn %s: no handler for %s", c.addr, cmd)
	}
	return c.handle(cmd, args...)
}

func (c *scriptedConn) Close() error {
	c.closed = true
	return nil
}

// fakeDialer resolves addresses against a fixed registry of scriptedConns,
// failing for anything not registered.
func fakeDialer(nodes map[string]*scriptedConn) pool.Dialer {
	return func(addr string) (pool.Conn, error) {
		n, ok := nodes[addr]
		if !ok {
			return nil, errors.New("fakeDialer: no such node " + addr)
		}
		return n, nil
	}
}

// clusterSlotsWholeKeyspace builds a CLUSTER SLOTS reply where a single
// primary owns every slot.
func clusterSlotsWholeKeyspace(primary string) func(string, ...interface{}) *redis.Resp {
	return func(cmd string, args ...interface{}) *redis.Resp {
		return redis.NewResp([]interface{}{
			[]interface{}{0, numSlots - 1, splitHostPort(primary)},
		})
	}
}

func splitHostPort(addr string) []interface{} {
	host, port := "127.0.0.1", 0
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host = addr[:i]
			for j := i + 1; j < len(addr); j++ {
				port = port*10 + int(addr[j]-'0')
			}
			break
		}
	}
	return []interface{}{host, port}
}
