package hicluster

import (
	"errors"
	"time"

	"github.com/kevwan/radix.v2/redis"

	"github.com/liying-gg/hicluster/pool"
)

// askingBackoff is the pause after a failed ASKING sequence during the
// latter half of a command's redirection TTL, to avoid hot-looping
// against a slot that is mid-migration.
const askingBackoff = 100 * time.Microsecond

// Execute routes argv to the cluster member that should own it, following
// MOVED/ASK redirections transparently within the configured redirection
// TTL, and returns the final reply.
//
// A nil error with a non-nil *redis.Resp whose Err field is set means the
// command reached a live node and that node returned an ordinary
// application error (e.g. WRONGTYPE) -- the caller decides whether that is
// retryable. A non-nil error means the library itself gave up: see
// NetworkError, ErrRedirectionLimit, and ProtocolError.
func (c *ClusterContext) Execute(argv ...[]byte) (*redis.Resp, error) {
	if len(argv) == 0 {
		return nil, errors.New("hicluster: empty command")
	}

	if c.refreshASAP {
		if err := c.rebuild(); err != nil {
			c.logger.Debug("slot map rebuild failed", "err", err)
		}
	}

	key, hasKey := keyOf(argv)
	slot := 0
	if hasKey {
		slot = slotOf(key)
	}
	tryRandom := !hasKey
	asking := false

	var lastNetErr *NetworkError

	ttl := c.opts.RedirectionTTL
	for ttl > 0 {
		ttl--

		addr, ok := c.nextAddr(tryRandom, slot)
		tryRandom = false
		if !ok {
			tryRandom = true
			continue
		}

		conn, err := c.conns.GetOrOpen(addr)
		if err != nil {
			lastNetErr = &NetworkError{Addr: addr, Err: err}
			tryRandom = true
			continue
		}
		lastNetErr = nil

		if asking {
			askResp := conn.Cmd("ASKING")
			asking = false
			cmdResp := sendArgv(conn, argv)
			if askResp == nil || askResp.Err != nil || cmdResp == nil || cmdResp.Err != nil {
				tryRandom = true
				if ttl < c.opts.RedirectionTTL/2 {
					time.Sleep(askingBackoff)
				}
				continue
			}
			return cmdResp, nil
		}

		resp := sendArgv(conn, argv)
		if resp == nil || resp.IsType(redis.IOErr) {
			c.conns.Remove(addr)
			lastNetErr = &NetworkError{Addr: addr, Err: errTransportErrored(resp)}
			tryRandom = true
			continue
		}
		if resp.Err == nil {
			return resp, nil
		}

		rendered, rerr := Render(resp)
		if rerr != nil {
			return nil, rerr
		}
		rd, isRedirect := parseRedirect(rendered)
		if !isRedirect {
			return resp, nil
		}

		c.slots.Patch(rd.slot, rd.addr)
		c.logger.Debug("redirection", "ask", rd.ask, "slot", rd.slot, "addr", rd.addr)
		if rd.ask {
			asking = true
		} else {
			c.refreshASAP = true
		}
		slot = rd.slot
		c.notifyMiss()
	}

	if lastNetErr != nil {
		return nil, lastNetErr
	}
	return nil, ErrRedirectionLimit
}

// Cmd is a convenience wrapper around Execute for string-only arguments.
func (c *ClusterContext) Cmd(cmd string, args ...string) (*redis.Resp, error) {
	argv := make([][]byte, 0, len(args)+1)
	argv = append(argv, []byte(cmd))
	for _, a := range args {
		argv = append(argv, []byte(a))
	}
	return c.Execute(argv...)
}

// nextAddr picks the endpoint to try next: a random one if tryRandom is
// set, otherwise the slot's current primary. It reports false if the slot
// has no known owner (or the map is empty); Execute then tries a random
// endpoint on its next attempt.
func (c *ClusterContext) nextAddr(tryRandom bool, slot int) (string, bool) {
	if tryRandom {
		return c.randomAddr()
	}
	entry, ok := c.slots[slot]
	if !ok {
		return "", false
	}
	return entry.Primary()
}

func (c *ClusterContext) randomAddr() (string, bool) {
	entry, ok := c.slots.RandomEntry(c.rng)
	if !ok {
		return "", false
	}
	return entry.Primary()
}

func (c *ClusterContext) notifyMiss() {
	select {
	case c.MissCh <- struct{}{}:
	default:
	}
}

func sendArgv(conn pool.Conn, argv [][]byte) *redis.Resp {
	args := make([]interface{}, len(argv)-1)
	for i, a := range argv[1:] {
		args[i] = a
	}
	return conn.Cmd(string(argv[0]), args...)
}

func errTransportErrored(resp *redis.Resp) error {
	if resp != nil && resp.Err != nil {
		return resp.Err
	}
	return errors.New("hicluster: nil reply from transport")
}
