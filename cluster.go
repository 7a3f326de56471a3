package hicluster

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/kevwan/radix.v2/redis"

	"github.com/liying-gg/hicluster/pool"
	"github.com/liying-gg/hicluster/slotmap"
)

const (
	// DefaultMaxConn is used when Options.MaxConn is left at zero.
	DefaultMaxConn = 50
	// DefaultRedirectionTTL is the default number of MOVED/ASK hops
	// permitted per command before giving up.
	DefaultRedirectionTTL = 16
	// DefaultPerSlotEndpointBound caps how many endpoints (primary plus
	// replicas) are remembered per slot.
	DefaultPerSlotEndpointBound = 8
)

// Options configures a ClusterContext. Zero-valued fields take the
// defaults documented on the corresponding Default* constant.
type Options struct {
	// Bootstrap is the ordered list of "host:port" endpoints tried for
	// initial and refresh topology discovery. Required, at least one.
	Bootstrap []string

	// MaxConn bounds the number of cached live connections before random
	// eviction kicks in.
	MaxConn int

	// RedirectionTTL bounds how many MOVED/ASK hops a single command may
	// follow before ErrRedirectionLimit is returned.
	RedirectionTTL int

	// PerSlotEndpointBound bounds how many endpoints are kept per slot.
	PerSlotEndpointBound int

	// DialTimeout is used for new connections when Dialer is nil.
	DialTimeout time.Duration

	// Dialer overrides how new connections are opened; mainly useful for
	// tests. Defaults to dialing "tcp" with DialTimeout.
	Dialer pool.Dialer

	// Logger receives debug-level events about redirections and slot map
	// rebuilds. Defaults to slog.Default().
	Logger *slog.Logger

	// Rand is used for random endpoint selection and connection
	// eviction. Defaults to a process-seeded source.
	Rand *rand.Rand
}

// ClusterContext is a synchronous cluster client. It is not safe for
// concurrent use: commands run one at a time, synchronously, on the
// calling goroutine.
type ClusterContext struct {
	bootstrap []string
	opts      Options

	conns  *pool.Cache
	slots  slotmap.Map
	dial   pool.Dialer
	rng    *rand.Rand
	logger *slog.Logger

	refreshASAP bool

	// MissCh is written to (non-blocking) whenever a MOVED or ASK is
	// observed. Purely informational; if nothing is listening the
	// message is dropped.
	MissCh chan struct{}

	// ChangeCh is written to (non-blocking) whenever the slot map is
	// rebuilt, successfully or not. If nothing is listening the message
	// is dropped.
	ChangeCh chan struct{}
}

// New constructs a ClusterContext from a bootstrap endpoint list and a
// connection cache size, triggering an initial slot map rebuild.
func New(bootstrap []string, maxConn int) (*ClusterContext, error) {
	return NewWithOptions(Options{Bootstrap: bootstrap, MaxConn: maxConn})
}

// NewWithOptions is like New but with full control over Options.
func NewWithOptions(o Options) (*ClusterContext, error) {
	if len(o.Bootstrap) == 0 {
		return nil, &ConfigurationError{Err: ErrEmptyBootstrap}
	}
	if o.MaxConn <= 0 {
		o.MaxConn = DefaultMaxConn
	}
	if o.RedirectionTTL <= 0 {
		o.RedirectionTTL = DefaultRedirectionTTL
	}
	if o.PerSlotEndpointBound <= 0 {
		o.PerSlotEndpointBound = DefaultPerSlotEndpointBound
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	dial := o.Dialer
	if dial == nil {
		dial = defaultDialer(o.DialTimeout)
	}

	bootstrap := make([]string, len(o.Bootstrap))
	copy(bootstrap, o.Bootstrap)

	c := &ClusterContext{
		bootstrap:   bootstrap,
		opts:        o,
		conns:       pool.New(o.MaxConn, dial, o.Rand),
		slots:       slotmap.Map{},
		dial:        dial,
		rng:         o.Rand,
		logger:      o.Logger,
		refreshASAP: true,
		MissCh:      make(chan struct{}),
		ChangeCh:    make(chan struct{}),
	}

	if err := c.rebuild(); err != nil {
		c.logger.Debug("initial slot map rebuild failed", "err", err)
		// refreshASAP stays set; the first Execute call will retry.
	}

	return c, nil
}

// Close closes every cached connection. Once called, no other method
// should be called on this ClusterContext.
func (c *ClusterContext) Close() error {
	c.conns.CloseAll()
	return nil
}

// Topology returns a snapshot of the current slot -> endpoints mapping.
func (c *ClusterContext) Topology() slotmap.Map {
	snap := make(slotmap.Map, len(c.slots))
	for slot, entry := range c.slots {
		snap[slot] = entry
	}
	return snap
}

func (c *ClusterContext) rebuild() error {
	m, err := slotmap.Rebuild(c.bootstrap, c.dial, c.opts.PerSlotEndpointBound)
	c.notifyChange()
	if err != nil {
		return err
	}
	c.slots = m
	c.refreshASAP = false
	return nil
}

func (c *ClusterContext) notifyChange() {
	select {
	case c.ChangeCh <- struct{}{}:
	default:
	}
}

func defaultDialer(timeout time.Duration) pool.Dialer {
	return func(addr string) (pool.Conn, error) {
		if timeout > 0 {
			return redis.DialTimeout("tcp", addr, timeout)
		}
		return redis.Dial("tcp", addr)
	}
}
