// Package slotmap holds the cluster client's cached projection of
// slot -> owning endpoints, and knows how to rebuild that projection from
// a live node's CLUSTER SLOTS reply and how to patch a single slot in
// response to a MOVED/ASK redirection.
package slotmap

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/liying-gg/hicluster/pool"
)

// NumSlots is the fixed number of hash slots in the cluster keyspace.
const NumSlots = 16384

// Entry is the ordered list of endpoints serving one slot: index 0 is the
// primary, the rest are replicas known at the last rebuild. Rebuild builds
// one fresh Entry per CLUSTER SLOTS range and stores it for every slot of
// that range; Patch installs a fresh single-endpoint Entry. Nothing
// modifies an Entry in place, so overwriting one slot's entry never changes
// another slot's.
type Entry []string

// Primary returns the entry's primary endpoint, if any.
func (e Entry) Primary() (string, bool) {
	if len(e) == 0 {
		return "", false
	}
	return e[0], true
}

// Map is a slot index -> Entry projection. A missing key means "ownership
// unknown" -- routing for that slot falls back to a random endpoint.
type Map map[int]Entry

// Patch replaces the entry for slot with a fresh single-endpoint entry
// pointing at addr, as MOVED/ASK redirections instruct. It does not touch
// any other slot's entry.
func (m Map) Patch(slot int, addr string) {
	m[slot] = Entry{addr}
}

// RandomEntry returns a uniformly random entry from the map via reservoir
// sampling, and whether the map was non-empty. The spec this cache
// implements flags a reference implementation that draws
// rand()%(size+1) -- which can walk one step past the last entry and is
// therefore biased toward it -- as a bug; this samples via rng.Intn(n) for
// a genuinely uniform pick.
func (m Map) RandomEntry(rng *rand.Rand) (Entry, bool) {
	if len(m) == 0 {
		return nil, false
	}
	r := rng.Intn(len(m))
	i := 0
	for _, e := range m {
		if i == r {
			return e, true
		}
		i++
	}
	panic("unreachable")
}

// Rebuild queries CLUSTER SLOTS on each bootstrap endpoint in order,
// stopping at the first one that answers successfully, and returns a
// freshly built Map. perSlotBound caps how many endpoints are kept per
// slot (primary plus replicas). If every bootstrap endpoint fails to
// connect or answers with an error or a nil reply, Rebuild returns an
// error and the caller should keep routing randomly and retry later.
func Rebuild(bootstrap []string, dial pool.Dialer, perSlotBound int) (Map, error) {
	var lastErr error
	for _, addr := range bootstrap {
		m, err := rebuildFrom(addr, dial, perSlotBound)
		if err != nil {
			lastErr = err
			continue
		}
		return m, nil
	}
	if lastErr == nil {
		lastErr = errors.New("slotmap: no bootstrap endpoints given")
	}
	return nil, fmt.Errorf("slotmap: rebuild failed against every bootstrap endpoint: %w", lastErr)
}

func rebuildFrom(addr string, dial pool.Dialer, perSlotBound int) (Map, error) {
	conn, err := dial(addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	reply := conn.Cmd("CLUSTER", "SLOTS")
	if reply == nil {
		return nil, errors.New("slotmap: nil reply to CLUSTER SLOTS")
	}
	if reply.Err != nil {
		return nil, reply.Err
	}

	ranges, err := reply.Array()
	if err != nil {
		return nil, err
	}

	m := make(Map, NumSlots)
	for _, rangeReply := range ranges {
		rangeElems, err := rangeReply.Array()
		if err != nil {
			return nil, err
		}
		if len(rangeElems) < 3 {
			return nil, errors.New("slotmap: malformed CLUSTER SLOTS range entry")
		}

		start, err := rangeElems[0].Int()
		if err != nil {
			return nil, err
		}
		end, err := rangeElems[1].Int()
		if err != nil {
			return nil, err
		}

		nodeElems := rangeElems[2:]
		if len(nodeElems) > perSlotBound {
			nodeElems = nodeElems[:perSlotBound]
		}
		entry := make(Entry, 0, len(nodeElems))
		for _, nodeReply := range nodeElems {
			nodeFields, err := nodeReply.Array()
			if err != nil {
				return nil, err
			}
			if len(nodeFields) < 2 {
				return nil, errors.New("slotmap: malformed CLUSTER SLOTS node entry")
			}
			host, err := nodeFields[0].Str()
			if err != nil {
				return nil, err
			}
			port, err := nodeFields[1].Int()
			if err != nil {
				return nil, err
			}
			if host == "" {
				// CLUSTER SLOTS reports a blank host for the node we're
				// currently talking to.
				entry = append(entry, addr)
				continue
			}
			entry = append(entry, host+":"+strconv.Itoa(port))
		}

		for slot := start; slot <= end; slot++ {
			m[slot] = entry
		}
	}

	return m, nil
}
