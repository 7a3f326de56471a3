package slotmap

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kevwan/radix.v2/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liying-gg/hicluster/pool"
)

// fakeConn replies to CLUSTER SLOTS with a canned reply and otherwise
// errors, enough to exercise Rebuild without a live cluster.
type fakeConn struct {
	reply *redis.Resp
	err   error
	addr  string
}

func (f *fakeConn) Cmd(cmd string, args ...interface{}) *redis.Resp {
	if cmd == "CLUSTER" {
		if f.err != nil {
			return nil
		}
		return f.reply
	}
	return redis.NewResp(errors.New("unexpected command in test"))
}

func (f *fakeConn) Close() error { return nil }

func clusterSlotsReply(selfAddr string, ranges [][3]interface{}) *redis.Resp {
	rangeVals := make([]interface{}, 0, len(ranges))
	for _, r := range ranges {
		start := r[0]
		end := r[1]
		nodes := r[2].([][2]interface{})
		nodeVals := make([]interface{}, 0, len(nodes))
		for _, n := range nodes {
			nodeVals = append(nodeVals, []interface{}{n[0], n[1]})
		}
		rangeVals = append(rangeVals, append([]interface{}{start, end}, nodeVals...))
	}
	_ = selfAddr
	return redis.NewResp(rangeVals)
}

func dialerFor(conns map[string]*fakeConn) pool.Dialer {
	return func(addr string) (pool.Conn, error) {
		c, ok := conns[addr]
		if !ok {
			return nil, errors.New("no such node")
		}
		return c, nil
	}
}

func TestRebuild_SingleRangeWholeKeyspace(t *testing.T) {
	reply := clusterSlotsReply("a:1", [][3]interface{}{
		{0, NumSlots - 1, [][2]interface{}{{"127.0.0.1", 7000}}},
	})
	conns := map[string]*fakeConn{
		"a:1": {reply: reply, addr: "a:1"},
	}

	m, err := Rebuild([]string{"a:1"}, dialerFor(conns), 8)
	require.NoError(t, err)

	entry, ok := m[0]
	require.True(t, ok)
	primary, ok := entry.Primary()
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:7000", primary)

	entry, ok = m[NumSlots-1]
	require.True(t, ok)
	primary, _ = entry.Primary()
	assert.Equal(t, "127.0.0.1:7000", primary)
}

func TestRebuild_BlankHostMeansDiscoveryNode(t *testing.T) {
	reply := clusterSlotsReply("a:1", [][3]interface{}{
		{0, 100, [][2]interface{}{{"", 7000}}},
	})
	conns := map[string]*fakeConn{
		"a:1": {reply: reply, addr: "a:1"},
	}

	m, err := Rebuild([]string{"a:1"}, dialerFor(conns), 8)
	require.NoError(t, err)

	entry := m[0]
	primary, _ := entry.Primary()
	assert.Equal(t, "a:1", primary, "a blank host in CLUSTER SLOTS means the node we're connected to")
}

func TestRebuild_FallsBackToNextBootstrapNode(t *testing.T) {
	reply := clusterSlotsReply("b:2", [][3]interface{}{
		{0, NumSlots - 1, [][2]interface{}{{"127.0.0.1", 7001}}},
	})
	conns := map[string]*fakeConn{
		"b:2": {reply: reply, addr: "b:2"},
	}
	// "a:1" is absent from conns, so dialerFor returns an error for it.

	m, err := Rebuild([]string{"a:1", "b:2"}, dialerFor(conns), 8)
	require.NoError(t, err)
	entry := m[0]
	primary, _ := entry.Primary()
	assert.Equal(t, "127.0.0.1:7001", primary)
}

func TestRebuild_AllBootstrapNodesFail(t *testing.T) {
	_, err := Rebuild([]string{"a:1", "b:2"}, dialerFor(map[string]*fakeConn{}), 8)
	assert.Error(t, err)
}

func TestPatch_DoesNotAliasOtherSlots(t *testing.T) {
	m := Map{
		5: Entry{"a:1"},
		6: Entry{"a:1"},
	}
	m.Patch(5, "b:2")

	want := Map{
		5: Entry{"b:2"},
		6: Entry{"a:1"},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("patching one slot must not mutate another slot sharing the same entry (-want +got):\n%s", diff)
	}
}

func TestRandomEntry_Empty(t *testing.T) {
	m := Map{}
	_, ok := m.RandomEntry(rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}

func TestRandomEntry_Distribution(t *testing.T) {
	m := Map{
		0: Entry{"a:1"},
		1: Entry{"b:2"},
		2: Entry{"c:3"},
	}
	seen := map[string]bool{}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		e, ok := m.RandomEntry(rng)
		require.True(t, ok)
		p, _ := e.Primary()
		seen[p] = true
	}
	assert.Len(t, seen, 3, "enough draws should eventually hit every entry")
}
