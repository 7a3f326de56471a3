package hicluster

import (
	"errors"
	"strconv"
	"testing"

	"github.com/kevwan/radix.v2/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Nil(t *testing.T) {
	s, err := Render(redis.NewResp(nil))
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestRender_Status(t *testing.T) {
	s, err := Render(redis.NewRespSimple("PONG"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", s)
}

func TestRender_String(t *testing.T) {
	s, err := Render(redis.NewResp("bar"))
	require.NoError(t, err)
	assert.Equal(t, "bar", s)
}

func TestRender_Integer(t *testing.T) {
	s, err := Render(redis.NewResp(12182))
	require.NoError(t, err)
	assert.Equal(t, "12182", s)
}

func TestRender_Error(t *testing.T) {
	s, err := Render(redis.NewResp(errors.New("MOVED 12182 127.0.0.1:7001")))
	require.NoError(t, err)
	assert.Equal(t, "MOVED 12182 127.0.0.1:7001\n", s)
}

func TestRender_Array(t *testing.T) {
	s, err := Render(redis.NewResp([]interface{}{"a", "b", 3}))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n3", s)
}

func TestParseRedirect_Moved(t *testing.T) {
	r, ok := parseRedirect("MOVED 12182 127.0.0.1:7001")
	require.True(t, ok)
	assert.False(t, r.ask)
	assert.Equal(t, 12182, r.slot)
	assert.Equal(t, "127.0.0.1:7001", r.addr)
}

func TestParseRedirect_Ask(t *testing.T) {
	r, ok := parseRedirect("ASK 7777 127.0.0.1:7002")
	require.True(t, ok)
	assert.True(t, r.ask)
	assert.Equal(t, 7777, r.slot)
	assert.Equal(t, "127.0.0.1:7002", r.addr)
}

func TestParseRedirect_OrdinaryErrorIsNotARedirect(t *testing.T) {
	_, ok := parseRedirect("WRONGTYPE Operation against a key holding the wrong kind of value")
	assert.False(t, ok)
}

func TestRenderParseRoundTrip(t *testing.T) {
	// render(parse(render(r))) == render(r) for a MOVED error: rendering
	// the parsed (slot, addr) back into the same line form reproduces the
	// original rendered text.
	r := redis.NewResp(errors.New("MOVED 12182 127.0.0.1:7001"))
	rendered, err := Render(r)
	require.NoError(t, err)

	parsed, ok := parseRedirect(rendered)
	require.True(t, ok)

	roundTripped := redis.NewResp(errors.New(
		"MOVED " + strconv.Itoa(parsed.slot) + " " + parsed.addr,
	))
	rerendered, err := Render(roundTripped)
	require.NoError(t, err)
	assert.Equal(t, rendered, rerendered)
}
