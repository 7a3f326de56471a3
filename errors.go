package hicluster

import (
	"errors"
	"fmt"

	"github.com/kevwan/radix.v2/redis"
)

var (
	// ErrRedirectionLimit is returned once a command's redirection TTL is
	// exhausted while the cluster is still replying MOVED or ASK.
	ErrRedirectionLimit = errors.New("hicluster: too many redirections")

	// ErrEmptyBootstrap is returned by New/NewWithOptions when no bootstrap
	// endpoints are given.
	ErrEmptyBootstrap = errors.New("hicluster: no bootstrap endpoints given")

	// ErrNoKey reports that a command has no routable key. Nothing in this
	// package returns it: Execute routes such commands to a random endpoint.
	ErrNoKey = errors.New("hicluster: command has no key")
)

// NetworkError wraps a dial or send failure, or an already-errored
// transport, encountered while routing a command. The router recovers from
// these internally by retrying against a random endpoint within the
// redirection TTL; NetworkError only escapes Execute once the TTL runs out
// while the most recent attempt was a network failure.
type NetworkError struct {
	Addr string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("hicluster: network error talking to %s: %v", e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError is returned when a reply has a RespType the renderer does
// not know how to flatten. It is fatal to the command that triggered it.
type ProtocolError struct {
	Type redis.RespType
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("hicluster: unrecognized reply type %v", e.Type)
}

// ConfigurationError reports a construction-time misconfiguration, such as
// an empty bootstrap list.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string { return "hicluster: " + e.Err.Error() }

func (e *ConfigurationError) Unwrap() error { return e.Err }
