// Package hicluster is a synchronous client for a Redis-protocol cluster
// that shards its keyspace across 16384 hash slots. It resolves the slot
// for a command, routes it to the slot's current owner, and transparently
// follows MOVED/ASK redirections within a bounded number of hops.
//
// A ClusterContext is not safe for concurrent use. Commands run one at a
// time, synchronously, on the calling goroutine; there is no background
// topology refresher and no internal queue. Callers sharing one
// ClusterContext across goroutines must provide their own locking.
package hicluster
