package backend

import (
	"sync/atomic"
)

// LoadBalancer is the interface for load balancing algorithms.
type LoadBalancer interface {
	Next() *Host
}

// RoundRobinBalancer implements round-robin load balancing over a fixed
// host list. The cursor always holds a value in [0, len(hosts)).
type RoundRobinBalancer struct {
	hosts  []*Host
	cursor atomic.Uint64
}

// NewRoundRobinBalancer creates a new round-robin load balancer.
func NewRoundRobinBalancer(hosts []*Host) *RoundRobinBalancer {
	return &RoundRobinBalancer{
		hosts: hosts,
	}
}

// Next returns the host at the cursor and advances the cursor by one,
// wrapping at the end of the list. Concurrent callers each observe a
// distinct cursor value.
func (b *RoundRobinBalancer) Next() *Host {
	n := uint64(len(b.hosts))
	if n == 0 {
		return nil
	}

	for {
		cur := b.cursor.Load()
		if b.cursor.CompareAndSwap(cur, (cur+1)%n) {
			return b.hosts[cur%n]
		}
	}
}

// Cursor returns the index of the host the next call to Next will return.
func (b *RoundRobinBalancer) Cursor() int {
	return int(b.cursor.Load())
}
