package health

import (
	"context"
	"errors"
)

// ErrNoHosts indicates a backend family with no configured instances.
var ErrNoHosts = errors.New("no backend instances configured")

// Pool is the view of a backend pool needed by PoolCheck.
type Pool interface {
	Name() string
	Size() int
}

// PoolCheck reports a backend family and its instance count. Backends
// are not probed; the check fails only for an empty pool.
type PoolCheck struct {
	pool Pool
}

// NewPoolCheck creates a readiness check for pool.
func NewPoolCheck(pool Pool) *PoolCheck {
	return &PoolCheck{pool: pool}
}

// Name returns "backend:<family>".
func (c *PoolCheck) Name() string {
	return "backend:" + c.pool.Name()
}

// Check fails when the pool has no hosts.
func (c *PoolCheck) Check(context.Context) error {
	if c.pool.Size() == 0 {
		return ErrNoHosts
	}
	return nil
}

// Details reports the instance count.
func (c *PoolCheck) Details() map[string]any {
	return map[string]any{"hosts": c.pool.Size()}
}
