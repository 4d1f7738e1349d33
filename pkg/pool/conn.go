package pool

import (
	"sync/atomic"
	"time"
)

// Conn is one admission slot checked out of a ConnectionPool.
//
// Begin, Commit and Rollback only toggle a marker. They buffer nothing and
// give no atomicity across store calls; callers must not rely on them to
// group mutations.
type Conn struct {
	id         uint64
	pool       *ConnectionPool
	acquiredAt time.Time
	released   atomic.Bool
	inTx       atomic.Bool
}

// ID returns a process-unique connection number.
func (c *Conn) ID() uint64 { return c.id }

// AcquiredAt returns when the slot was granted.
func (c *Conn) AcquiredAt() time.Time { return c.acquiredAt }

// Release returns the slot to the pool. Calling it more than once is a no-op.
func (c *Conn) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	c.inTx.Store(false)
	c.pool.release(c)
}

// Released reports whether the slot has been returned.
func (c *Conn) Released() bool { return c.released.Load() }

// Begin marks the connection as inside a transaction.
func (c *Conn) Begin() { c.inTx.Store(true) }

// Commit clears the transaction marker.
func (c *Conn) Commit() { c.inTx.Store(false) }

// Rollback clears the transaction marker. Nothing is undone.
func (c *Conn) Rollback() { c.inTx.Store(false) }

// InTransaction reports whether Begin was called without a matching Commit or Rollback.
func (c *Conn) InTransaction() bool { return c.inTx.Load() }
