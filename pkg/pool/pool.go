package pool

import (
	"sync"
	"sync/atomic"
)

// Pool recycles values of one type between short-lived users, such as the
// scratch slices the store fills during a scan. The zero value is not
// usable; construct it with New.
type Pool[T any] struct {
	inner sync.Pool
	reset func(T)

	allocated atomic.Int64
	inUse     atomic.Int64
	gets      atomic.Int64
}

// RecyclerStats counts what a Pool has handed out. Reused is derived as
// gets minus allocations and is approximate while Gets are in flight.
type RecyclerStats struct {
	Allocated int64
	InUse     int64
	Reused    int64
}

// New returns a pool that builds values with newFn. If reset is non-nil it
// runs on every value handed back through Put.
//
// Example:
//
//	ids := New(
//	    func() *[]string { s := make([]string, 0, 64); return &s },
//	    func(s *[]string) { *s = (*s)[:0] },
//	)
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.inner.New = func() interface{} {
		p.allocated.Add(1)
		return newFn()
	}
	return p
}

// Get takes a value from the pool, building one if none is idle.
func (p *Pool[T]) Get() T {
	p.gets.Add(1)
	p.inUse.Add(1)
	return p.inner.Get().(T)
}

// Put resets v and makes it available to the next Get. v must not be used
// after Put.
func (p *Pool[T]) Put(v T) {
	if p.reset != nil {
		p.reset(v)
	}
	p.inUse.Add(-1)
	p.inner.Put(v)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() RecyclerStats {
	allocated := p.allocated.Load()
	reused := p.gets.Load() - allocated
	if reused < 0 {
		reused = 0
	}
	return RecyclerStats{
		Allocated: allocated,
		InUse:     p.inUse.Load(),
		Reused:    reused,
	}
}
