package pool

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/logger"
	"github.com/ajitpratap0/memstore/pkg/metrics"
)

const (
	// DefaultMaxConnections is the slot count used when none is configured.
	DefaultMaxConnections = 20
	// DefaultAcquireTimeout bounds Acquire when the caller passes a negative timeout.
	DefaultAcquireTimeout = 5 * time.Second
)

// Stats is a best-effort snapshot of pool occupancy. Active and Available
// are read without stopping concurrent Acquire/Release calls.
type Stats struct {
	MaxConnections       int `json:"max_connections"`
	ActiveConnections    int `json:"active_connections"`
	AvailableConnections int `json:"available_connections"`
}

// ConnectionPool bounds the number of concurrently open logical connections.
// Capacity is fixed at construction.
type ConnectionPool struct {
	name           string
	max            int
	sem            *semaphore.Weighted
	active         atomic.Int64
	nextID         atomic.Uint64
	defaultTimeout time.Duration
	logger         *zap.Logger
}

// Option configures a ConnectionPool.
type Option func(*ConnectionPool)

// WithLogger sets the pool logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *ConnectionPool) { p.logger = logger.OrNop(l) }
}

// WithName labels the pool in metrics and logs.
func WithName(name string) Option {
	return func(p *ConnectionPool) { p.name = name }
}

// WithDefaultTimeout sets the wait used when Acquire is given a negative timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(p *ConnectionPool) { p.defaultTimeout = d }
}

// NewConnectionPool creates a pool with maxConnections slots. Non-positive
// values fall back to DefaultMaxConnections.
func NewConnectionPool(maxConnections int, opts ...Option) *ConnectionPool {
	if maxConnections <= 0 {
		maxConnections = DefaultMaxConnections
	}
	p := &ConnectionPool{
		name:           "default",
		max:            maxConnections,
		sem:            semaphore.NewWeighted(int64(maxConnections)),
		defaultTimeout: DefaultAcquireTimeout,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Max returns the configured capacity.
func (p *ConnectionPool) Max() int { return p.max }

// Acquire blocks until a slot is free, timeout elapses or ctx is done.
// A zero timeout tries once without waiting; a negative timeout uses the
// pool default. On expiry it returns a pool_exhausted error carrying the
// configured maximum. The returned Conn must be released; prefer
// WithConnection, which guarantees it.
func (p *ConnectionPool) Acquire(ctx context.Context, timeout time.Duration) (*Conn, error) {
	if timeout < 0 {
		timeout = p.defaultTimeout
	}
	start := time.Now()

	if timeout == 0 {
		if !p.sem.TryAcquire(1) {
			return nil, p.exhausted(nil)
		}
		return p.checkout(start), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCanceled, "acquire abandoned")
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeCanceled, "acquire abandoned")
		}
		return nil, p.exhausted(err)
	}
	return p.checkout(start), nil
}

// WithConnection runs fn with a pooled connection and releases it on every
// exit path, including panics unwinding through fn.
func (p *ConnectionPool) WithConnection(ctx context.Context, timeout time.Duration, fn func(*Conn) error) error {
	conn, err := p.Acquire(ctx, timeout)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn)
}

// Stats returns a best-effort occupancy snapshot.
func (p *ConnectionPool) Stats() Stats {
	active := int(p.active.Load())
	return Stats{
		MaxConnections:       p.max,
		ActiveConnections:    active,
		AvailableConnections: p.max - active,
	}
}

func (p *ConnectionPool) checkout(start time.Time) *Conn {
	active := p.active.Add(1)
	metrics.PoolActiveConnections.WithLabelValues(p.name).Set(float64(active))
	metrics.PoolAcquireWait.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	c := &Conn{
		id:         p.nextID.Add(1),
		pool:       p,
		acquiredAt: time.Now(),
	}
	p.logger.Debug("connection acquired",
		zap.Uint64("conn_id", c.id),
		zap.Int64("active", active))
	return c
}

func (p *ConnectionPool) release(c *Conn) {
	active := p.active.Add(-1)
	p.sem.Release(1)
	metrics.PoolActiveConnections.WithLabelValues(p.name).Set(float64(active))
	p.logger.Debug("connection released",
		zap.Uint64("conn_id", c.id),
		zap.Duration("held", time.Since(c.acquiredAt)),
		zap.Int64("active", active))
}

func (p *ConnectionPool) exhausted(cause error) error {
	metrics.PoolExhausted.WithLabelValues(p.name).Inc()
	p.logger.Warn("connection pool exhausted",
		zap.String("pool", p.name),
		zap.Int("max_connections", p.max))
	return errors.PoolExhausted(p.max, cause)
}
