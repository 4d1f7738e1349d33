// Package repository is the typed facade the rest of the shop talks to. It
// owns one store, one connection pool and the maintenance reaper, and runs
// every call inside a pooled connection.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/memstore/pkg/config"
	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/logger"
	"github.com/ajitpratap0/memstore/pkg/models"
	"github.com/ajitpratap0/memstore/pkg/observability"
	"github.com/ajitpratap0/memstore/pkg/pool"
	"github.com/ajitpratap0/memstore/pkg/reaper"
	"github.com/ajitpratap0/memstore/pkg/retry"
	"github.com/ajitpratap0/memstore/pkg/store"
	"github.com/ajitpratap0/memstore/pkg/value"
)

// Collection names used by the facade.
const (
	Products  = "products"
	Customers = "customers"
	Orders    = "orders"
	Reviews   = "reviews"
	Coupons   = "coupons"
)

// FoundersCoupon is the coupon code seeded into every new database.
const FoundersCoupon = "FOUNDERS50"

// defaultIndexes are created at construction, before any data exists.
var defaultIndexes = []struct{ collection, field string }{
	{Customers, "email"},
	{Products, "category"},
	{Orders, "customer_id"},
	{Reviews, "product_id"},
}

// Database is the shop's data access layer. It is constructed explicitly
// and passed to whoever needs it.
type Database struct {
	cfg    *config.StoreConfig
	store  *store.Store
	pool   *pool.ConnectionPool
	retry  *retry.Policy
	reaper *reaper.Reaper
	logger *zap.Logger
}

// Stats reports pool occupancy and live records per collection.
type Stats struct {
	ConnectionPool pool.Stats     `json:"connection_pool"`
	Collections    map[string]int `json:"collections"`
}

// Option configures a Database.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	storeOpts []store.Option
	retry     *retry.Policy
}

// WithLogger sets the logger shared by the database and its components.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStoreOptions passes extra options to the underlying store, such as
// store.WithClock in tests.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithRetryPolicy replaces the policy built from cfg.Retry.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(o *options) { o.retry = p }
}

// New builds a database from cfg, creates the default indexes and seeds
// the founders coupon. A nil cfg means config.DefaultStoreConfig.
func New(cfg *config.StoreConfig, opts ...Option) (*Database, error) {
	if cfg == nil {
		cfg = config.DefaultStoreConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	log := logger.OrNop(o.logger).With(zap.String("store", cfg.Name))

	storeOpts := append([]store.Option{
		store.WithRetention(cfg.Retention.Horizon()),
		store.WithLogger(log.Named("store")),
	}, o.storeOpts...)
	st := store.New(storeOpts...)

	policy := o.retry
	if policy == nil {
		policy = retry.NewPolicy(cfg.Retry.MaxAttempts, cfg.Retry.InitialDelay).
			WithDelay(cfg.Retry.InitialDelay, cfg.Retry.MaxDelay).
			WithMultiplier(cfg.Retry.Multiplier)
	}

	db := &Database{
		cfg:   cfg,
		store: st,
		pool: pool.NewConnectionPool(cfg.Pool.MaxConnections,
			pool.WithName(cfg.Name),
			pool.WithDefaultTimeout(cfg.Pool.AcquireTimeout),
			pool.WithLogger(log.Named("pool"))),
		retry:  policy.WithLogger(log.Named("retry")),
		reaper: reaper.New(st, log.Named("reaper")),
		logger: log,
	}

	if err := db.setupIndexes(); err != nil {
		return nil, err
	}
	if err := db.seed(); err != nil {
		return nil, err
	}

	log.Info("database ready",
		zap.Int("max_connections", cfg.Pool.MaxConnections),
		zap.Duration("retention", cfg.Retention.Horizon()))
	return db, nil
}

func (db *Database) setupIndexes() error {
	for _, ix := range defaultIndexes {
		if err := db.store.CreateIndex(ix.collection, ix.field); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create default index")
		}
	}
	return nil
}

func (db *Database) seed() error {
	// 50% off, capped at 100, unlimited uses, never expires.
	_, err := db.store.Insert(Coupons, FoundersCoupon, models.MustFields(map[string]interface{}{
		"code":           FoundersCoupon,
		"discount_type":  "percentage",
		"discount_value": 50,
		"max_discount":   100,
		"min_purchase":   0,
		"max_uses":       nil,
		"current_uses":   0,
		"valid_from":     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Format(models.TimeLayout),
		"valid_until":    nil,
		"description":    "Founding team discount - 50% off up to $100",
	}))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to seed coupons")
	}
	return nil
}

// Store exposes the underlying store for operator tooling such as exports.
func (db *Database) Store() *store.Store { return db.store }

// Config returns the configuration the database was built with.
func (db *Database) Config() *config.StoreConfig { return db.cfg }

// RunMaintenance purges expired tombstones from the configured collections
// and returns the count removed from each.
func (db *Database) RunMaintenance(ctx context.Context) (map[string]int, error) {
	purged, err := db.reaper.Sweep(ctx, db.cfg.Maintenance.Collections)
	if err != nil {
		return purged, err
	}
	db.logger.Info("maintenance finished", zap.Any("purged", purged))
	return purged, nil
}

// RunMaintenanceLoop sweeps every interval until ctx is done.
func (db *Database) RunMaintenanceLoop(ctx context.Context, interval time.Duration, report func(map[string]int)) error {
	return db.reaper.Run(ctx, interval, db.cfg.Maintenance.Collections, report)
}

// Stats returns pool occupancy and live record counts. It does not take a
// connection, so it never competes with regular traffic.
func (db *Database) Stats() Stats {
	return Stats{
		ConnectionPool: db.pool.Stats(),
		Collections:    db.store.Stats(),
	}
}

// do runs fn inside a span and a pooled connection. Only a failed
// acquisition is retried; store errors are returned as they are.
func (db *Database) do(ctx context.Context, operation, collection string, fn func() error) error {
	ctx = logger.ContextWith(ctx, operation, collection)
	err := observability.TraceOperation(ctx, "repository", operation, collection, func(ctx context.Context) error {
		return db.retry.Execute(ctx, func() error {
			return db.pool.WithConnection(ctx, db.cfg.Pool.AcquireTimeout, func(*pool.Conn) error {
				return fn()
			})
		})
	})
	if err != nil && !errors.IsNotFound(err) && !errors.IsDuplicateKey(err) {
		logger.FromContext(ctx, db.logger).Warn("repository call failed", zap.Error(err))
	}
	return err
}

func (db *Database) get(ctx context.Context, operation, collection, id string) (*models.Record, error) {
	var rec *models.Record
	err := db.do(ctx, operation, collection, func() error {
		r, ok := db.store.FindByID(collection, id, false)
		if !ok {
			return errors.NotFound(collection, id)
		}
		rec = r
		return nil
	})
	return rec, err
}

func (db *Database) list(ctx context.Context, operation, collection string, q models.Query) (*models.QueryResult, error) {
	var res *models.QueryResult
	err := db.do(ctx, operation, collection, func() error {
		res = db.store.FindAll(collection, q)
		return nil
	})
	return res, err
}

// create inserts data under its "id" field, or under a fresh UUID when the
// field is missing or empty.
func (db *Database) create(ctx context.Context, operation, collection string, data models.Fields) (string, error) {
	id := ""
	if s, ok := data[models.FieldID].AsString(); ok {
		id = s
	}
	if id == "" {
		id = uuid.NewString()
	}
	err := db.do(ctx, operation, collection, func() error {
		_, err := db.store.Insert(collection, id, data)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (db *Database) update(ctx context.Context, operation, collection, id string, updates models.Fields) error {
	return db.do(ctx, operation, collection, func() error {
		_, err := db.store.Update(collection, id, updates)
		return err
	})
}

func filterQuery(field, v string, page, pageSize int) models.Query {
	q := models.NewQuery().Paginate(page, pageSize)
	if v != "" {
		q = q.Where(field, value.String(v))
	}
	return q
}
