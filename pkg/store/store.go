package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/logger"
	"github.com/ajitpratap0/memstore/pkg/metrics"
	"github.com/ajitpratap0/memstore/pkg/models"
	"github.com/ajitpratap0/memstore/pkg/pool"
)

// DefaultRetention is how long a tombstone survives before PurgeTombstones
// may remove it.
const DefaultRetention = 90 * 24 * time.Hour

// DeleteMode selects between tombstoning and immediate removal.
type DeleteMode int

const (
	// SoftDelete stamps _deleted_at and keeps the record until purge.
	SoftDelete DeleteMode = iota
	// HardDelete removes the record immediately, bypassing retention.
	HardDelete
)

func (m DeleteMode) String() string {
	if m == HardDelete {
		return "hard"
	}
	return "soft"
}

// Store is an in-memory record store organised in named collections.
//
// Every operation, reads included, runs under one store-wide mutex, so
// callers observe operations on a collection in a single total order.
// Records handed out are copies; callers can never reach internal state.
type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	names       []string
	indexes     map[indexKey]*index

	now       func() time.Time
	retention time.Duration
	logger    *zap.Logger

	scratch *pool.Pool[*[]*models.Record]
}

// collection keeps records by id plus their insertion order, which is the
// order FindAll pages through.
type collection struct {
	records map[string]*models.Record
	order   []string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetention sets the tombstone retention horizon.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logger.OrNop(l) }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		indexes:     make(map[indexKey]*index),
		now:         time.Now,
		retention:   DefaultRetention,
		logger:      zap.NewNop(),
		scratch: pool.New(
			func() *[]*models.Record { s := make([]*models.Record, 0, 64); return &s },
			func(s *[]*models.Record) { clear(*s); *s = (*s)[:0] },
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retention returns the configured retention horizon.
func (s *Store) Retention() time.Duration { return s.retention }

// Insert stores data under id. It fails with duplicate_key while id is held
// by a live record or by a tombstone that has not been purged or hard
// deleted. Reserved metadata keys and "id" in data are ignored.
func (s *Store) Insert(collection, id string, data models.Fields) (rec *models.Record, err error) {
	defer observe("insert", collection, time.Now(), &err)

	if id == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "record id must not be empty").
			WithDetail("collection", collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collectionLocked(collection)
	if _, exists := c.records[id]; exists {
		return nil, errors.DuplicateKey(collection, id)
	}

	now := s.timestamp()
	r := &models.Record{
		ID:        id,
		Fields:    sanitize(data, len(data)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.records[id] = r
	c.order = append(c.order, id)

	s.logger.Debug("record inserted", zap.String("collection", collection), zap.String("id", id))
	return r.Clone(), nil
}

// Update shallow-merges partial into the live record id: top-level keys are
// overwritten and nested maps or lists are replaced whole. It fails with
// not_found when id is absent or tombstoned.
func (s *Store) Update(collection, id string, partial models.Fields) (rec *models.Record, err error) {
	defer observe("update", collection, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.collectionLocked(collection).records[id]
	if !ok || r.IsDeleted() {
		return nil, errors.NotFound(collection, id)
	}

	for k, v := range partial {
		if models.IsReserved(k) || k == models.FieldID {
			continue
		}
		r.Fields[k] = v.Clone()
	}
	r.UpdatedAt = advance(r.UpdatedAt, s.timestamp())

	s.logger.Debug("record updated", zap.String("collection", collection), zap.String("id", id))
	return r.Clone(), nil
}

// Delete removes id. A soft delete stamps _deleted_at and fails with
// not_found if the record is absent or already a tombstone. A hard delete
// removes the record, tombstone or not, and fails only if it is absent.
func (s *Store) Delete(collection, id string, mode DeleteMode) (err error) {
	defer observe("delete_"+mode.String(), collection, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collectionLocked(collection)
	r, ok := c.records[id]
	if !ok {
		return errors.NotFound(collection, id)
	}

	if mode == HardDelete {
		delete(c.records, id)
		c.compact()
		s.logger.Debug("record removed", zap.String("collection", collection), zap.String("id", id))
		return nil
	}

	if r.IsDeleted() {
		return errors.NotFound(collection, id)
	}
	now := s.timestamp()
	r.DeletedAt = &now
	r.UpdatedAt = advance(r.UpdatedAt, now)

	s.logger.Debug("record tombstoned", zap.String("collection", collection), zap.String("id", id))
	return nil
}

// FindByID returns a copy of record id. Tombstones are only returned when
// includeDeleted is set.
func (s *Store) FindByID(collection, id string, includeDeleted bool) (*models.Record, bool) {
	start := time.Now()
	s.mu.Lock()
	r, ok := s.findLocked(collection, id, includeDeleted)
	if ok {
		r = r.Clone()
	}
	s.mu.Unlock()

	metrics.StoreLatency.WithLabelValues("find_by_id").Observe(time.Since(start).Seconds())
	return r, ok
}

// PurgeTombstones permanently removes every tombstone in collection whose
// _deleted_at is at least the retention horizon in the past, and returns how
// many were removed. Indexes are left as they are.
func (s *Store) PurgeTombstones(collection string) int {
	start := time.Now()
	s.mu.Lock()

	c := s.collectionLocked(collection)
	now := s.timestamp()
	purged := 0
	for id, r := range c.records {
		if r.DeletedAt != nil && !now.Before(r.DeletedAt.Add(s.retention)) {
			delete(c.records, id)
			purged++
		}
	}
	if purged > 0 {
		c.compact()
	}
	s.mu.Unlock()

	metrics.StoreLatency.WithLabelValues("purge").Observe(time.Since(start).Seconds())
	if purged > 0 {
		metrics.TombstonesPurged.WithLabelValues(collection).Add(float64(purged))
		s.logger.Info("tombstones purged",
			zap.String("collection", collection),
			zap.Int("count", purged),
			zap.Duration("retention", s.retention))
	}
	return purged
}

// Collections lists collection names in creation order.
func (s *Store) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Stats returns the number of live records per collection.
func (s *Store) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.collections))
	for name, c := range s.collections {
		live := 0
		for _, r := range c.records {
			if !r.IsDeleted() {
				live++
			}
		}
		out[name] = live
	}
	return out
}

// Dump returns copies of every record in collection, tombstones included, in
// insertion order.
func (s *Store) Dump(collection string) []*models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collectionLocked(collection)
	out := make([]*models.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id].Clone())
	}
	return out
}

// collectionLocked returns the named collection, creating it on first touch.
func (s *Store) collectionLocked(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{records: make(map[string]*models.Record)}
		s.collections[name] = c
		s.names = append(s.names, name)
	}
	return c
}

func (s *Store) findLocked(collection, id string, includeDeleted bool) (*models.Record, bool) {
	r, ok := s.collectionLocked(collection).records[id]
	if !ok || (r.IsDeleted() && !includeDeleted) {
		return nil, false
	}
	return r, true
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// compact drops ids that are no longer present from the insertion order.
func (c *collection) compact() {
	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := c.records[id]; ok {
			kept = append(kept, id)
		}
	}
	clear(c.order[len(kept):])
	c.order = kept
}

// advance keeps _updated_at monotonic when the clock steps backwards.
func advance(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

// sanitize deep-copies caller data without store-maintained keys.
func sanitize(data models.Fields, capacity int) models.Fields {
	out := make(models.Fields, capacity)
	for k, v := range data {
		if models.IsReserved(k) || k == models.FieldID {
			continue
		}
		out[k] = v.Clone()
	}
	return out
}

func observe(operation, collection string, start time.Time, err *error) {
	metrics.ObserveOperation(operation, collection, start, *err)
}
