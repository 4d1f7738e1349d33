package store

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/metrics"
	"github.com/ajitpratap0/memstore/pkg/models"
	"github.com/ajitpratap0/memstore/pkg/value"
)

type indexKey struct {
	collection string
	field      string
}

// index maps the string form of a field value to the ids that carried it
// when the index was last built. It is not maintained by Insert, Update,
// Delete or PurgeTombstones; RebuildIndex resynchronises it.
type index struct {
	entries map[string][]string
}

// CreateIndex builds an index on field by scanning collection, tombstones
// included. Values are keyed by their string form, so a number 1 and a
// string "1" land in the same bucket; null and missing values are not
// indexed. Creating an index that already exists rebuilds it.
func (s *Store) CreateIndex(collection, field string) (err error) {
	defer observe("create_index", collection, time.Now(), &err)

	if field == "" {
		return errors.New(errors.ErrorTypeValidation, "index field must not be empty").
			WithDetail("collection", collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buildIndexLocked(collection, field)
	return nil
}

// RebuildIndex rescans collection into an existing index, picking up records
// inserted, changed or removed since it was built.
func (s *Store) RebuildIndex(collection, field string) (err error) {
	defer observe("rebuild_index", collection, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[indexKey{collection, field}]; !ok {
		return errors.Newf(errors.ErrorTypeNotFound, "no index on %s.%s", collection, field).
			WithDetail("collection", collection).
			WithDetail("field", field)
	}
	s.buildIndexLocked(collection, field)
	return nil
}

// Indexes lists the indexed fields of collection in name order.
func (s *Store) Indexes(collection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fields []string
	for k := range s.indexes {
		if k.collection == collection {
			fields = append(fields, k.field)
		}
	}
	sort.Strings(fields)
	return fields
}

// FindByIndex returns copies of the live records whose field equals v.
//
// With an index on (collection, field) the candidate ids come from the index
// and each is re-read with default visibility, so ids that have since been
// tombstoned or purged drop out while records inserted after the build are
// not seen. Null and missing values are never indexed, so a null lookup on
// an indexed field finds nothing. Without an index the collection is scanned
// with an equality filter and every live match is returned.
func (s *Store) FindByIndex(collection, field string, v value.Value) []*models.Record {
	start := time.Now()
	defer func() {
		metrics.StoreLatency.WithLabelValues("find_by_index").Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[indexKey{collection, field}]
	if !ok {
		metrics.IndexFallbacks.WithLabelValues(collection, field).Inc()
		return s.scanEqualLocked(collection, field, v)
	}

	if v.IsNull() {
		return []*models.Record{}
	}
	ids := idx.entries[v.String()]
	out := make([]*models.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.findLocked(collection, id, false); ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *Store) scanEqualLocked(collection, field string, v value.Value) []*models.Record {
	matches := s.scratch.Get()
	defer s.scratch.Put(matches)

	s.scanLocked(collection, models.NewQuery().Where(field, v), matches)
	out := make([]*models.Record, 0, len(*matches))
	for _, r := range *matches {
		out = append(out, r.Clone())
	}
	return out
}

func (s *Store) buildIndexLocked(collection, field string) {
	c := s.collectionLocked(collection)
	entries := make(map[string][]string)
	for _, id := range c.order {
		v := c.records[id].Get(field)
		if v.IsNull() {
			continue
		}
		key := v.String()
		entries[key] = append(entries[key], id)
	}
	s.indexes[indexKey{collection, field}] = &index{entries: entries}

	s.logger.Info("index built",
		zap.String("collection", collection),
		zap.String("field", field),
		zap.Int("records", len(c.order)),
		zap.Int("distinct_values", len(entries)))
}
