// Package memstore provides an in-memory record store with soft delete,
// secondary indexes, paginated queries and bounded concurrent access.
//
// # Architecture
//
// Records live in named collections inside a single store (pkg/store). Every
// record carries three timestamps maintained by the store: _created_at,
// _updated_at and _deleted_at. Deleting a record normally leaves a tombstone
// that is invisible to default reads but keeps its id occupied until the
// tombstone reaper (pkg/reaper) purges it after the retention horizon, 90
// days by default.
//
// Callers reach the store through a connection pool (pkg/pool) that admits at
// most a fixed number of concurrent users and fails with a pool_exhausted
// error when no slot frees up in time. The shop's data access layer
// (internal/repository) combines the two with a retry policy (pkg/retry) that
// retries only failed admissions.
//
// # Quick Start
//
//	import (
//	    "github.com/ajitpratap0/memstore/pkg/models"
//	    "github.com/ajitpratap0/memstore/pkg/store"
//	    "github.com/ajitpratap0/memstore/pkg/value"
//	)
//
//	st := store.New()
//	_, err := st.Insert("products", "P1", models.MustFields(map[string]interface{}{
//	    "name": "Desk lamp", "category": "lighting",
//	}))
//
//	page := st.FindAll("products", models.NewQuery().
//	    Where("category", value.String("lighting")).
//	    Paginate(1, 20))
//
// # Errors
//
// Failures are *errors.Error values from pkg/errors, classified by kind:
// duplicate_key, not_found and pool_exhausted are the ones the store and pool
// return. Use errors.IsDuplicateKey, errors.IsNotFound and
// errors.IsPoolExhausted rather than comparing messages.
//
// # Command Line
//
// cmd/memstore runs a demo, sweeps tombstones on a schedule while serving
// Prometheus metrics, exports collections as compressed snapshots and prints
// pool, collection and process statistics.
package memstore
