// Package store implements the in-memory record store: named collections of
// soft-deletable, timestamped records with secondary indexes and paginated
// filtering.
//
// # Visibility
//
// Delete defaults to a soft delete that stamps _deleted_at. Tombstones are
// hidden from FindByID, FindAll and FindByIndex unless a caller opts in, yet
// they keep their id occupied: inserting the same id again fails with
// duplicate_key until the tombstone is hard deleted or purged.
//
//	st := store.New(store.WithRetention(90 * 24 * time.Hour))
//	_, _ = st.Insert("products", "P1", models.MustFields(map[string]interface{}{"price": 10}))
//	_ = st.Delete("products", "P1", store.SoftDelete)
//	_, ok := st.FindByID("products", "P1", false) // ok == false
//	_, ok = st.FindByID("products", "P1", true)   // ok == true
//
// # Indexes
//
// CreateIndex snapshots a value-to-ids mapping. Later writes do not update
// it; call RebuildIndex to resynchronise. FindByIndex re-reads every
// candidate, so removed records never leak through a stale index, but
// records written after the build are invisible to it until a rebuild.
//
// # Concurrency
//
// A single mutex serialises readers and writers across all collections.
package store
