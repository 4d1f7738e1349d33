package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/models"
	"github.com/ajitpratap0/memstore/pkg/testutil"
	"github.com/ajitpratap0/memstore/pkg/value"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) (*Store, *testutil.ManualClock) {
	t.Helper()
	clock := testutil.NewManualClock(epoch)
	opts = append([]Option{WithClock(clock.Now), WithLogger(testutil.TestLogger(t))}, opts...)
	return New(opts...), clock
}

func product(price, qty int) models.Fields {
	return models.MustFields(map[string]interface{}{"price": price, "qty": qty})
}

func TestInsertStampsMetadata(t *testing.T) {
	st, _ := newTestStore(t)

	rec, err := st.Insert("products", "P1", product(10, 5))
	require.NoError(t, err)
	assert.Equal(t, "P1", rec.ID)
	assert.Equal(t, epoch, rec.CreatedAt)
	assert.Equal(t, epoch, rec.UpdatedAt)
	assert.Nil(t, rec.DeletedAt)
	assert.Equal(t, []string{"products"}, st.Collections())
}

func TestInsertIgnoresReservedKeys(t *testing.T) {
	st, _ := newTestStore(t)

	data := product(10, 5)
	data[models.FieldCreatedAt] = value.String("1999-01-01T00:00:00Z")
	data[models.FieldDeletedAt] = value.String("1999-01-01T00:00:00Z")
	data[models.FieldID] = value.String("other")

	rec, err := st.Insert("products", "P1", data)
	require.NoError(t, err)
	assert.Equal(t, epoch, rec.CreatedAt)
	assert.Nil(t, rec.DeletedAt)
	assert.Equal(t, "P1", rec.Get(models.FieldID).String())
	assert.NotContains(t, rec.Fields, models.FieldCreatedAt)
}

func TestInsertRejectsEmptyID(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.Insert("products", "", product(1, 1))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

// After a soft delete the record is hidden by default and visible on request.
func TestSoftDeleteVisibility(t *testing.T) {
	st, clock := newTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := st.Insert("c", fmt.Sprintf("x%d", i), product(i, i))
		require.NoError(t, err)
	}

	clock.Advance(time.Minute)
	for _, id := range []string{"x1", "x3"} {
		require.NoError(t, st.Delete("c", id, SoftDelete))

		_, ok := st.FindByID("c", id, false)
		assert.False(t, ok)

		rec, ok := st.FindByID("c", id, true)
		require.True(t, ok)
		require.NotNil(t, rec.DeletedAt)
		assert.Equal(t, epoch.Add(time.Minute), *rec.DeletedAt)
		assert.Equal(t, *rec.DeletedAt, rec.UpdatedAt)
	}

	assert.Equal(t, []string{"x0", "x2", "x4"}, st.FindAll("c", models.NewQuery()).IDs())
	assert.Equal(t, 5, st.FindAll("c", models.NewQuery().WithDeleted()).TotalCount)
	assert.Equal(t, map[string]int{"c": 3}, st.Stats())
}

// A soft-deleted id stays occupied until a hard delete frees it.
func TestDuplicateKeyRejection(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.Insert("c", "X", product(1, 1))
	require.NoError(t, err)

	_, err = st.Insert("c", "X", product(2, 2))
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateKey(err))
	assert.ErrorIs(t, err, errors.ErrDuplicateKey)

	require.NoError(t, st.Delete("c", "X", SoftDelete))
	_, err = st.Insert("c", "X", product(2, 2))
	assert.True(t, errors.IsDuplicateKey(err))

	require.NoError(t, st.Delete("c", "X", HardDelete))
	_, err = st.Insert("c", "X", product(2, 2))
	assert.NoError(t, err)
}

func TestDuplicateKeyCarriesContext(t *testing.T) {
	st, _ := newTestStore(t)
	_, _ = st.Insert("orders", "O1", nil)
	_, err := st.Insert("orders", "O1", nil)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	c, _ := e.Detail("collection")
	id, _ := e.Detail("id")
	assert.Equal(t, "orders", c)
	assert.Equal(t, "O1", id)
}

func TestUpdateShallowMerge(t *testing.T) {
	st, clock := newTestStore(t)

	_, err := st.Insert("products", "P1", product(10, 5))
	require.NoError(t, err)

	clock.Advance(time.Second)
	rec, err := st.Update("products", "P1", models.MustFields(map[string]interface{}{"qty": 3}))
	require.NoError(t, err)

	got, ok := st.FindByID("products", "P1", false)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	qty, _ := got.Fields["qty"].AsInt()
	price, _ := got.Fields["price"].AsInt()
	assert.Equal(t, int64(3), qty)
	assert.Equal(t, int64(10), price)
	assert.Equal(t, epoch, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestUpdateReplacesNestedValues(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.Insert("customers", "C1", models.MustFields(map[string]interface{}{
		"address": map[string]interface{}{"city": "Oslo", "zip": "0150"},
	}))
	require.NoError(t, err)

	_, err = st.Update("customers", "C1", models.MustFields(map[string]interface{}{
		"address": map[string]interface{}{"city": "Bergen"},
	}))
	require.NoError(t, err)

	rec, _ := st.FindByID("customers", "C1", false)
	addr, ok := rec.Fields["address"].AsMap()
	require.True(t, ok)
	assert.Len(t, addr, 1)
	assert.Equal(t, "Bergen", addr["city"].String())
}

func TestUpdateIgnoresReservedKeys(t *testing.T) {
	st, clock := newTestStore(t)
	_, _ = st.Insert("c", "X", nil)
	clock.Advance(time.Second)

	rec, err := st.Update("c", "X", models.Fields{
		models.FieldCreatedAt: value.String("2000-01-01T00:00:00Z"),
		models.FieldDeletedAt: value.String("2000-01-01T00:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, epoch, rec.CreatedAt)
	assert.False(t, rec.IsDeleted())
	assert.Empty(t, rec.Fields)
}

func TestUpdateMissingOrTombstoned(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.Update("c", "nope", product(1, 1))
	assert.True(t, errors.IsNotFound(err))

	_, _ = st.Insert("c", "X", product(1, 1))
	require.NoError(t, st.Delete("c", "X", SoftDelete))
	_, err = st.Update("c", "X", product(2, 2))
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdatedAtIsMonotonic(t *testing.T) {
	st, clock := newTestStore(t)
	_, _ = st.Insert("c", "X", nil)

	clock.Set(epoch.Add(-time.Hour))
	rec, err := st.Update("c", "X", product(1, 1))
	require.NoError(t, err)
	assert.Equal(t, epoch, rec.UpdatedAt)
	assert.Equal(t, epoch, rec.CreatedAt)

	clock.Set(epoch.Add(time.Hour))
	rec, _ = st.Update("c", "X", product(2, 2))
	assert.Equal(t, epoch.Add(time.Hour), rec.UpdatedAt)
}

func TestDeleteSequence(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.Insert("products", "P1", product(10, 5))
	require.NoError(t, err)

	require.NoError(t, st.Delete("products", "P1", SoftDelete))

	err = st.Delete("products", "P1", SoftDelete)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, st.Delete("products", "P1", HardDelete))
	_, ok := st.FindByID("products", "P1", true)
	assert.False(t, ok)

	_, err = st.Insert("products", "P1", product(12, 1))
	assert.NoError(t, err)
}

func TestDeleteMissing(t *testing.T) {
	st, _ := newTestStore(t)
	assert.True(t, errors.IsNotFound(st.Delete("c", "X", SoftDelete)))
	assert.True(t, errors.IsNotFound(st.Delete("c", "X", HardDelete)))
}

func TestHardDeleteLiveRecord(t *testing.T) {
	st, _ := newTestStore(t)
	_, _ = st.Insert("c", "A", nil)
	_, _ = st.Insert("c", "B", nil)
	_, _ = st.Insert("c", "C", nil)

	require.NoError(t, st.Delete("c", "B", HardDelete))
	assert.Equal(t, []string{"A", "C"}, st.FindAll("c", models.NewQuery().WithDeleted()).IDs())

	// Reinsertion goes to the back of the insertion order.
	_, err := st.Insert("c", "B", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B"}, st.FindAll("c", models.NewQuery()).IDs())
}

func TestReadsReturnCopies(t *testing.T) {
	st, _ := newTestStore(t)

	data := product(10, 5)
	inserted, err := st.Insert("products", "P1", data)
	require.NoError(t, err)

	data["qty"] = value.Int(100)
	inserted.Fields["qty"] = value.Int(200)
	inserted.CreatedAt = time.Time{}

	found, _ := st.FindByID("products", "P1", false)
	found.Fields["qty"] = value.Int(300)
	delete(found.Fields, "price")

	page := st.FindAll("products", models.NewQuery())
	page.Data[0].Fields["qty"] = value.Int(400)

	again, _ := st.FindByID("products", "P1", false)
	qty, _ := again.Fields["qty"].AsInt()
	assert.Equal(t, int64(5), qty)
	assert.Contains(t, again.Fields, "price")
	assert.Equal(t, epoch, again.CreatedAt)
}

func TestLookupCreatesCollection(t *testing.T) {
	st, _ := newTestStore(t)
	_, ok := st.FindByID("reviews", "R1", false)
	assert.False(t, ok)
	assert.Equal(t, []string{"reviews"}, st.Collections())
	assert.Equal(t, map[string]int{"reviews": 0}, st.Stats())
}

func TestDumpIncludesTombstones(t *testing.T) {
	st, _ := newTestStore(t)
	_, _ = st.Insert("c", "A", nil)
	_, _ = st.Insert("c", "B", nil)
	require.NoError(t, st.Delete("c", "A", SoftDelete))

	dump := st.Dump("c")
	require.Len(t, dump, 2)
	assert.Equal(t, "A", dump[0].ID)
	assert.True(t, dump[0].IsDeleted())
	assert.False(t, dump[1].IsDeleted())
}

func TestConcurrentInsertsAreSerialized(t *testing.T) {
	st := New()

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	var dupes sync.Map
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// Every worker races on the shared ids.
				if _, err := st.Insert("c", fmt.Sprintf("id-%d", i), nil); err != nil {
					assert.True(t, errors.IsDuplicateKey(err))
					dupes.Store(fmt.Sprintf("%d-%d", w, i), true)
				}
				_ = st.FindAll("c", models.NewQuery())
			}
		}(w)
	}
	wg.Wait()

	n := 0
	dupes.Range(func(_, _ any) bool { n++; return true })
	assert.Equal(t, perWorker, st.Stats()["c"])
	assert.Equal(t, perWorker*(workers-1), n)
}
