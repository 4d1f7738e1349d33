package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/models"
)

func TestPurgeRetentionBoundary(t *testing.T) {
	const eps = time.Nanosecond
	horizon := 48 * time.Hour

	cases := []struct {
		name    string
		elapsed time.Duration
		purged  int
	}{
		{"just before horizon", horizon - eps, 0},
		{"exactly at horizon", horizon, 1},
		{"just after horizon", horizon + eps, 1},
		{"long after", 10 * horizon, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, clock := newTestStore(t, WithRetention(horizon))
			_, err := st.Insert("orders", "O1", nil)
			require.NoError(t, err)
			require.NoError(t, st.Delete("orders", "O1", SoftDelete))

			clock.Advance(tc.elapsed)
			assert.Equal(t, tc.purged, st.PurgeTombstones("orders"))

			_, ok := st.FindByID("orders", "O1", true)
			assert.Equal(t, tc.purged == 0, ok)
		})
	}
}

func TestPurgeLeavesLiveRecordsAndFreesIDs(t *testing.T) {
	st, clock := newTestStore(t)
	for _, id := range []string{"A", "B", "C", "D"} {
		_, err := st.Insert("c", id, nil)
		require.NoError(t, err)
	}
	require.NoError(t, st.Delete("c", "A", SoftDelete))
	clock.Advance(24 * time.Hour)
	require.NoError(t, st.Delete("c", "C", SoftDelete))

	clock.Advance(DefaultRetention - time.Hour)
	assert.Equal(t, 1, st.PurgeTombstones("c"))
	assert.Equal(t, []string{"B", "C", "D"}, st.FindAll("c", models.NewQuery().WithDeleted()).IDs())

	// A purged id can be reused.
	_, err := st.Insert("c", "A", nil)
	assert.NoError(t, err)
	_, err = st.Insert("c", "C", nil)
	assert.True(t, errors.IsDuplicateKey(err))

	clock.Advance(time.Hour)
	assert.Equal(t, 1, st.PurgeTombstones("c"))
	assert.Equal(t, 0, st.PurgeTombstones("c"))
	assert.Equal(t, []string{"B", "D", "A"}, st.FindAll("c", models.NewQuery()).IDs())
}

func TestPurgeEmptyCollection(t *testing.T) {
	st, _ := newTestStore(t)
	assert.Zero(t, st.PurgeTombstones("nothing"))
}
