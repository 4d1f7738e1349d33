package snapshot

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/memstore/pkg/compression"
	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/models"
	"github.com/ajitpratap0/memstore/pkg/store"
	"github.com/ajitpratap0/memstore/pkg/testutil"
)

func sampleStore(t *testing.T) *store.Store {
	t.Helper()
	clock := testutil.NewManualClock(time.Date(2025, 2, 3, 4, 5, 6, 789, time.UTC))
	st := store.New(store.WithClock(clock.Now))

	_, err := st.Insert("orders", "O1", models.MustFields(map[string]interface{}{
		"customer_id": "C1",
		"total":       42.5,
		"items":       []interface{}{map[string]interface{}{"product_id": "P1", "qty": 2}},
	}))
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = st.Insert("orders", "O2", models.MustFields(map[string]interface{}{"customer_id": "C2", "paid": true}))
	require.NoError(t, err)
	require.NoError(t, st.Delete("orders", "O2", store.SoftDelete))
	return st
}

func TestRoundTripEveryAlgorithm(t *testing.T) {
	st := sampleStore(t)
	records := st.Dump("orders")

	for _, algo := range compression.Algorithms {
		t.Run(string(algo), func(t *testing.T) {
			var buf bytes.Buffer
			written, err := Write(&buf, "orders", records, algo)
			require.NoError(t, err)
			assert.Equal(t, 2, written.Count)

			header, got, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, Format, header.Format)
			assert.Equal(t, "orders", header.Collection)
			assert.Equal(t, algo, header.Compression)
			assert.True(t, written.ExportedAt.Equal(header.ExportedAt))
			assert.Equal(t, records, got)
		})
	}
}

func TestHeaderIsPlainJSON(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, "orders", sampleStore(t).Dump("orders"), compression.Zstd)
	require.NoError(t, err)

	first, _, ok := strings.Cut(buf.String(), "\n")
	require.True(t, ok)
	assert.Contains(t, first, `"format":"memstore-snapshot/v1"`)
	assert.Contains(t, first, `"compression":"zstd"`)
	assert.Contains(t, first, `"count":2`)
}

func TestEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, "reviews", nil, compression.LZ4)
	require.NoError(t, err)

	h, got, err := Read(&buf)
	require.NoError(t, err)
	assert.Zero(t, h.Count)
	assert.Empty(t, got)
}

func TestReadRejectsBadInput(t *testing.T) {
	_, _, err := Read(strings.NewReader(`{"format":"other/v9","count":0}` + "\n"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	_, _, err = Read(strings.NewReader("no newline"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	_, _, err = Read(strings.NewReader(`{"format":"memstore-snapshot/v1","collection":"orders","compression":"none","count":-1}` + "\n"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	// An oversized count is only checked against the body, never allocated.
	_, _, err = Read(strings.NewReader(`{"format":"memstore-snapshot/v1","collection":"orders","compression":"none","count":9000000000000}` + "\n"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	// A header that promises more records than the body holds.
	var buf bytes.Buffer
	_, err = Write(&buf, "orders", sampleStore(t).Dump("orders"), compression.None)
	require.NoError(t, err)
	tampered := strings.Replace(buf.String(), `"count":2`, `"count":3`, 1)
	_, _, err = Read(strings.NewReader(tampered))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestWriteRejectsUnknownAlgorithm(t *testing.T) {
	_, err := Write(&bytes.Buffer{}, "orders", nil, "brotli")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

type fileSuite struct {
	testutil.IntegrationTestSuite
}

func TestSnapshotFiles(t *testing.T) {
	testutil.IntegrationTest(t)
	suite.Run(t, new(fileSuite))
}

func (s *fileSuite) TestWriteAndReadFile() {
	records := sampleStore(s.T()).Dump("orders")
	path := filepath.Join(s.TempDir(), "orders.snap")

	_, err := WriteFile(path, "orders", records, compression.S2)
	s.Require().NoError(err)

	h, got, err := ReadFile(path)
	s.Require().NoError(err)
	s.Equal(compression.S2, h.Compression)
	s.Equal(records, got)
}

func (s *fileSuite) TestReadCorruptFile() {
	path := s.CreateTempFile("corrupt.snap", []byte(`{"format":"memstore-snapshot/v1","compression":"gzip","count":1}`+"\nnot gzip"))
	_, _, err := ReadFile(path)
	s.True(errors.IsType(err, errors.ErrorTypeData))
}

func (s *fileSuite) TestMissingFile() {
	_, _, err := ReadFile(filepath.Join(s.TempDir(), "absent.snap"))
	s.True(errors.IsType(err, errors.ErrorTypeFile))
}
