package models

import (
	"testing"
	"time"

	"github.com/ajitpratap0/memstore/pkg/json"
	"github.com/ajitpratap0/memstore/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Record{
		ID: "P1",
		Fields: MustFields(map[string]interface{}{
			"name":       "Widget",
			"price":      10,
			"dimensions": map[string]interface{}{"w": 2},
		}),
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}
}

func TestGetReservedFields(t *testing.T) {
	r := sampleRecord()
	assert.Equal(t, "2025-03-01T12:00:00Z", r.Get(FieldCreatedAt).String())
	assert.True(t, r.Get(FieldDeletedAt).IsNull())
	assert.True(t, r.Get("missing").IsNull())

	del := r.CreatedAt.Add(time.Hour)
	r.DeletedAt = &del
	assert.Equal(t, "2025-03-01T13:00:00Z", r.Get(FieldDeletedAt).String())
}

func TestCloneIsDeep(t *testing.T) {
	r := sampleRecord()
	del := r.CreatedAt
	r.DeletedAt = &del

	c := r.Clone()
	c.Fields["name"] = value.String("Changed")
	*c.DeletedAt = c.DeletedAt.Add(time.Hour)

	assert.Equal(t, "Widget", r.Fields["name"].String())
	assert.Equal(t, del, *r.DeletedAt)
}

func TestRecordJSONRoundTrip(t *testing.T) {
	r := sampleRecord()
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "P1", raw["id"])
	assert.Nil(t, raw[FieldDeletedAt])
	assert.Contains(t, raw, FieldCreatedAt)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.ID, back.ID)
	assert.True(t, r.CreatedAt.Equal(back.CreatedAt))
	assert.True(t, r.UpdatedAt.Equal(back.UpdatedAt))
	assert.Nil(t, back.DeletedAt)
	assert.True(t, value.Map(r.Fields).Equal(value.Map(back.Fields)))
}

func TestQueryMatches(t *testing.T) {
	r := sampleRecord()

	assert.True(t, NewQuery().Matches(r))
	assert.True(t, NewQuery().Where("name", value.String("Widget")).Matches(r))
	assert.True(t, NewQuery().Where("name", value.String("Widget")).Where("price", value.Int(10)).Matches(r))
	assert.False(t, NewQuery().Where("name", value.String("Widget")).Where("price", value.Int(11)).Matches(r))
	assert.False(t, NewQuery().Where("price", value.String("10")).Matches(r))
	assert.True(t, NewQuery().Where("absent", value.Null()).Matches(r))
}

func TestQueryWhereDoesNotAlias(t *testing.T) {
	base := NewQuery().Where("a", value.Int(1))
	derived := base.Where("b", value.Int(2))
	assert.Len(t, base.Filters, 1)
	assert.Len(t, derived.Filters, 2)
}

func TestQueryResultJSONShape(t *testing.T) {
	qr := &QueryResult{
		Data:        []*Record{sampleRecord()},
		TotalCount:  25,
		Page:        1,
		PageSize:    20,
		HasNext:     true,
		HasPrevious: false,
	}
	data, err := json.Marshal(qr)
	require.NoError(t, err)

	var raw struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination Pagination               `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Data, 1)
	assert.Equal(t, "P1", raw.Data[0]["id"])
	assert.Equal(t, Pagination{Total: 25, Page: 1, PageSize: 20, HasNext: true}, raw.Pagination)
	assert.Equal(t, []string{"P1"}, qr.IDs())
}

func TestEmptyQueryResultRendersEmptyArray(t *testing.T) {
	data, err := json.Marshal(&QueryResult{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data":[]`)
}
