package value

import (
	"testing"

	"github.com/ajitpratap0/memstore/pkg/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.True(t, v.Equal(Null()))
	assert.Equal(t, KindNull, v.Kind())
}

func TestEqualIsKindSensitive(t *testing.T) {
	assert.True(t, Int(1).Equal(Number(1.0)))
	assert.False(t, Int(1).Equal(String("1")))
	assert.False(t, Bool(true).Equal(Int(1)))
	assert.False(t, Null().Equal(String("")))
}

func TestStringFormCollidesAcrossKinds(t *testing.T) {
	assert.Equal(t, "1", Int(1).String())
	assert.Equal(t, "1", String("1").String())
	assert.Equal(t, "1.5", Number(1.5).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, `{"a":1,"b":[true,null]}`, Map(map[string]Value{
		"b": List(Bool(true), Null()),
		"a": Int(1),
	}).String())
}

func TestMapAndListAreCopied(t *testing.T) {
	inner := map[string]Value{"k": String("v")}
	m := Map(inner)
	inner["k"] = String("changed")

	got, ok := m.AsMap()
	require.True(t, ok)
	assert.Equal(t, "v", got["k"].String())

	got["k"] = String("mutated")
	again, _ := m.AsMap()
	assert.Equal(t, "v", again["k"].String())

	l := List(Int(1), Int(2))
	items, _ := l.AsList()
	items[0] = Int(99)
	again2, _ := l.AsList()
	assert.Equal(t, "1", again2[0].String())
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]interface{}{
		"name":  "widget",
		"qty":   5,
		"price": 10.5,
		"ok":    true,
		"tags":  []string{"a", "b"},
		"dims":  map[string]interface{}{"w": 1, "h": nil},
		"none":  nil,
	})
	require.NoError(t, err)
	m, ok := v.AsMap()
	require.True(t, ok)

	qty, ok := m["qty"].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(5), qty)
	assert.True(t, m["none"].IsNull())
	assert.Equal(t, KindList, m["tags"].Kind())
	dims, _ := m["dims"].AsMap()
	assert.True(t, dims["h"].IsNull())

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	orig := Map(map[string]Value{
		"s": String("x"),
		"n": Number(2.25),
		"b": Bool(false),
		"z": Null(),
		"l": List(Int(1), String("two")),
	})

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, orig.Equal(back), "got %s", back.String())
}

func TestToAny(t *testing.T) {
	v := List(String("a"), Int(2), Map(map[string]Value{"k": Bool(true)}))
	assert.Equal(t, []interface{}{"a", float64(2), map[string]interface{}{"k": true}}, v.ToAny())
}
