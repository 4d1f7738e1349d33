// Package models provides the data model shared by the store and its
// collaborators: records with store-maintained timestamps, field maps of
// tagged values, queries and paginated query results.
package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/ajitpratap0/memstore/pkg/json"
	"github.com/ajitpratap0/memstore/pkg/value"
)

// Reserved field names maintained exclusively by the store.
const (
	FieldCreatedAt = "_created_at"
	FieldUpdatedAt = "_updated_at"
	FieldDeletedAt = "_deleted_at"
)

// FieldID is the key under which a row's identifier appears when rendered.
const FieldID = "id"

// TimeLayout is the single representation used for the reserved timestamps
// whenever they leave the store as text.
const TimeLayout = time.RFC3339Nano

// IsReserved reports whether name is one of the store-maintained fields.
func IsReserved(name string) bool {
	switch name {
	case FieldCreatedAt, FieldUpdatedAt, FieldDeletedAt:
		return true
	}
	return false
}

// Fields maps field names to values.
type Fields map[string]value.Value

// FieldsFrom converts a plain map (for example decoded JSON) into Fields.
func FieldsFrom(m map[string]interface{}) (Fields, error) {
	out := make(Fields, len(m))
	for k, x := range m {
		v, err := value.FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// MustFields is FieldsFrom for literals; it panics on unsupported types.
func MustFields(m map[string]interface{}) Fields {
	f, err := FieldsFrom(m)
	if err != nil {
		panic(err)
	}
	return f
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v.Clone()
	}
	return out
}

// ToMap converts f into plain Go values.
func (f Fields) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(f))
	for k, v := range f {
		out[k] = v.ToAny()
	}
	return out
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Record is one stored entry. The three timestamps are owned by the store:
// CreatedAt never changes after insert, UpdatedAt advances on every mutation
// and DeletedAt is nil for live records.
type Record struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted reports whether r is a tombstone.
func (r *Record) IsDeleted() bool {
	return r.DeletedAt != nil
}

// Get returns the value of field, including the id and the reserved
// timestamps rendered as text. Missing fields are null.
func (r *Record) Get(field string) value.Value {
	switch field {
	case FieldID:
		return value.String(r.ID)
	case FieldCreatedAt:
		return value.String(r.CreatedAt.Format(TimeLayout))
	case FieldUpdatedAt:
		return value.String(r.UpdatedAt.Format(TimeLayout))
	case FieldDeletedAt:
		if r.DeletedAt == nil {
			return value.Null()
		}
		return value.String(r.DeletedAt.Format(TimeLayout))
	}
	return r.Fields[field]
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := &Record{
		ID:        r.ID,
		Fields:    r.Fields.Clone(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.DeletedAt != nil {
		d := *r.DeletedAt
		c.DeletedAt = &d
	}
	return c
}

// MarshalJSON renders r as a flat object: its fields, "id" and the three
// reserved timestamps.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[FieldID] = r.ID
	out[FieldCreatedAt] = r.CreatedAt.Format(TimeLayout)
	out[FieldUpdatedAt] = r.UpdatedAt.Format(TimeLayout)
	if r.DeletedAt != nil {
		out[FieldDeletedAt] = r.DeletedAt.Format(TimeLayout)
	} else {
		out[FieldDeletedAt] = nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the flat form produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.UnmarshalUseNumber(data, &raw); err != nil {
		return err
	}

	rec := Record{Fields: make(Fields, len(raw))}
	for k, x := range raw {
		switch k {
		case FieldID:
			id, ok := x.(string)
			if !ok {
				return fmt.Errorf("record id must be a string, got %T", x)
			}
			rec.ID = id
		case FieldCreatedAt, FieldUpdatedAt, FieldDeletedAt:
			if x == nil {
				continue
			}
			s, ok := x.(string)
			if !ok {
				return fmt.Errorf("%s must be a timestamp string, got %T", k, x)
			}
			ts, err := time.Parse(TimeLayout, s)
			if err != nil {
				return fmt.Errorf("parse %s: %w", k, err)
			}
			switch k {
			case FieldCreatedAt:
				rec.CreatedAt = ts
			case FieldUpdatedAt:
				rec.UpdatedAt = ts
			default:
				rec.DeletedAt = &ts
			}
		default:
			v, err := value.FromAny(x)
			if err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
			rec.Fields[k] = v
		}
	}
	*r = rec
	return nil
}
