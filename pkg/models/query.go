package models

import (
	"github.com/ajitpratap0/memstore/pkg/json"
	"github.com/ajitpratap0/memstore/pkg/value"
)

// Default pagination applied by NewQuery.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Query selects records from one collection. Filters are an exact-match
// conjunction: a record matches only if every filter field equals the given
// value (a missing field equals null). Page and PageSize are used as given;
// the store does not clamp them.
type Query struct {
	Filters        Fields
	IncludeDeleted bool
	Page           int
	PageSize       int
}

// NewQuery returns a query for the first page of DefaultPageSize live records.
func NewQuery() Query {
	return Query{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Where adds an equality filter.
func (q Query) Where(field string, v value.Value) Query {
	filters := make(Fields, len(q.Filters)+1)
	for k, fv := range q.Filters {
		filters[k] = fv
	}
	filters[field] = v
	q.Filters = filters
	return q
}

// Paginate sets the page number (1-based) and page size.
func (q Query) Paginate(page, pageSize int) Query {
	q.Page = page
	q.PageSize = pageSize
	return q
}

// WithDeleted makes the query include tombstones.
func (q Query) WithDeleted() Query {
	q.IncludeDeleted = true
	return q
}

// Matches reports whether r satisfies every filter of q. Visibility of
// tombstones is not checked here.
func (q Query) Matches(r *Record) bool {
	for field, want := range q.Filters {
		if !r.Get(field).Equal(want) {
			return false
		}
	}
	return true
}

// QueryResult holds one page of matching records together with the total
// match count ignoring pagination.
type QueryResult struct {
	Data        []*Record
	TotalCount  int
	Page        int
	PageSize    int
	HasNext     bool
	HasPrevious bool
}

// Pagination is the pagination block of a rendered QueryResult.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// IDs returns the ids of the records on this page, in page order.
func (qr *QueryResult) IDs() []string {
	ids := make([]string, len(qr.Data))
	for i, r := range qr.Data {
		ids[i] = r.ID
	}
	return ids
}

// MarshalJSON renders the result as {"data": [...], "pagination": {...}}.
func (qr *QueryResult) MarshalJSON() ([]byte, error) {
	data := qr.Data
	if data == nil {
		data = []*Record{}
	}
	return json.Marshal(struct {
		Data       []*Record  `json:"data"`
		Pagination Pagination `json:"pagination"`
	}{
		Data: data,
		Pagination: Pagination{
			Total:       qr.TotalCount,
			Page:        qr.Page,
			PageSize:    qr.PageSize,
			HasNext:     qr.HasNext,
			HasPrevious: qr.HasPrevious,
		},
	})
}
