package store

import (
	"time"

	"github.com/ajitpratap0/memstore/pkg/metrics"
	"github.com/ajitpratap0/memstore/pkg/models"
)

// FindAll scans collection in insertion order and returns one page of the
// records matching q. TotalCount is the number of matches before paging.
//
// Page and PageSize are not clamped: the page covers the half-open range
// [(Page-1)*PageSize, Page*PageSize) of the matches, intersected with the
// matches that exist, so out-of-range pages are simply empty.
func (s *Store) FindAll(collection string, q models.Query) *models.QueryResult {
	start := time.Now()
	defer func() {
		metrics.StoreLatency.WithLabelValues("find_all").Observe(time.Since(start).Seconds())
	}()

	matches := s.scratch.Get()
	defer s.scratch.Put(matches)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.scanLocked(collection, q, matches)
	total := len(*matches)
	lo, hi := pageBounds(q.Page, q.PageSize, total)

	data := make([]*models.Record, 0, hi-lo)
	for _, r := range (*matches)[lo:hi] {
		data = append(data, r.Clone())
	}

	return &models.QueryResult{
		Data:        data,
		TotalCount:  total,
		Page:        q.Page,
		PageSize:    q.PageSize,
		HasNext:     hi < total,
		HasPrevious: q.Page > 1,
	}
}

// scanLocked appends to out every record of collection visible under q and
// matching all of its filters. The appended records are internal pointers.
func (s *Store) scanLocked(collection string, q models.Query, out *[]*models.Record) {
	c := s.collectionLocked(collection)
	for _, id := range c.order {
		r := c.records[id]
		if r.IsDeleted() && !q.IncludeDeleted {
			continue
		}
		if q.Matches(r) {
			*out = append(*out, r)
		}
	}
}

// pageBounds maps a 1-based page onto [lo, hi) within total matches. The
// products are computed in floating point so huge page numbers saturate
// instead of overflowing; the result is exact once clamped to total.
func pageBounds(page, pageSize, total int) (lo, hi int) {
	lo = clampIndex((float64(page)-1)*float64(pageSize), total)
	hi = clampIndex(float64(page)*float64(pageSize), total)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func clampIndex(x float64, total int) int {
	switch {
	case x <= 0:
		return 0
	case x >= float64(total):
		return total
	default:
		return int(x)
	}
}
