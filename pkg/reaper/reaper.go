// Package reaper sweeps tombstones older than the store's retention horizon.
//
// A Reaper holds no state of its own and does not schedule itself: callers
// decide when to sweep, either once (an operator command) or on a ticker
// through Run.
package reaper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/logger"
	"github.com/ajitpratap0/memstore/pkg/observability"
)

// Purger is the part of the store a sweep needs.
type Purger interface {
	PurgeTombstones(collection string) int
}

// Reaper purges tombstones collection by collection.
type Reaper struct {
	store  Purger
	logger *zap.Logger
}

// New creates a reaper over store. A nil logger disables logging.
func New(store Purger, l *zap.Logger) *Reaper {
	return &Reaper{store: store, logger: logger.OrNop(l)}
}

// Sweep purges every named collection and reports how many tombstones each
// lost. Collections listed twice are swept once. If ctx is cancelled the
// sweep stops between collections and returns the counts gathered so far
// together with a canceled error.
func (r *Reaper) Sweep(ctx context.Context, collections []string) (map[string]int, error) {
	ctx, span := observability.StartSpan(ctx, "reaper.sweep")
	span.SetAttribute("memstore.collections", collections)

	start := time.Now()
	purged := make(map[string]int, len(collections))
	total := 0
	for _, name := range collections {
		if err := ctx.Err(); err != nil {
			err = errors.Wrap(err, errors.ErrorTypeCanceled, "tombstone sweep interrupted")
			span.Finish(err)
			return purged, err
		}
		if _, done := purged[name]; done {
			continue
		}
		n := r.store.PurgeTombstones(name)
		purged[name] = n
		total += n
	}

	span.SetAttribute("memstore.purged", total)
	span.Finish(nil)

	r.logger.Info("tombstone sweep finished",
		zap.Int("collections", len(purged)),
		zap.Int("purged", total),
		zap.Duration("duration", time.Since(start)))
	return purged, nil
}

// Run sweeps collections every interval until ctx is done. Each result is
// passed to report when it is non-nil. A non-positive interval is a
// validation error.
func (r *Reaper) Run(ctx context.Context, interval time.Duration, collections []string, report func(map[string]int)) error {
	if interval <= 0 {
		return errors.Newf(errors.ErrorTypeValidation, "sweep interval must be positive, got %s", interval).
			WithDetail("interval", interval.String())
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			purged, err := r.Sweep(ctx, collections)
			if err != nil {
				if errors.IsType(err, errors.ErrorTypeCanceled) {
					return nil
				}
				return err
			}
			if report != nil {
				report(purged)
			}
		}
	}
}
