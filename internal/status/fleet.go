package status

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/worldland/spark-gateway/internal/domain"
	"github.com/worldland/spark-gateway/internal/registry"
)

// Fleet checks every registered service concurrently
type Fleet struct {
	registry *registry.Registry
	checker  *Checker
	limit    int
	now      func() time.Time
}

// NewFleet creates a fleet aggregator. At most limit checks run at once;
// a limit below 1 means no limit.
func NewFleet(reg *registry.Registry, checker *Checker, limit int) *Fleet {
	return &Fleet{
		registry: reg,
		checker:  checker,
		limit:    limit,
		now:      time.Now,
	}
}

// Snapshot checks all services and returns the fleet state. One failing
// check never aborts the others.
func (f *Fleet) Snapshot(ctx context.Context) domain.FleetSnapshot {
	descriptors := f.registry.All()
	statuses := make([]domain.ServiceStatus, len(descriptors))

	var g errgroup.Group
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}
	for i, d := range descriptors {
		g.Go(func() error {
			statuses[i] = f.checker.SafeCheck(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	return domain.NewFleetSnapshot(statuses, f.now())
}

// Service checks a single registered service by name
func (f *Fleet) Service(ctx context.Context, name string) (domain.ServiceStatus, error) {
	d, ok := f.registry.Lookup(name)
	if !ok {
		return domain.ServiceStatus{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return f.checker.SafeCheck(ctx, d), nil
}
