package lifecycle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/gateway"
)

// WorkDetail is the compound state of a work-detail screen.
type WorkDetail struct {
	Work        domain.Work
	Inspections []domain.Inspection
}

// LoadWorks fetches the home list.
func LoadWorks(ctx context.Context, gw gateway.Gateway, params gateway.Params) ([]domain.Work, error) {
	works, err := gw.ListWorks(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: load works: %w", err)
	}
	return works, nil
}

// LoadWork fetches one work, the seed of the work form.
func LoadWork(ctx context.Context, gw gateway.Gateway, id string) (domain.Work, error) {
	w, err := gw.GetWork(ctx, id)
	if err != nil {
		return domain.Work{}, fmt.Errorf("lifecycle: load work %s: %w", id, err)
	}
	return w, nil
}

// LoadInspection fetches one inspection.
func LoadInspection(ctx context.Context, gw gateway.Gateway, id string) (domain.Inspection, error) {
	in, err := gw.GetInspection(ctx, id)
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("lifecycle: load inspection %s: %w", id, err)
	}
	return in, nil
}

// LoadWorkDetail fetches a work and its inspections as one unit. Both calls
// run concurrently since the work id is known up front; if either fails the
// whole unit fails and the partial result is discarded.
func LoadWorkDetail(ctx context.Context, gw gateway.Gateway, workID string) (WorkDetail, error) {
	var (
		work        domain.Work
		inspections []domain.Inspection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := gw.GetWork(gctx, workID)
		if err != nil {
			return fmt.Errorf("work: %w", err)
		}
		work = w
		return nil
	})
	g.Go(func() error {
		list, err := gw.ListInspectionsOfWork(gctx, workID)
		if err != nil {
			return fmt.Errorf("inspections: %w", err)
		}
		inspections = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return WorkDetail{}, fmt.Errorf("lifecycle: load work detail %s: %w", workID, err)
	}
	return WorkDetail{Work: work, Inspections: inspections}, nil
}
