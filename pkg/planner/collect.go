package planner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/fragments"
	"golang.org/x/exp/slices"
)

// fragmentAccumulator gathers fragments from concurrently processed pages
type fragmentAccumulator struct {
	mutex     sync.Mutex
	seen      map[string]bool
	fragments []*ctdf.Fragment
}

func (a *fragmentAccumulator) add(fragments []*ctdf.Fragment) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	for _, fragment := range fragments {
		if a.seen[fragment.ID] {
			continue
		}
		a.seen[fragment.ID] = true
		a.fragments = append(a.fragments, fragment)
	}
}

// collect walks backward from the horizon until the pages reach the departure time.
// Either every relevant fragment is returned sorted by departure, or an error.
func (p *Planner) collect(ctx context.Context, request *Request, horizon time.Time) ([]*ctdf.Fragment, int, error) {
	maxPages := p.MaxPages
	if request.MaxPages > 0 {
		maxPages = request.MaxPages
	}

	accumulator := &fragmentAccumulator{seen: map[string]bool{}}
	workers := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(p.Workers)

	continuePredicate := func(page *ctdf.Page) bool {
		return !page.EarliestDeparture().Before(request.DepartureTime)
	}

	collectOptions := []fragments.CollectOption{fragments.WithMaxPages(maxPages)}
	if request.OnProgress != nil {
		collectOptions = append(collectOptions, fragments.WithProgress(request.DepartureTime, request.OnProgress))
	}

	pageCount := 0
	var collectErr error

	for page, err := range p.paginator.Collect(ctx, horizon, continuePredicate, collectOptions...) {
		if err != nil {
			collectErr = err
			break
		}

		pageCount++
		if request.OnPageReceived != nil {
			request.OnPageReceived(page.URI)
		}

		workers.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			accumulator.add(relevantFragments(page, request.DepartureTime, horizon))
			return nil
		})
	}

	if err := workers.Wait(); err != nil && collectErr == nil {
		collectErr = err
	}
	if collectErr != nil {
		return nil, pageCount, collectErr
	}

	// Pages hold fragments in descending order
	slices.SortStableFunc(accumulator.fragments, func(a, b *ctdf.Fragment) int {
		return a.DepartureTime.Compare(b.DepartureTime)
	})

	log.Debug().
		Int("pages", pageCount).
		Int("fragments", len(accumulator.fragments)).
		Msg("Fragments collected")

	return accumulator.fragments, pageCount, nil
}

func relevantFragments(page *ctdf.Page, departureTime time.Time, horizon time.Time) []*ctdf.Fragment {
	var relevant []*ctdf.Fragment
	for _, fragment := range page.Fragments {
		if fragment.DepartureTime.Before(departureTime) || fragment.ArrivalTime.After(horizon) {
			continue
		}
		relevant = append(relevant, fragment)
	}

	return relevant
}
