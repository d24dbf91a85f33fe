package planner

import (
	"context"
	"iter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/footpath"
	"github.com/travigo/lcplanner/pkg/fragments"
	"github.com/travigo/lcplanner/pkg/stations"
)

const (
	DefaultMaxPages        = 250
	DefaultMaxTransferTime = time.Hour
	DefaultWorkers         = 8
)

// PlanRecord summarises a finished planning request for statistics
type PlanRecord struct {
	Origin        string
	Destination   string
	DepartureTime time.Time
	MaxTransfers  int

	Pages     int
	Fragments int
	Routes    int

	Error    error
	Duration time.Duration
}

type StatsRecorder interface {
	RecordPlan(record *PlanRecord)
}

// Planner computes Pareto optimal routes over Linked Connections pages
type Planner struct {
	MaxPages        int
	MaxTransferTime time.Duration
	Workers         int

	Stats StatsRecorder

	paginator *fragments.Paginator
	stations  stations.Directory
	footpaths *footpath.Model
}

func NewPlanner(pages fragments.PageSource, stationDirectory stations.Directory, footpaths *footpath.Model) *Planner {
	return &Planner{
		MaxPages:        DefaultMaxPages,
		MaxTransferTime: DefaultMaxTransferTime,
		Workers:         DefaultWorkers,
		paginator:       fragments.NewPaginator(pages),
		stations:        stationDirectory,
		footpaths:       footpaths,
	}
}

// Plan collects the timetable slice for the request, scans it and returns every non-dominated route.
// A destination that cannot be reached gives a result without routes and no error.
func (p *Planner) Plan(ctx context.Context, request *Request) (*Result, error) {
	startTime := time.Now()
	request.setState(StateIdle)

	result, err := p.plan(ctx, request)
	if err != nil {
		request.setState(StateError)
		log.Error().Err(err).Str("origin", request.Origin).Str("destination", request.Destination).Msg("Planning failed")
	} else {
		request.setState(StateDone)
		log.Info().
			Str("origin", request.Origin).
			Str("destination", request.Destination).
			Int("routes", len(result.Routes)).
			Int("pages", result.Pages).
			Dur("latency", time.Since(startTime)).
			Msg("Planning complete")
	}

	if p.Stats != nil {
		record := &PlanRecord{
			Origin:        request.Origin,
			Destination:   request.Destination,
			DepartureTime: request.DepartureTime,
			MaxTransfers:  request.MaxTransfers,
			Error:         err,
			Duration:      time.Since(startTime),
		}
		if result != nil {
			record.Pages = result.Pages
			record.Fragments = result.Fragments
			record.Routes = len(result.Routes)
		}
		p.Stats.RecordPlan(record)
	}

	return result, err
}

func (p *Planner) plan(ctx context.Context, request *Request) (*Result, error) {
	if err := request.validate(); err != nil {
		return nil, err
	}
	if request.Language == "" {
		request.Language = ctdf.LanguageDefault
	}

	origin, err := p.stations.Get(ctx, request.Origin)
	if err != nil {
		return nil, err
	}
	destination, err := p.stations.Get(ctx, request.Destination)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Origin:        origin,
		Destination:   destination,
		DepartureTime: request.DepartureTime,
		Horizon:       ArrivalHorizon(request.DepartureTime),
		MaxTransfers:  request.MaxTransfers,
		Language:      request.Language,
	}

	request.setState(StateCollectingFragments)
	collected, pages, err := p.collect(ctx, request, result.Horizon)
	result.Pages = pages
	if err != nil {
		return nil, err
	}
	result.Fragments = len(collected)

	request.setState(StateScanning)
	scanner := newScan(p, request)
	if err := scanner.run(ctx, collected); err != nil {
		return nil, err
	}

	request.setState(StateReconstructing)
	result.Routes, err = scanner.reconstruct(ctx)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Routes streams the planned routes in departure order. The sequence either yields every route
// or ends with exactly one error.
func (p *Planner) Routes(ctx context.Context, request *Request) iter.Seq2[*ctdf.Route, error] {
	return func(yield func(*ctdf.Route, error) bool) {
		result, err := p.Plan(ctx, request)
		if err != nil {
			yield(nil, err)
			return
		}

		for _, route := range result.Routes {
			if !yield(route, nil) {
				return
			}
		}
	}
}
