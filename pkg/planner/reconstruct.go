package planner

import (
	"context"
	"fmt"

	"github.com/travigo/lcplanner/pkg/ctdf"
	"golang.org/x/exp/slices"
)

// reconstruct builds one route per Pareto label at the destination
func (s *scan) reconstruct(ctx context.Context) ([]*ctdf.Route, error) {
	var routes []*ctdf.Route

	for _, destinationLabel := range s.destinationLabels() {
		route, err := s.route(ctx, destinationLabel)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	// Same departure and arrival means the same journey for the traveller, keep the one with fewer transfers
	seen := map[string]bool{}
	routes = slices.DeleteFunc(routes, func(route *ctdf.Route) bool {
		key := fmt.Sprintf("%d-%d", route.DepartureTime().Unix(), route.ArrivalTime().Unix())
		if seen[key] {
			return true
		}
		seen[key] = true
		return false
	})

	slices.SortStableFunc(routes, func(a, b *ctdf.Route) int {
		if c := a.DepartureTime().Compare(b.DepartureTime()); c != 0 {
			return c
		}
		return a.TransferCount - b.TransferCount
	})

	return routes, nil
}

func (s *scan) route(ctx context.Context, destinationLabel *label) (*ctdf.Route, error) {
	var chain []*label
	for current := destinationLabel; current.parent != nil; current = current.parent {
		chain = append(chain, current)
	}
	if len(chain) == 0 {
		return nil, errBrokenLabelChain
	}
	slices.Reverse(chain)

	route := &ctdf.Route{TransferCount: destinationLabel.transfers()}

	for _, step := range chain {
		leg, err := s.leg(ctx, step)
		if err != nil {
			return nil, err
		}
		route.Legs = append(route.Legs, leg)
	}

	for _, leg := range route.Legs {
		leg.Departure.StationName = leg.Departure.Station.NameIn(s.request.Language)
		leg.Arrival.StationName = leg.Arrival.Station.NameIn(s.request.Language)
	}

	route.Legs[0].Departure.Type = ctdf.TransferTypeDeparture
	route.Transfers = append(route.Transfers, route.Legs[0].Departure)
	for _, leg := range route.Legs {
		route.Transfers = append(route.Transfers, leg.Arrival)
	}
	route.Transfers[len(route.Transfers)-1].Type = ctdf.TransferTypeArrival

	return route, nil
}

func (s *scan) leg(ctx context.Context, step *label) (*ctdf.RouteLeg, error) {
	if step.walk != nil {
		return &ctdf.RouteLeg{
			Departure: &ctdf.Transfer{
				Station: step.walk.Arrival,
				Time:    step.parent.arrival,
				Type:    ctdf.TransferTypeTransfer,
			},
			Arrival: &ctdf.Transfer{
				Station: step.walk.Departure,
				Time:    step.arrival,
				Type:    ctdf.TransferTypeTransfer,
			},
			Footpath: true,
		}, nil
	}

	ridden := s.tripFragments[step.trip][step.entryIndex : step.exitIndex+1]
	first := ridden[0]
	last := ridden[len(ridden)-1]

	departureStation, err := s.resolve(ctx, first.DepartureStop)
	if err != nil {
		return nil, err
	}
	arrivalStation, err := s.resolve(ctx, last.ArrivalStop)
	if err != nil {
		return nil, err
	}

	return &ctdf.RouteLeg{
		Departure: &ctdf.Transfer{
			Station: departureStation,
			Time:    first.DepartureTime,
			Type:    ctdf.TransferTypeTransfer,
		},
		Arrival: &ctdf.Transfer{
			Station: arrivalStation,
			Time:    last.ArrivalTime,
			Type:    ctdf.TransferTypeTransfer,
		},
		Fragments: slices.Clone(ridden),
		TripID:    first.TripID,
		RouteID:   first.RouteID,
		Direction: first.Direction,
	}, nil
}

func (s *scan) resolve(ctx context.Context, uri string) (*ctdf.Station, error) {
	if station := s.station(ctx, uri); station != nil {
		return station, nil
	}

	return nil, &ctdf.NotFoundError{Kind: "Station", ID: uri}
}
