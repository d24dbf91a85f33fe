package planner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/footpath"
)

// label is the best known way to reach a station having ridden a given number of trips.
// Labels are never modified once created so they can be shared as parents.
type label struct {
	station string
	arrival time.Time
	trips   int

	// departure is when the journey leaves the origin, zero for the origin label itself
	departure time.Time

	parent *label

	// set when the label was reached by riding a trip
	trip       string
	entryIndex int
	exitIndex  int

	// set when the label was reached on foot
	walk *footpath.Profile
}

func (l *label) transfers() int {
	return max(l.trips-1, 0)
}

// originDeparture is the departure from the origin of a journey continuing from l at time t
func (l *label) originDeparture(t time.Time) time.Time {
	if l.departure.IsZero() {
		return t
	}
	return l.departure
}

// leftEarlier reports whether l leaves the origin before other
func (l *label) leftEarlier(other *label) bool {
	return !l.departure.IsZero() && !other.departure.IsZero() && l.departure.Before(other.departure)
}

type boarding struct {
	from       *label
	entryIndex int
	departure  time.Time
}

// scan runs a connection scan over fragments sorted by ascending departure time.
// labels[station][n] holds the earliest arrival using exactly n trips, for n up to maxTransfers+1.
type scan struct {
	planner *Planner
	request *Request

	maxTrips int

	labels         map[string][]*label
	tripFragments  map[string][]*ctdf.Fragment
	tripBoardings  map[string][]*boarding
	stationCache   map[string]*ctdf.Station
	footpathsCache map[string][]footpath.Profile
}

func newScan(planner *Planner, request *Request) *scan {
	return &scan{
		planner:        planner,
		request:        request,
		maxTrips:       request.MaxTransfers + 1,
		labels:         map[string][]*label{},
		tripFragments:  map[string][]*ctdf.Fragment{},
		tripBoardings:  map[string][]*boarding{},
		stationCache:   map[string]*ctdf.Station{},
		footpathsCache: map[string][]footpath.Profile{},
	}
}

func (s *scan) station(ctx context.Context, uri string) *ctdf.Station {
	if station, exists := s.stationCache[uri]; exists {
		return station
	}

	station, err := s.planner.stations.Get(ctx, uri)
	if err != nil {
		log.Error().Err(err).Str("station", uri).Msg("Failed to resolve station during scan")
		station = nil
	}
	s.stationCache[uri] = station

	return station
}

func (s *scan) footpaths(ctx context.Context, uri string) []footpath.Profile {
	if profiles, exists := s.footpathsCache[uri]; exists {
		return profiles
	}

	var profiles []footpath.Profile
	if station := s.station(ctx, uri); station != nil && s.planner.footpaths != nil {
		var err error
		profiles, err = s.planner.footpaths.Nearby(ctx, station)
		if err != nil {
			log.Error().Err(err).Str("station", uri).Msg("Failed to find footpaths")
		}
	}
	s.footpathsCache[uri] = profiles

	return profiles
}

// transferTime is the buffer between arriving at uri and boarding another trip there
func (s *scan) transferTime(ctx context.Context, uri string) time.Duration {
	if s.planner.footpaths == nil {
		return footpath.DefaultIntraStopFootpath
	}

	station := s.station(ctx, uri)
	if station == nil {
		return s.planner.footpaths.IntraStopFootpath
	}

	return s.planner.footpaths.TransferTime(station)
}

func (s *scan) stationLabels(uri string) []*label {
	labels, exists := s.labels[uri]
	if !exists {
		labels = make([]*label, s.maxTrips+1)
		s.labels[uri] = labels
	}
	return labels
}

// improve stores candidate unless an existing label dominates it, and drops the labels it dominates.
// With equal arrival fewer trips win, then the earlier departure from the origin.
func (s *scan) improve(candidate *label) bool {
	labels := s.stationLabels(candidate.station)

	for trips := 0; trips <= candidate.trips; trips++ {
		existing := labels[trips]
		if existing == nil || existing.arrival.After(candidate.arrival) {
			continue
		}
		if existing.arrival.Before(candidate.arrival) || trips < candidate.trips || !candidate.leftEarlier(existing) {
			return false
		}
	}

	labels[candidate.trips] = candidate
	for trips := candidate.trips + 1; trips <= s.maxTrips; trips++ {
		if labels[trips] != nil && !labels[trips].arrival.Before(candidate.arrival) {
			labels[trips] = nil
		}
	}

	return true
}

// relax propagates a label along the walking transfers of its station
func (s *scan) relax(ctx context.Context, from *label) {
	for _, profile := range s.footpaths(ctx, from.station) {
		s.improve(&label{
			station:   profile.Departure.ID,
			arrival:   from.arrival.Add(profile.Duration),
			trips:     from.trips,
			departure: from.originDeparture(from.arrival),
			parent:    from,
			walk:      &profile,
		})
	}
}

// boardableFrom returns the label a passenger could board from with trips-1 trips ridden
func (s *scan) boardableFrom(ctx context.Context, fragment *ctdf.Fragment, trips int) *label {
	from := s.stationLabels(fragment.DepartureStop)[trips-1]
	if from == nil {
		return nil
	}

	readyTime := from.arrival
	if from.trips > 0 {
		if from.walk == nil {
			readyTime = readyTime.Add(s.transferTime(ctx, fragment.DepartureStop))
		}
		if fragment.DepartureTime.Sub(from.arrival) > s.planner.MaxTransferTime {
			return nil
		}
	}

	if readyTime.After(fragment.DepartureTime) {
		return nil
	}

	return from
}

func (s *scan) run(ctx context.Context, fragments []*ctdf.Fragment) error {
	origin := &label{
		station: s.request.Origin,
		arrival: s.request.DepartureTime,
	}
	s.improve(origin)
	s.relax(ctx, origin)

	for i, fragment := range fragments {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		tripID := fragment.TripID
		if tripID == "" {
			tripID = fragment.ID
		}

		fragmentIndex := len(s.tripFragments[tripID])
		s.tripFragments[tripID] = append(s.tripFragments[tripID], fragment)

		boardings, exists := s.tripBoardings[tripID]
		if !exists {
			boardings = make([]*boarding, s.maxTrips+1)
			s.tripBoardings[tripID] = boardings
		}

		for trips := 1; trips <= s.maxTrips; trips++ {
			if boardings[trips] == nil && fragment.Boardable() {
				if from := s.boardableFrom(ctx, fragment, trips); from != nil {
					boardings[trips] = &boarding{
						from:       from,
						entryIndex: fragmentIndex,
						departure:  from.originDeparture(fragment.DepartureTime),
					}
				}
			}

			if boardings[trips] == nil || !fragment.Alightable() {
				continue
			}

			candidate := &label{
				station:    fragment.ArrivalStop,
				arrival:    fragment.ArrivalTime,
				trips:      trips,
				departure:  boardings[trips].departure,
				parent:     boardings[trips].from,
				trip:       tripID,
				entryIndex: boardings[trips].entryIndex,
				exitIndex:  fragmentIndex,
			}

			if s.improve(candidate) {
				s.relax(ctx, candidate)
			}
		}
	}

	return nil
}

// destinationLabels is the Pareto set at the destination, fewest transfers first
func (s *scan) destinationLabels() []*label {
	var pareto []*label

	for _, candidate := range s.labels[s.request.Destination] {
		if candidate == nil {
			continue
		}
		if len(pareto) > 0 && !candidate.arrival.Before(pareto[len(pareto)-1].arrival) {
			continue
		}
		pareto = append(pareto, candidate)
	}

	return pareto
}

var errBrokenLabelChain = errors.New("label chain does not reach the origin")
