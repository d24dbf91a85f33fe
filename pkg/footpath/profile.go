package footpath

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

const (
	DefaultWalkingSpeed      = 5.0 // km/h
	DefaultSearchRadius      = 3.0 // km
	DefaultMaxResults        = 5
	DefaultIntraStopFootpath = 300 * time.Second
)

// Profile is a directed walking transfer from the station a vehicle arrived at to the station the next one departs from
type Profile struct {
	Arrival   *ctdf.Station
	Departure *ctdf.Station

	Distance float64 // km
	Duration time.Duration
}

type NearbyFinder interface {
	Nearby(ctx context.Context, location *ctdf.Location, radiusKm float64, limit int) ([]*ctdf.Station, error)
}

type Model struct {
	WalkingSpeed      float64
	SearchRadius      float64
	MaxResults        int
	IntraStopFootpath time.Duration

	finder NearbyFinder
}

func NewModel(finder NearbyFinder) *Model {
	return &Model{
		WalkingSpeed:      DefaultWalkingSpeed,
		SearchRadius:      DefaultSearchRadius,
		MaxResults:        DefaultMaxResults,
		IntraStopFootpath: DefaultIntraStopFootpath,
		finder:            finder,
	}
}

// Between returns the walking transfer from arrival to departure and whether it is permitted.
// Only straight-line distance is considered.
func (m *Model) Between(arrival *ctdf.Station, departure *ctdf.Station) (Profile, bool) {
	if arrival.ID == departure.ID {
		return Profile{
			Arrival:   arrival,
			Departure: departure,
			Duration:  m.TransferTime(arrival),
		}, true
	}

	if !arrival.Location.Valid() || !departure.Location.Valid() {
		return Profile{}, false
	}

	distance := arrival.Location.Distance(departure.Location)
	if distance > m.SearchRadius {
		return Profile{}, false
	}

	walkingTime := time.Duration(distance / m.WalkingSpeed * float64(time.Hour)).Round(time.Second)

	return Profile{
		Arrival:   arrival,
		Departure: departure,
		Distance:  distance,
		Duration:  walkingTime + arrival.OfficialTransferTime,
	}, true
}

// TransferTime is the minimum time needed to change vehicles within a station
func (m *Model) TransferTime(station *ctdf.Station) time.Duration {
	if station.OfficialTransferTime > 0 {
		return station.OfficialTransferTime
	}
	return m.IntraStopFootpath
}

// Nearby returns the permitted walking transfers from station to the closest other stations
func (m *Model) Nearby(ctx context.Context, station *ctdf.Station) ([]Profile, error) {
	if m.finder == nil || !station.Location.Valid() || m.SearchRadius <= 0 {
		return nil, nil
	}

	stations, err := m.finder.Nearby(ctx, station.Location, m.SearchRadius, m.MaxResults+1)
	if err != nil {
		return nil, err
	}

	var profiles []Profile
	for _, nearbyStation := range stations {
		if nearbyStation.ID == station.ID {
			continue
		}

		if profile, permitted := m.Between(station, nearbyStation); permitted {
			profiles = append(profiles, profile)
		}

		if len(profiles) >= m.MaxResults {
			break
		}
	}

	log.Debug().Str("station", station.ID).Int("footpaths", len(profiles)).Msg("Footpaths resolved")

	return profiles, nil
}
