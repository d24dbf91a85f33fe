package stations

import (
	"context"
	"sync"

	"github.com/travigo/lcplanner/pkg/ctdf"
	"golang.org/x/exp/slices"
)

type MemoryDirectory struct {
	mutex    sync.RWMutex
	stations map[string]*ctdf.Station
}

func NewMemoryDirectory(stations ...*ctdf.Station) *MemoryDirectory {
	directory := &MemoryDirectory{stations: map[string]*ctdf.Station{}}
	directory.Add(stations...)

	return directory
}

// Add inserts stations that are not known yet, existing entries are kept
func (d *MemoryDirectory) Add(stations ...*ctdf.Station) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, station := range stations {
		if _, exists := d.stations[station.ID]; exists {
			continue
		}

		station.FillNames()
		d.stations[station.ID] = station
	}
}

func (d *MemoryDirectory) Get(ctx context.Context, uri string) (*ctdf.Station, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	station, exists := d.stations[uri]
	if !exists {
		return nil, &ctdf.NotFoundError{Kind: "Station", ID: uri}
	}

	return station, nil
}

func (d *MemoryDirectory) All() []*ctdf.Station {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	stations := make([]*ctdf.Station, 0, len(d.stations))
	for _, station := range d.stations {
		stations = append(stations, station)
	}

	slices.SortFunc(stations, func(a, b *ctdf.Station) int {
		if a.ID < b.ID {
			return -1
		} else if a.ID > b.ID {
			return 1
		}
		return 0
	})

	return stations
}

// Nearby returns up to limit stations within radiusKm of location, closest first
func (d *MemoryDirectory) Nearby(ctx context.Context, location *ctdf.Location, radiusKm float64, limit int) ([]*ctdf.Station, error) {
	if radiusKm < 0 {
		return nil, &ctdf.InvalidInputError{Field: "radius", Reason: "must not be negative"}
	}

	type candidate struct {
		station  *ctdf.Station
		distance float64
	}

	d.mutex.RLock()
	var candidates []candidate
	for _, station := range d.stations {
		if !station.Location.Valid() {
			continue
		}

		distance := location.Distance(station.Location)
		if distance <= radiusKm {
			candidates = append(candidates, candidate{station: station, distance: distance})
		}
	}
	d.mutex.RUnlock()

	slices.SortFunc(candidates, func(a, b candidate) int {
		if a.distance < b.distance {
			return -1
		} else if a.distance > b.distance {
			return 1
		}
		return 0
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	stations := make([]*ctdf.Station, len(candidates))
	for i, candidate := range candidates {
		stations[i] = candidate.station
	}

	return stations, nil
}
