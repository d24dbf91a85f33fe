package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/planner"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type RecordsStats struct {
	mutex   sync.RWMutex
	records Records
}

type Records struct {
	Stations int64

	PlanRequests       int64
	FailedPlanRequests int64
	RoutesFound        int64
	PagesFetched       int64
}

func (s *RecordsStats) recordPlan(record *planner.PlanRecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records.PlanRequests++
	if record.Error != nil {
		s.records.FailedPlanRequests++
	}
	s.records.RoutesFound += int64(record.Routes)
	s.records.PagesFetched += int64(record.Pages)
}

// Snapshot returns a copy safe to serialise while requests keep updating the counters
func (s *RecordsStats) Snapshot() Records {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.records
}

// UpdateStationCount refreshes the station count every interval until ctx is done
func (s *RecordsStats) UpdateStationCount(ctx context.Context, collection *mongo.Collection, interval time.Duration) {
	for {
		numberStations, err := collection.CountDocuments(ctx, bson.D{})
		if err != nil {
			log.Error().Err(err).Msg("Failed to count stations")
		} else {
			s.mutex.Lock()
			s.records.Stations = numberStations
			s.mutex.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
