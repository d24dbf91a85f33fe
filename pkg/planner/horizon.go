package planner

import (
	"time"

	"github.com/rs/zerolog/log"

	_ "time/tzdata"
)

const timetableZone = "Europe/Brussels"

var timetableLocation = loadTimetableLocation()

func loadTimetableLocation() *time.Location {
	location, err := time.LoadLocation(timetableZone)
	if err != nil {
		log.Error().Err(err).Str("zone", timetableZone).Msg("Failed to load timetable time zone, using UTC")
		return time.UTC
	}
	return location
}

// ArrivalHorizon is the latest arrival time the planner collects fragments for.
// Late evening and night departures, in Belgian local time, get a wider window because services are sparse.
func ArrivalHorizon(departureTime time.Time) time.Time {
	hour := departureTime.In(timetableLocation).Hour()

	switch {
	case hour > 22 || hour < 1:
		return departureTime.Add(8 * time.Hour)
	case hour > 18 || hour < 4:
		return departureTime.Add(6 * time.Hour)
	default:
		return departureTime.Add(5 * time.Hour)
	}
}
