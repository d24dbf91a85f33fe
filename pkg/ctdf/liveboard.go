package ctdf

import "time"

type LiveboardMode string

const (
	LiveboardModeDepartures LiveboardMode = "DEPARTURES"
	LiveboardModeArrivals   LiveboardMode = "ARRIVALS"
)

type Liveboard struct {
	Station *Station      `groups:"basic"`
	Mode    LiveboardMode `groups:"basic"`

	From  time.Time `groups:"basic"`
	Until time.Time `groups:"basic"`

	Entries []*LiveboardEntry `groups:"basic"`
}

// LiveboardEntry is one departure or arrival at the board's station
type LiveboardEntry struct {
	Fragment *Fragment `groups:"detailed"`

	// Station at the other end of the fragment
	Station *Station `groups:"basic"`

	ScheduledTime time.Time     `groups:"basic"`
	Time          time.Time     `groups:"basic"`
	Delay         time.Duration `groups:"basic"`

	TripID    string `groups:"basic"`
	RouteID   string `groups:"detailed"`
	Direction string `groups:"basic"`
}

func (e *LiveboardEntry) IsOnTime() bool {
	return e.Delay == 0
}
