package ctdf

import "time"

// Fragment is a single Linked Connections connection, one vehicle leg between two consecutive stops.
// Departure and arrival times include the delays.
type Fragment struct {
	ID string `groups:"basic"`

	DepartureStop string `groups:"basic"`
	ArrivalStop   string `groups:"basic"`

	DepartureTime time.Time `groups:"basic"`
	ArrivalTime   time.Time `groups:"basic"`

	DepartureDelay time.Duration `groups:"basic"`
	ArrivalDelay   time.Duration `groups:"basic"`

	TripID    string `groups:"detailed"`
	RouteID   string `groups:"detailed"`
	Direction string `groups:"basic"`

	PickupType  GTFSPickupDropOffType `groups:"detailed"`
	DropOffType GTFSPickupDropOffType `groups:"detailed"`
}

type GTFSPickupDropOffType string

const (
	GTFSPickupDropOffTypeRegular                  GTFSPickupDropOffType = "gtfs:Regular"
	GTFSPickupDropOffTypeNotAvailable             GTFSPickupDropOffType = "gtfs:NotAvailable"
	GTFSPickupDropOffTypeMustPhone                GTFSPickupDropOffType = "gtfs:MustPhone"
	GTFSPickupDropOffTypeMustCoordinateWithDriver GTFSPickupDropOffType = "gtfs:MustCoordinateWithDriver"
)

func (f *Fragment) ScheduledDepartureTime() time.Time {
	return f.DepartureTime.Add(-f.DepartureDelay)
}

func (f *Fragment) ScheduledArrivalTime() time.Time {
	return f.ArrivalTime.Add(-f.ArrivalDelay)
}

func (f *Fragment) IsOnTime() bool {
	return f.DepartureDelay == 0 && f.ArrivalDelay == 0
}

// Boardable reports whether passengers may get on at the departure stop
func (f *Fragment) Boardable() bool {
	return f.PickupType == "" || f.PickupType == GTFSPickupDropOffTypeRegular
}

// Alightable reports whether passengers may get off at the arrival stop
func (f *Fragment) Alightable() bool {
	return f.DropOffType == "" || f.DropOffType == GTFSPickupDropOffTypeRegular
}

func (f *Fragment) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}
