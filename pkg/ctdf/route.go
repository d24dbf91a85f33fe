package ctdf

import "time"

type TransferType string

const (
	TransferTypeDeparture TransferType = "Departure"
	TransferTypeTransfer  TransferType = "Transfer"
	TransferTypeArrival   TransferType = "Arrival"
)

// Transfer is a node of a computed route
type Transfer struct {
	Station *Station `groups:"basic"`

	// StationName is the station name in the language the route was requested in
	StationName string       `groups:"basic"`
	Time        time.Time    `groups:"basic"`
	Type        TransferType `groups:"basic"`
}

// RouteLeg is the stretch between two consecutive transfers, either ridden on one trip or walked
type RouteLeg struct {
	Departure *Transfer `groups:"basic"`
	Arrival   *Transfer `groups:"basic"`

	Fragments []*Fragment `groups:"detailed"`

	TripID    string `groups:"basic"`
	RouteID   string `groups:"detailed"`
	Direction string `groups:"basic"`

	Footpath bool `groups:"basic"`
}

func (l *RouteLeg) Duration() time.Duration {
	return l.Arrival.Time.Sub(l.Departure.Time)
}

type Route struct {
	Transfers []*Transfer `groups:"basic"`
	Legs      []*RouteLeg `groups:"basic"`

	TransferCount int `groups:"basic"`
}

func (r *Route) DepartureTime() time.Time {
	if len(r.Transfers) == 0 {
		return time.Time{}
	}
	return r.Transfers[0].Time
}

func (r *Route) ArrivalTime() time.Time {
	if len(r.Transfers) == 0 {
		return time.Time{}
	}
	return r.Transfers[len(r.Transfers)-1].Time
}

func (r *Route) DepartureStation() *Station {
	if len(r.Transfers) == 0 {
		return nil
	}
	return r.Transfers[0].Station
}

func (r *Route) ArrivalStation() *Station {
	if len(r.Transfers) == 0 {
		return nil
	}
	return r.Transfers[len(r.Transfers)-1].Station
}

func (r *Route) Duration() time.Duration {
	return r.ArrivalTime().Sub(r.DepartureTime())
}
