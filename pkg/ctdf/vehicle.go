package ctdf

import (
	"encoding/json"
	"time"
)

type Vehicle struct {
	URI      string `groups:"basic"`
	TripURI  string `groups:"basic"`
	Headsign string `groups:"basic"`

	Stops []*VehicleStop `groups:"basic"`
}

func (v *Vehicle) MarshalBinary() ([]byte, error) {
	return json.Marshal(v)
}

func (v *Vehicle) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, v)
}

// VehicleStop is a single visit of a vehicle at a station
type VehicleStop struct {
	Station *Station `groups:"basic"`

	Platform         string `groups:"basic"`
	IsPlatformNormal bool   `groups:"basic"`
	HasLeft          bool   `groups:"basic"`

	DepartureTime     time.Time     `groups:"basic"`
	DepartureDelay    time.Duration `groups:"basic"`
	DepartureCanceled bool          `groups:"basic"`

	ArrivalTime     time.Time     `groups:"basic"`
	ArrivalDelay    time.Duration `groups:"basic"`
	ArrivalCanceled bool          `groups:"basic"`

	IsExtraStop bool           `groups:"detailed"`
	Occupancy   OccupancyLevel `groups:"detailed"`
	Type        StopType       `groups:"basic"`
}

func (s *VehicleStop) ActualDepartureTime() time.Time {
	return s.DepartureTime.Add(s.DepartureDelay)
}

func (s *VehicleStop) ActualArrivalTime() time.Time {
	return s.ArrivalTime.Add(s.ArrivalDelay)
}

type OccupancyLevel string

const (
	OccupancyLevelUnsupported OccupancyLevel = "Unsupported"
	OccupancyLevelUnknown     OccupancyLevel = "Unknown"
	OccupancyLevelLow         OccupancyLevel = "Low"
	OccupancyLevelMedium      OccupancyLevel = "Medium"
	OccupancyLevelHigh        OccupancyLevel = "High"
)

type StopType string

const (
	StopTypeDeparture StopType = "Departure"
	StopTypeStop      StopType = "Stop"
	StopTypeArrival   StopType = "Arrival"
)
