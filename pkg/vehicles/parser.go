package vehicles

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/util"
)

var requiredVehicleProperties = []string{"headsign", "platform", "routeLabel", "scheduledDepartureTime", "stop"}

var tripDateRegex = regexp.MustCompile(`^(http://\w+\.\w+/\w+/\d{7})/(\d{8})/(.\d{3})`)

type vehicleDocument struct {
	Context map[string]json.RawMessage `json:"@context"`
	Graph   json.RawMessage            `json:"@graph"`
}

type vehicleStopDocument struct {
	PlatformInfo struct {
		Name   string       `json:"name"`
		Normal flexibleBool `json:"normal"`
	} `json:"platforminfo"`
	Left                   flexibleBool   `json:"left"`
	DepartureDelay         flexibleNumber `json:"departureDelay"`
	ScheduledDepartureTime string         `json:"scheduledDepartureTime"`
	DepartureCanceled      flexibleBool   `json:"departureCanceled"`
	ArrivalDelay           flexibleNumber `json:"arrivalDelay"`
	ScheduledArrivalTime   string         `json:"scheduledArrivalTime"`
	ArrivalCanceled        flexibleBool   `json:"arrivalCanceled"`
	IsExtraStop            flexibleBool   `json:"isExtraStop"`
	Occupancy              struct {
		ID string `json:"@id"`
	} `json:"occupancy"`
	StationInfo struct {
		ID string `json:"@id"`
	} `json:"stationinfo"`
	DepartureConnection string `json:"departureConnection"`
}

// parsedVehicle holds a decoded vehicle document before its stations are resolved
type parsedVehicle struct {
	TripDate string
	Stops    []*parsedStop
}

type parsedStop struct {
	StationURI string
	Stop       *ctdf.VehicleStop
}

type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.Trim(data, `"`)) {
	case "true", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

type flexibleNumber int

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}

	*n = flexibleNumber(value)
	return nil
}

// parseVehicle validates and decodes a vehicle JSON-LD document.
// The vehicle vocabulary terms may be declared in the @context or at the top level.
func parseVehicle(uri string, body []byte) (*parsedVehicle, error) {
	var topLevel map[string]json.RawMessage
	if err := json.Unmarshal(body, &topLevel); err != nil {
		return nil, &ctdf.ParseError{URI: uri, Err: err}
	}

	var document vehicleDocument
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, &ctdf.ParseError{URI: uri, Err: err}
	}

	for _, property := range requiredVehicleProperties {
		_, inContext := document.Context[property]
		_, inDocument := topLevel[property]
		if !inContext && !inDocument {
			return nil, &ctdf.ParseError{URI: uri, Field: property}
		}
	}

	if len(document.Graph) == 0 || string(document.Graph) == "null" {
		return nil, &ctdf.ParseError{URI: uri, Field: "@graph"}
	}

	var stopDocuments []vehicleStopDocument
	if err := json.Unmarshal(document.Graph, &stopDocuments); err != nil {
		return nil, &ctdf.ParseError{URI: uri, Field: "@graph", Err: err}
	}

	vehicle := &parsedVehicle{}

	for i, stopDocument := range stopDocuments {
		if stopDocument.StationInfo.ID == "" {
			return nil, &ctdf.ParseError{URI: uri, Field: "stationinfo"}
		}

		stop, err := stopDocument.toStop(uri)
		if err != nil {
			return nil, err
		}

		switch i {
		case 0:
			stop.Type = ctdf.StopTypeDeparture
			if match := tripDateRegex.FindStringSubmatch(stopDocument.DepartureConnection); match != nil {
				vehicle.TripDate = match[2]
			}
		case len(stopDocuments) - 1:
			stop.Type = ctdf.StopTypeArrival
		default:
			stop.Type = ctdf.StopTypeStop
		}

		vehicle.Stops = append(vehicle.Stops, &parsedStop{
			StationURI: stopDocument.StationInfo.ID,
			Stop:       stop,
		})
	}

	return vehicle, nil
}

func (d *vehicleStopDocument) toStop(uri string) (*ctdf.VehicleStop, error) {
	stop := &ctdf.VehicleStop{
		Platform:          d.PlatformInfo.Name,
		IsPlatformNormal:  bool(d.PlatformInfo.Normal),
		HasLeft:           bool(d.Left),
		DepartureDelay:    time.Duration(d.DepartureDelay) * time.Second,
		DepartureCanceled: bool(d.DepartureCanceled),
		ArrivalDelay:      time.Duration(d.ArrivalDelay) * time.Second,
		ArrivalCanceled:   bool(d.ArrivalCanceled),
		IsExtraStop:       bool(d.IsExtraStop),
		Occupancy:         occupancyLevel(d.Occupancy.ID),
	}

	if d.ScheduledDepartureTime != "" {
		departureTime, err := util.ParseEpochString(d.ScheduledDepartureTime)
		if err != nil {
			return nil, &ctdf.ParseError{URI: uri, Field: "scheduledDepartureTime", Err: err}
		}
		stop.DepartureTime = departureTime
	}

	if d.ScheduledArrivalTime != "" {
		arrivalTime, err := util.ParseEpochString(d.ScheduledArrivalTime)
		if err != nil {
			return nil, &ctdf.ParseError{URI: uri, Field: "scheduledArrivalTime", Err: err}
		}
		stop.ArrivalTime = arrivalTime
	}

	return stop, nil
}

func occupancyLevel(uri string) ctdf.OccupancyLevel {
	switch uri {
	case "http://api.irail.be/terms/low":
		return ctdf.OccupancyLevelLow
	case "http://api.irail.be/terms/medium":
		return ctdf.OccupancyLevelMedium
	case "http://api.irail.be/terms/high":
		return ctdf.OccupancyLevelHigh
	case "http://api.irail.be/terms/unknown":
		return ctdf.OccupancyLevelUnknown
	case "":
		return ctdf.OccupancyLevelUnsupported
	default:
		return ctdf.OccupancyLevelUnknown
	}
}
