package fragments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/travigo/lcplanner/pkg/ctdf"
	"golang.org/x/exp/slices"
)

type jsonLDPage struct {
	ID       string          `json:"@id"`
	Previous string          `json:"hydra:previous"`
	Next     string          `json:"hydra:next"`
	Graph    json.RawMessage `json:"@graph"`
}

type jsonLDConnection struct {
	ID             string         `json:"@id"`
	DepartureStop  string         `json:"departureStop"`
	ArrivalStop    string         `json:"arrivalStop"`
	DepartureTime  string         `json:"departureTime"`
	ArrivalTime    string         `json:"arrivalTime"`
	DepartureDelay flexibleNumber `json:"departureDelay"`
	ArrivalDelay   flexibleNumber `json:"arrivalDelay"`
	Trip           string         `json:"gtfs:trip"`
	Route          string         `json:"gtfs:route"`
	Direction      string         `json:"direction"`
	PickupType     string         `json:"gtfs:pickupType"`
	DropOffType    string         `json:"gtfs:dropOffType"`
}

// flexibleNumber accepts both 60 and "60", absent values stay zero
type flexibleNumber float64

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

func (n flexibleNumber) seconds() time.Duration {
	return time.Duration(float64(n) * float64(time.Second))
}

// ParsePage decodes a Linked Connections JSON-LD document fetched from uri.
// The returned fragments are ordered by descending departure time.
func ParsePage(uri string, body []byte) (*ctdf.Page, error) {
	var document jsonLDPage
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, &ctdf.ParseError{URI: uri, Err: err}
	}

	if len(document.Graph) == 0 || string(document.Graph) == "null" {
		return nil, &ctdf.ParseError{URI: uri, Field: "@graph"}
	}

	var connections []jsonLDConnection
	if err := json.Unmarshal(document.Graph, &connections); err != nil {
		return nil, &ctdf.ParseError{URI: uri, Field: "@graph", Err: err}
	}

	page := &ctdf.Page{
		URI:       document.ID,
		Previous:  document.Previous,
		Next:      document.Next,
		Fragments: make([]*ctdf.Fragment, 0, len(connections)),
	}
	if page.URI == "" {
		page.URI = uri
	}

	for _, connection := range connections {
		fragment, err := parseConnection(uri, connection)
		if err != nil {
			return nil, err
		}

		page.Fragments = append(page.Fragments, fragment)
	}

	slices.SortStableFunc(page.Fragments, func(a, b *ctdf.Fragment) int {
		return b.DepartureTime.Compare(a.DepartureTime)
	})

	page.Timestamp = pageTimestamp(page)

	return page, nil
}

func parseConnection(uri string, connection jsonLDConnection) (*ctdf.Fragment, error) {
	required := []struct {
		field string
		value string
	}{
		{"@id", connection.ID},
		{"departureStop", connection.DepartureStop},
		{"arrivalStop", connection.ArrivalStop},
		{"departureTime", connection.DepartureTime},
		{"arrivalTime", connection.ArrivalTime},
	}
	for _, property := range required {
		if property.value == "" {
			return nil, &ctdf.ParseError{URI: uri, Field: property.field}
		}
	}

	departureTime, err := time.Parse(time.RFC3339, connection.DepartureTime)
	if err != nil {
		return nil, &ctdf.ParseError{URI: uri, Field: "departureTime", Err: err}
	}
	arrivalTime, err := time.Parse(time.RFC3339, connection.ArrivalTime)
	if err != nil {
		return nil, &ctdf.ParseError{URI: uri, Field: "arrivalTime", Err: err}
	}

	if arrivalTime.Before(departureTime) {
		return nil, &ctdf.ParseError{
			URI: uri,
			Err: fmt.Errorf("connection %s arrives at %s before departing at %s", connection.ID, arrivalTime, departureTime),
		}
	}

	return &ctdf.Fragment{
		ID:             connection.ID,
		DepartureStop:  connection.DepartureStop,
		ArrivalStop:    connection.ArrivalStop,
		DepartureTime:  departureTime.UTC(),
		ArrivalTime:    arrivalTime.UTC(),
		DepartureDelay: connection.DepartureDelay.seconds(),
		ArrivalDelay:   connection.ArrivalDelay.seconds(),
		TripID:         connection.Trip,
		RouteID:        connection.Route,
		Direction:      connection.Direction,
		PickupType:     ctdf.GTFSPickupDropOffType(connection.PickupType),
		DropOffType:    ctdf.GTFSPickupDropOffType(connection.DropOffType),
	}, nil
}

// pageTimestamp prefers the departureTime the page is published under, falling back to its earliest fragment
func pageTimestamp(page *ctdf.Page) time.Time {
	if parsedURI, err := url.Parse(page.URI); err == nil {
		if departureTime := parsedURI.Query().Get("departureTime"); departureTime != "" {
			if timestamp, err := time.Parse(time.RFC3339, departureTime); err == nil {
				return timestamp.UTC()
			}
		}
	}

	return page.EarliestDeparture()
}
