package planner

import (
	"time"

	"github.com/travigo/lcplanner/pkg/ctdf"
)

type State string

const (
	StateIdle                State = "IDLE"
	StateCollectingFragments State = "COLLECTING_FRAGMENTS"
	StateScanning            State = "SCANNING"
	StateReconstructing      State = "RECONSTRUCTING"
	StateDone                State = "DONE"
	StateError               State = "ERROR"
)

type Request struct {
	Origin        string
	Destination   string
	DepartureTime time.Time

	MaxTransfers int
	// MaxPages overrides the planner's pagination bound when above zero
	MaxPages int

	Language ctdf.Language

	OnStateChange  func(state State)
	OnProgress     func(percent int)
	OnPageReceived func(uri string)
}

func (r *Request) validate() error {
	if r.Origin == "" {
		return &ctdf.InvalidInputError{Field: "origin", Reason: "must not be empty"}
	}
	if r.Destination == "" {
		return &ctdf.InvalidInputError{Field: "destination", Reason: "must not be empty"}
	}
	if r.Origin == r.Destination {
		return &ctdf.InvalidInputError{Field: "destination", Reason: "must differ from the origin"}
	}
	if r.DepartureTime.IsZero() {
		return &ctdf.InvalidInputError{Field: "departureTime", Reason: "must be set"}
	}
	if r.MaxTransfers < 0 {
		return &ctdf.InvalidInputError{Field: "maxTransfers", Reason: "must not be negative"}
	}

	return nil
}

func (r *Request) setState(state State) {
	if r.OnStateChange != nil {
		r.OnStateChange(state)
	}
}

type Result struct {
	Origin      *ctdf.Station `groups:"basic"`
	Destination *ctdf.Station `groups:"basic"`

	DepartureTime time.Time     `groups:"basic"`
	Horizon       time.Time     `groups:"detailed"`
	MaxTransfers  int           `groups:"basic"`
	Language      ctdf.Language `groups:"basic"`

	Pages     int `groups:"detailed"`
	Fragments int `groups:"detailed"`

	Routes []*ctdf.Route `groups:"basic"`
}

// Unreachable describes why no route was found, it is nil when the result has routes
func (r *Result) Unreachable() error {
	if len(r.Routes) > 0 {
		return nil
	}

	return &ctdf.UnreachableDestinationError{
		Origin:       r.Origin.ID,
		Destination:  r.Destination.ID,
		MaxTransfers: r.MaxTransfers,
	}
}
