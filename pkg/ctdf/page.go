package ctdf

import (
	"encoding/json"
	"time"
)

// Page is one time-windowed Linked Connections document.
// Fragments are ordered by descending departure time and the page is never modified once parsed.
type Page struct {
	URI       string
	Timestamp time.Time

	Previous string
	Next     string

	Fragments []*Fragment
}

func (p *Page) HasPrevious() bool {
	return p.Previous != ""
}

func (p *Page) HasNext() bool {
	return p.Next != ""
}

// EarliestDeparture returns the departure time of the last fragment, or the page timestamp for empty pages
func (p *Page) EarliestDeparture() time.Time {
	if len(p.Fragments) == 0 {
		return p.Timestamp
	}
	return p.Fragments[len(p.Fragments)-1].DepartureTime
}

func (p *Page) LatestDeparture() time.Time {
	if len(p.Fragments) == 0 {
		return p.Timestamp
	}
	return p.Fragments[0].DepartureTime
}

func (p *Page) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

func (p *Page) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}
