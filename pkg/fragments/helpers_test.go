package fragments

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

const testBaseURL = "https://graph.example.org/sncb/connections"

type testConnection struct {
	ID             string `json:"@id"`
	Type           string `json:"@type"`
	DepartureStop  string `json:"departureStop"`
	ArrivalStop    string `json:"arrivalStop"`
	DepartureTime  string `json:"departureTime"`
	ArrivalTime    string `json:"arrivalTime"`
	DepartureDelay *int   `json:"departureDelay,omitempty"`
	ArrivalDelay   *int   `json:"arrivalDelay,omitempty"`
	Trip           string `json:"gtfs:trip"`
	Route          string `json:"gtfs:route"`
	Direction      string `json:"direction"`
	PickupType     string `json:"gtfs:pickupType,omitempty"`
	DropOffType    string `json:"gtfs:dropOffType,omitempty"`
}

type testPage struct {
	ID       string           `json:"@id"`
	Previous string           `json:"hydra:previous,omitempty"`
	Next     string           `json:"hydra:next,omitempty"`
	Graph    []testConnection `json:"@graph"`
}

func connectionAt(id string, from string, to string, departure time.Time, minutes int) testConnection {
	return testConnection{
		ID:            id,
		Type:          "Connection",
		DepartureStop: from,
		ArrivalStop:   to,
		DepartureTime: departure.UTC().Format(time.RFC3339),
		ArrivalTime:   departure.Add(time.Duration(minutes) * time.Minute).UTC().Format(time.RFC3339),
		Trip:          "http://irail.be/vehicle/IC1832/20180802",
		Route:         "http://irail.be/routes/IC1832",
		Direction:     "Brugge",
	}
}

func encodePage(t *testing.T, page testPage) []byte {
	t.Helper()

	body, err := json.Marshal(page)
	require.NoError(t, err)

	return body
}

// fakeNetwork serves fixed documents and counts requests per uri
type fakeNetwork struct {
	mutex     sync.Mutex
	documents map[string][]byte
	calls     map[string]int
	delay     time.Duration
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		documents: map[string][]byte{},
		calls:     map[string]int{},
	}
}

func (n *fakeNetwork) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.calls[uri]++

	document, exists := n.documents[uri]
	if !exists {
		return nil, &ctdf.NetworkError{URI: uri, StatusCode: 404}
	}

	return document, nil
}

func (n *fakeNetwork) callCount(uri string) int {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	return n.calls[uri]
}

// chainNetwork builds count consecutive pages of granularity length ending at the page holding end
func chainNetwork(t *testing.T, end time.Time, count int, granularity time.Duration) (*fakeNetwork, []string) {
	network := newFakeNetwork()
	uris := make([]string, count)

	for i := 0; i < count; i++ {
		pageTime := end.Add(-time.Duration(count-1-i) * granularity)
		uris[i] = PageURI(testBaseURL, pageTime, granularity)
	}

	for i := 0; i < count; i++ {
		pageTime := end.Add(-time.Duration(count-1-i) * granularity).Truncate(granularity)
		page := testPage{ID: uris[i]}
		if i > 0 {
			page.Previous = uris[i-1]
		}
		if i < count-1 {
			page.Next = uris[i+1]
		}

		page.Graph = []testConnection{
			connectionAt(uris[i]+"#a", "http://irail.be/stations/NMBS/008811189", "http://irail.be/stations/NMBS/008812005", pageTime, 8),
			connectionAt(uris[i]+"#b", "http://irail.be/stations/NMBS/008812005", "http://irail.be/stations/NMBS/008813003", pageTime.Add(granularity/2), 6),
		}

		network.documents[uris[i]] = encodePage(t, page)
	}

	return network, uris
}
