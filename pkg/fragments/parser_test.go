package fragments

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

func TestParsePage(t *testing.T) {
	uri := testBaseURL + "?departureTime=2018-08-02T13:00:00.000Z"
	departure := time.Date(2018, 8, 2, 13, 0, 0, 0, time.UTC)

	delay := 120
	late := connectionAt("http://irail.be/connections/1", "http://irail.be/stations/NMBS/008811189", "http://irail.be/stations/NMBS/008812005", departure.Add(5*time.Minute), 7)
	late.DepartureDelay = &delay
	late.ArrivalDelay = &delay

	body := encodePage(t, testPage{
		ID:       uri,
		Previous: testBaseURL + "?departureTime=2018-08-02T12:50:00.000Z",
		Next:     testBaseURL + "?departureTime=2018-08-02T13:10:00.000Z",
		Graph: []testConnection{
			connectionAt("http://irail.be/connections/0", "http://irail.be/stations/NMBS/008811189", "http://irail.be/stations/NMBS/008812005", departure, 7),
			late,
			connectionAt("http://irail.be/connections/2", "http://irail.be/stations/NMBS/008812005", "http://irail.be/stations/NMBS/008813003", departure.Add(2*time.Minute), 5),
		},
	})

	page, err := ParsePage(uri, body)
	require.NoError(t, err)

	assert.Equal(t, uri, page.URI)
	assert.Equal(t, departure, page.Timestamp)
	assert.True(t, page.HasPrevious())
	assert.True(t, page.HasNext())
	require.Len(t, page.Fragments, 3)

	t.Run("descending order", func(t *testing.T) {
		for i := 1; i < len(page.Fragments); i++ {
			assert.False(t, page.Fragments[i].DepartureTime.After(page.Fragments[i-1].DepartureTime))
		}
		assert.Equal(t, "http://irail.be/connections/1", page.Fragments[0].ID)
		assert.Equal(t, departure, page.EarliestDeparture())
		assert.Equal(t, departure.Add(5*time.Minute), page.LatestDeparture())
	})

	t.Run("delays", func(t *testing.T) {
		fragment := page.Fragments[0]
		assert.Equal(t, 2*time.Minute, fragment.DepartureDelay)
		assert.Equal(t, 2*time.Minute, fragment.ArrivalDelay)
		assert.Equal(t, departure.Add(3*time.Minute), fragment.ScheduledDepartureTime())
		assert.False(t, fragment.IsOnTime())
	})

	t.Run("absent delay is on time", func(t *testing.T) {
		fragment := page.Fragments[2]
		assert.Equal(t, time.Duration(0), fragment.ArrivalDelay)
		assert.Equal(t, time.Duration(0), fragment.DepartureDelay)
		assert.True(t, fragment.IsOnTime())
	})

	t.Run("trip details", func(t *testing.T) {
		fragment := page.Fragments[2]
		assert.Equal(t, "http://irail.be/vehicle/IC1832/20180802", fragment.TripID)
		assert.Equal(t, "http://irail.be/routes/IC1832", fragment.RouteID)
		assert.Equal(t, "Brugge", fragment.Direction)
		assert.True(t, fragment.Boardable())
		assert.True(t, fragment.Alightable())
	})
}

func TestParsePageDelayAsString(t *testing.T) {
	body := []byte(`{"@id":"p","@graph":[{"@id":"c","departureStop":"a","arrivalStop":"b",
		"departureTime":"2018-08-02T13:00:00.000Z","arrivalTime":"2018-08-02T13:10:00.000Z",
		"departureDelay":"60","gtfs:pickupType":"gtfs:NotAvailable","gtfs:dropOffType":"gtfs:Regular"}]}`)

	page, err := ParsePage("p", body)
	require.NoError(t, err)
	require.Len(t, page.Fragments, 1)

	assert.Equal(t, time.Minute, page.Fragments[0].DepartureDelay)
	assert.False(t, page.Fragments[0].Boardable())
	assert.True(t, page.Fragments[0].Alightable())
}

func TestParsePageErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name: "malformed json",
			body: `{"@graph": [`,
		},
		{
			name:  "missing graph",
			body:  `{"@id":"p","hydra:previous":"q"}`,
			field: "@graph",
		},
		{
			name:  "missing departure stop",
			body:  `{"@graph":[{"@id":"c","arrivalStop":"b","departureTime":"2018-08-02T13:00:00Z","arrivalTime":"2018-08-02T13:10:00Z"}]}`,
			field: "departureStop",
		},
		{
			name:  "bad arrival time",
			body:  `{"@graph":[{"@id":"c","departureStop":"a","arrivalStop":"b","departureTime":"2018-08-02T13:00:00Z","arrivalTime":"later"}]}`,
			field: "arrivalTime",
		},
		{
			name: "arrival before departure",
			body: `{"@graph":[{"@id":"c","departureStop":"a","arrivalStop":"b","departureTime":"2018-08-02T13:00:00Z","arrivalTime":"2018-08-02T12:00:00Z"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePage("p", []byte(tt.body))
			require.Error(t, err)

			var parseError *ctdf.ParseError
			require.True(t, errors.As(err, &parseError))
			assert.Equal(t, tt.field, parseError.Field)
		})
	}
}

func TestParsePageWithoutPrevious(t *testing.T) {
	body := []byte(`{"@id":"p","hydra:next":"n","@graph":[]}`)

	page, err := ParsePage("p", body)
	require.NoError(t, err)

	assert.False(t, page.HasPrevious())
	assert.Empty(t, page.Fragments)
}

func TestPageURI(t *testing.T) {
	at := time.Date(2018, 8, 2, 13, 7, 12, 0, time.UTC)

	assert.Equal(t, testBaseURL+"?departureTime=2018-08-02T13:00:00.000Z", PageURI(testBaseURL, at, 10*time.Minute))
	assert.Equal(t, testBaseURL+"?departureTime=2018-08-02T13:07:12.000Z", PageURI(testBaseURL, at, 0))
	assert.Equal(t, "https://example.org/lc?agency=sncb&departureTime=2018-08-02T13:05:00.000Z", PageURI("https://example.org/lc?agency=sncb", at, 5*time.Minute))
}
