package vehicles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/stations"
)

const vehicleURI = "http://irail.be/vehicle/IC1832"

const vehicleDocumentJSON = `{
  "@context": {
    "headsign": "http://vocab.gtfs.org/terms#headsign",
    "platform": "http://vocab.gtfs.org/terms#platform",
    "routeLabel": "http://vocab.gtfs.org/terms#routeLabel",
    "scheduledDepartureTime": "http://semweb.mmlab.be/ns/linkedconnections#departureTime",
    "stop": "http://vocab.gtfs.org/terms#stop"
  },
  "@graph": [
    {
      "stationinfo": {"@id": "http://irail.be/stations/NMBS/008811189"},
      "platforminfo": {"name": "3", "normal": "1"},
      "left": "1",
      "departureDelay": "120",
      "scheduledDepartureTime": "1700000000",
      "departureCanceled": "0",
      "occupancy": {"@id": "http://api.irail.be/terms/low"},
      "departureConnection": "http://irail.be/connections/8811189/20231114/IC1832"
    },
    {
      "stationinfo": {"@id": "http://irail.be/stations/NMBS/008812005"},
      "platforminfo": {"name": "12", "normal": false},
      "left": false,
      "departureDelay": 0,
      "scheduledDepartureTime": "1700000600",
      "arrivalDelay": 60,
      "scheduledArrivalTime": "1700000480",
      "isExtraStop": true,
      "occupancy": {"@id": "http://api.irail.be/terms/somethingelse"}
    },
    {
      "stationinfo": {"@id": "http://irail.be/stations/NMBS/008813003"},
      "platforminfo": {"name": "1", "normal": true},
      "arrivalDelay": "0",
      "scheduledArrivalTime": "1700000900",
      "arrivalCanceled": "1"
    }
  ]
}`

type fakeNetwork struct {
	body  string
	err   error
	calls int
}

func (n *fakeNetwork) Fetch(ctx context.Context, uri string) ([]byte, error) {
	n.calls++
	if n.err != nil {
		return nil, n.err
	}
	return []byte(n.body), nil
}

func testStationDirectory() *stations.MemoryDirectory {
	return stations.NewMemoryDirectory(
		&ctdf.Station{ID: "http://irail.be/stations/NMBS/008811189", DefaultName: "Vilvoorde"},
		&ctdf.Station{
			ID:          "http://irail.be/stations/NMBS/008812005",
			DefaultName: "Brussel-Noord/Bruxelles-Nord",
			Name:        map[ctdf.Language]string{ctdf.LanguageDutch: "Brussel-Noord", ctdf.LanguageFrench: "Bruxelles-Nord"},
		},
		&ctdf.Station{
			ID:          "http://irail.be/stations/NMBS/008813003",
			DefaultName: "Brussel-Centraal/Bruxelles-Central",
			Name:        map[ctdf.Language]string{ctdf.LanguageDutch: "Brussel-Centraal", ctdf.LanguageFrench: "Bruxelles-Central"},
		},
	)
}

func TestDirectoryGet(t *testing.T) {
	network := &fakeNetwork{body: vehicleDocumentJSON}
	directory := NewDirectory(network, testStationDirectory(), time.Minute)

	vehicle, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageFrench)
	require.NoError(t, err)

	assert.Equal(t, vehicleURI, vehicle.URI)
	assert.Equal(t, vehicleURI+"/20231114", vehicle.TripURI)
	assert.Equal(t, "Bruxelles-Central", vehicle.Headsign)
	require.Len(t, vehicle.Stops, 3)

	first := vehicle.Stops[0]
	assert.Equal(t, ctdf.StopTypeDeparture, first.Type)
	assert.Equal(t, "Vilvoorde", first.Station.NameIn(ctdf.LanguageFrench))
	assert.Equal(t, "3", first.Platform)
	assert.True(t, first.IsPlatformNormal)
	assert.True(t, first.HasLeft)
	assert.Equal(t, 2*time.Minute, first.DepartureDelay)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), first.DepartureTime.UTC())
	assert.Equal(t, time.Unix(1700000120, 0).UTC(), first.ActualDepartureTime().UTC())
	assert.Equal(t, ctdf.OccupancyLevelLow, first.Occupancy)

	middle := vehicle.Stops[1]
	assert.Equal(t, ctdf.StopTypeStop, middle.Type)
	assert.False(t, middle.IsPlatformNormal)
	assert.True(t, middle.IsExtraStop)
	assert.Equal(t, time.Minute, middle.ArrivalDelay)
	assert.Equal(t, ctdf.OccupancyLevelUnknown, middle.Occupancy)

	last := vehicle.Stops[2]
	assert.Equal(t, ctdf.StopTypeArrival, last.Type)
	assert.True(t, last.ArrivalCanceled)
	assert.Equal(t, ctdf.OccupancyLevelUnsupported, last.Occupancy)
	assert.True(t, last.DepartureTime.IsZero())

	t.Run("served from cache", func(t *testing.T) {
		cached, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageFrench)
		require.NoError(t, err)
		assert.Equal(t, 1, network.calls)
		assert.Equal(t, vehicle.TripURI, cached.TripURI)
	})

	t.Run("language is part of the cache key", func(t *testing.T) {
		dutch, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageDutch)
		require.NoError(t, err)
		assert.Equal(t, "Brussel-Centraal", dutch.Headsign)
		assert.Equal(t, 2, network.calls)
	})
}

func TestDirectoryGetErrors(t *testing.T) {
	t.Run("missing vocabulary term", func(t *testing.T) {
		network := &fakeNetwork{body: `{"@context": {"headsign": "x", "platform": "x", "routeLabel": "x", "stop": "x"}, "@graph": []}`}
		directory := NewDirectory(network, testStationDirectory(), time.Minute)

		_, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageDefault)

		var parseError *ctdf.ParseError
		require.True(t, errors.As(err, &parseError))
		assert.Equal(t, "scheduledDepartureTime", parseError.Field)
	})

	t.Run("missing graph", func(t *testing.T) {
		network := &fakeNetwork{body: `{"headsign": "x", "platform": "x", "routeLabel": "x", "scheduledDepartureTime": "x", "stop": "x"}`}
		directory := NewDirectory(network, testStationDirectory(), time.Minute)

		_, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageDefault)

		var parseError *ctdf.ParseError
		require.True(t, errors.As(err, &parseError))
		assert.Equal(t, "@graph", parseError.Field)
	})

	t.Run("malformed document", func(t *testing.T) {
		network := &fakeNetwork{body: `not json`}
		directory := NewDirectory(network, testStationDirectory(), time.Minute)

		_, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageDefault)

		var parseError *ctdf.ParseError
		assert.True(t, errors.As(err, &parseError))
	})

	t.Run("network failure", func(t *testing.T) {
		network := &fakeNetwork{err: &ctdf.NetworkError{URI: vehicleURI, StatusCode: 503}}
		directory := NewDirectory(network, testStationDirectory(), time.Minute)

		_, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageDefault)

		var networkError *ctdf.NetworkError
		require.True(t, errors.As(err, &networkError))
		assert.Equal(t, 503, networkError.StatusCode)
	})

	t.Run("unknown station", func(t *testing.T) {
		network := &fakeNetwork{body: vehicleDocumentJSON}
		directory := NewDirectory(network, stations.NewMemoryDirectory(), time.Minute)

		_, err := directory.Get(context.Background(), vehicleURI, ctdf.LanguageDefault)

		var notFound *ctdf.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("empty uri", func(t *testing.T) {
		directory := NewDirectory(&fakeNetwork{}, testStationDirectory(), time.Minute)

		_, err := directory.Get(context.Background(), "", ctdf.LanguageDefault)

		var invalid *ctdf.InvalidInputError
		assert.True(t, errors.As(err, &invalid))
	})
}
