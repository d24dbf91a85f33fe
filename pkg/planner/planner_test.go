package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/footpath"
	"github.com/travigo/lcplanner/pkg/fragments"
	"github.com/travigo/lcplanner/pkg/stations"
)

const (
	testBaseURL = "http://test.irail.be/sncb/connections"

	vilvoorde       = "http://irail.be/stations/NMBS/008811189"
	schaarbeek      = "http://irail.be/stations/NMBS/008811916"
	brusselNoord    = "http://irail.be/stations/NMBS/008812005"
	brusselCentraal = "http://irail.be/stations/NMBS/008813003"
	brusselZuid     = "http://irail.be/stations/NMBS/008814001"
	gentSintPieters = "http://irail.be/stations/NMBS/008892007"
	brugge          = "http://irail.be/stations/NMBS/008891009"
	amsterdam       = "http://irail.be/stations/NMBS/008400058"
)

var testDepartureTime = time.Date(2018, 8, 2, 13, 0, 0, 0, time.UTC)

func testStation(uri string, dutchName string, frenchName string, longitude float64, latitude float64) *ctdf.Station {
	return &ctdf.Station{
		ID:          uri,
		DefaultName: dutchName,
		Name: map[ctdf.Language]string{
			ctdf.LanguageDutch:  dutchName,
			ctdf.LanguageFrench: frenchName,
		},
		Country:  ctdf.CountryBelgium,
		Location: ctdf.NewLocation(longitude, latitude),
	}
}

func testStations() *stations.MemoryDirectory {
	return stations.NewMemoryDirectory(
		testStation(vilvoorde, "Vilvoorde", "Vilvorde", 4.429208, 50.929089),
		testStation(schaarbeek, "Schaarbeek", "Schaerbeek", 4.378636, 50.878513),
		testStation(brusselNoord, "Brussel-Noord", "Bruxelles-Nord", 4.360846, 50.859663),
		testStation(brusselCentraal, "Brussel-Centraal", "Bruxelles-Central", 4.356801, 50.845658),
		testStation(brusselZuid, "Brussel-Zuid", "Bruxelles-Midi", 4.336531, 50.835707),
		testStation(gentSintPieters, "Gent-Sint-Pieters", "Gand-Saint-Pierre", 3.710675, 51.035896),
		testStation(brugge, "Brugge", "Bruges", 3.216726, 51.197226),
		testStation(amsterdam, "Amsterdam-Centraal", "Amsterdam-Central", 4.900272, 52.378706),
	)
}

func at(hour int, minute int) time.Time {
	return time.Date(2018, 8, 2, hour, minute, 0, 0, time.UTC)
}

func connection(trip string, from string, to string, departure time.Time, arrival time.Time) *ctdf.Fragment {
	return &ctdf.Fragment{
		ID:            fmt.Sprintf("http://irail.be/connections/%s/%s/%s", from[len(from)-7:], departure.Format("20060102T1504"), trip),
		DepartureStop: from,
		ArrivalStop:   to,
		DepartureTime: departure,
		ArrivalTime:   arrival,
		TripID:        "http://irail.be/vehicle/" + trip + "/20180802",
		RouteID:       "http://irail.be/routes/" + trip,
		Direction:     trip,
	}
}

// Vilvoorde to Brugge with one direct slow train, a one transfer route through Brussel-Zuid,
// a two transfer route through Brussel-Noord and Gent-Sint-Pieters and a connection at
// Brussel-Zuid that leaves too soon to be caught.
func scenarioFragments() []*ctdf.Fragment {
	return []*ctdf.Fragment{
		connection("IC1", vilvoorde, brusselNoord, at(13, 5), at(13, 15)),
		connection("IC1", brusselNoord, brusselCentraal, at(13, 16), at(13, 20)),
		connection("IC1", brusselCentraal, brusselZuid, at(13, 21), at(13, 25)),

		connection("IC2", brusselZuid, gentSintPieters, at(13, 40), at(14, 10)),
		connection("IC2", gentSintPieters, brugge, at(14, 12), at(14, 30)),

		connection("L1", vilvoorde, schaarbeek, at(13, 10), at(13, 20)),
		connection("L1", schaarbeek, brusselNoord, at(13, 21), at(13, 30)),
		connection("L1", brusselNoord, brugge, at(13, 35), at(15, 30)),

		connection("IC3", brusselNoord, gentSintPieters, at(13, 20), at(13, 55)),
		connection("IC4", gentSintPieters, brugge, at(14, 5), at(14, 25)),

		connection("IC5", brusselZuid, brugge, at(13, 27), at(14, 15)),
	}
}

type fakePageSource struct {
	granularity time.Duration
	pages       map[string]*ctdf.Page
	failOn      map[string]error
	fetches     int
}

// newFakePageSource publishes fragments on pages of granularity between from and until.
// The page at from has no previous link.
func newFakePageSource(from time.Time, until time.Time, granularity time.Duration, pageFragments []*ctdf.Fragment) *fakePageSource {
	source := &fakePageSource{
		granularity: granularity,
		pages:       map[string]*ctdf.Page{},
		failOn:      map[string]error{},
	}

	for pageTime := from; pageTime.Before(until); pageTime = pageTime.Add(granularity) {
		page := &ctdf.Page{
			URI:       fragments.PageURI(testBaseURL, pageTime, granularity),
			Timestamp: pageTime,
			Next:      fragments.PageURI(testBaseURL, pageTime.Add(granularity), granularity),
		}
		if pageTime.After(from) {
			page.Previous = fragments.PageURI(testBaseURL, pageTime.Add(-granularity), granularity)
		}

		for _, fragment := range pageFragments {
			if !fragment.DepartureTime.Before(pageTime) && fragment.DepartureTime.Before(pageTime.Add(granularity)) {
				page.Fragments = append(page.Fragments, fragment)
			}
		}
		sort.SliceStable(page.Fragments, func(i, j int) bool {
			return page.Fragments[i].DepartureTime.After(page.Fragments[j].DepartureTime)
		})

		source.pages[page.URI] = page
	}

	return source
}

func (s *fakePageSource) FetchPageAt(ctx context.Context, t time.Time) (*ctdf.Page, error) {
	return s.FetchPage(ctx, fragments.PageURI(testBaseURL, t, s.granularity))
}

func (s *fakePageSource) FetchPage(ctx context.Context, uri string) (*ctdf.Page, error) {
	s.fetches++
	if err, exists := s.failOn[uri]; exists {
		return nil, err
	}

	page, exists := s.pages[uri]
	if !exists {
		return nil, &ctdf.NetworkError{URI: uri, StatusCode: 404}
	}
	return page, nil
}

func newTestPlanner(source fragments.PageSource) *Planner {
	directory := testStations()
	return NewPlanner(source, directory, footpath.NewModel(directory))
}

func scenarioSource() *fakePageSource {
	return newFakePageSource(at(12, 0), at(20, 0), 10*time.Minute, scenarioFragments())
}

type recordingStats struct {
	records []*PlanRecord
}

func (s *recordingStats) RecordPlan(record *PlanRecord) {
	s.records = append(s.records, record)
}

func TestPlanVilvoordeToBrugge(t *testing.T) {
	planner := newTestPlanner(scenarioSource())
	stats := &recordingStats{}
	planner.Stats = stats

	var states []State
	var progress []int
	var pages []string

	result, err := planner.Plan(context.Background(), &Request{
		Origin:         vilvoorde,
		Destination:    brugge,
		DepartureTime:  testDepartureTime,
		MaxTransfers:   4,
		OnStateChange:  func(state State) { states = append(states, state) },
		OnProgress:     func(percent int) { progress = append(progress, percent) },
		OnPageReceived: func(uri string) { pages = append(pages, uri) },
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Routes)
	assert.Nil(t, result.Unreachable())

	allowedTransferStations := []string{"Brussel-Noord", "Brussel-Zuid", "Gent-Sint-Pieters", "Schaarbeek", "Brussel-Centraal"}

	for _, route := range result.Routes {
		first := route.Transfers[0]
		last := route.Transfers[len(route.Transfers)-1]

		assert.Equal(t, "Vilvoorde", first.Station.NameIn(ctdf.LanguageDutch))
		assert.Equal(t, ctdf.TransferTypeDeparture, first.Type)
		assert.Equal(t, "Brugge", last.Station.NameIn(ctdf.LanguageDutch))
		assert.Equal(t, ctdf.TransferTypeArrival, last.Type)

		for _, transfer := range route.Transfers[1 : len(route.Transfers)-1] {
			assert.Equal(t, ctdf.TransferTypeTransfer, transfer.Type)
			assert.Contains(t, allowedTransferStations, transfer.Station.NameIn(ctdf.LanguageDutch))
		}
	}

	t.Run("pareto set", func(t *testing.T) {
		arrivals := map[int]time.Time{}
		for _, route := range result.Routes {
			arrivals[route.TransferCount] = route.ArrivalTime()
		}

		assert.Equal(t, map[int]time.Time{
			0: at(15, 30),
			1: at(14, 30),
			2: at(14, 25),
		}, arrivals)
	})

	t.Run("sorted by departure", func(t *testing.T) {
		for i := 1; i < len(result.Routes); i++ {
			assert.False(t, result.Routes[i].DepartureTime().Before(result.Routes[i-1].DepartureTime()))
		}
	})

	t.Run("round trip of arrival time", func(t *testing.T) {
		for _, route := range result.Routes {
			current := route.DepartureTime()
			for _, leg := range route.Legs {
				assert.False(t, leg.Departure.Time.Before(current), "leg departs before the previous leg arrived")

				if !leg.Footpath {
					require.NotEmpty(t, leg.Fragments)
					assert.Equal(t, leg.Departure.Time, leg.Fragments[0].DepartureTime)
					assert.Equal(t, leg.Arrival.Time, leg.Fragments[len(leg.Fragments)-1].ArrivalTime)

					for i := 1; i < len(leg.Fragments); i++ {
						assert.Equal(t, leg.Fragments[i-1].ArrivalStop, leg.Fragments[i].DepartureStop)
					}
				}

				current = leg.Departure.Time.Add(leg.Duration())
			}

			assert.Equal(t, route.ArrivalTime(), current)
		}
	})

	t.Run("states", func(t *testing.T) {
		assert.Equal(t, []State{
			StateIdle,
			StateCollectingFragments,
			StateScanning,
			StateReconstructing,
			StateDone,
		}, states)
	})

	t.Run("progress", func(t *testing.T) {
		require.NotEmpty(t, progress)
		assert.Equal(t, 100, progress[len(progress)-1])
		assert.Len(t, pages, result.Pages)
		assert.Equal(t, fragments.PageURI(testBaseURL, result.Horizon, 10*time.Minute), pages[0])
	})

	t.Run("stats", func(t *testing.T) {
		require.Len(t, stats.records, 1)
		assert.Equal(t, len(result.Routes), stats.records[0].Routes)
		assert.NoError(t, stats.records[0].Error)
	})
}

func TestPlanTransferBuffer(t *testing.T) {
	// IC5 leaves Brussel-Zuid two minutes after IC1 arrives
	tests := []struct {
		name            string
		transferBuffer  time.Duration
		expectedArrival time.Time
	}{
		{"default buffer misses IC5", footpath.DefaultIntraStopFootpath, at(14, 30)},
		{"two minutes catches IC5", 2 * time.Minute, at(14, 15)},
		{"no buffer catches IC5", 0, at(14, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := newTestPlanner(scenarioSource())
			planner.footpaths.IntraStopFootpath = tt.transferBuffer

			result, err := planner.Plan(context.Background(), &Request{
				Origin:        vilvoorde,
				Destination:   brugge,
				DepartureTime: testDepartureTime,
				MaxTransfers:  4,
			})
			require.NoError(t, err)

			var oneTransfer *ctdf.Route
			for _, route := range result.Routes {
				if route.TransferCount == 1 {
					oneTransfer = route
				}
			}
			require.NotNil(t, oneTransfer)
			assert.Equal(t, tt.expectedArrival, oneTransfer.ArrivalTime())
		})
	}
}

func TestPlanEqualArrivalPrefersEarlierDeparture(t *testing.T) {
	// Both trains reach Brugge at 14:00 without a transfer, the scan meets the later departure first
	tied := []*ctdf.Fragment{
		connection("S1", vilvoorde, schaarbeek, at(13, 5), at(13, 15)),
		connection("S1", schaarbeek, brugge, at(13, 25), at(14, 0)),
		connection("IC9", vilvoorde, brugge, at(13, 20), at(14, 0)),
	}

	planner := newTestPlanner(newFakePageSource(at(12, 0), at(20, 0), 10*time.Minute, tied))

	result, err := planner.Plan(context.Background(), &Request{
		Origin:        vilvoorde,
		Destination:   brugge,
		DepartureTime: testDepartureTime,
		MaxTransfers:  4,
	})
	require.NoError(t, err)

	require.Len(t, result.Routes, 1)
	route := result.Routes[0]
	assert.Equal(t, 0, route.TransferCount)
	assert.Equal(t, at(13, 5), route.DepartureTime())
	assert.Equal(t, at(14, 0), route.ArrivalTime())
	require.Len(t, route.Legs, 1)
	assert.Equal(t, "http://irail.be/vehicle/S1/20180802", route.Legs[0].TripID)
}

func TestPlanLocalisedStationNames(t *testing.T) {
	planner := newTestPlanner(scenarioSource())

	result, err := planner.Plan(context.Background(), &Request{
		Origin:        vilvoorde,
		Destination:   brugge,
		DepartureTime: testDepartureTime,
		MaxTransfers:  0,
		Language:      ctdf.LanguageFrench,
	})
	require.NoError(t, err)

	assert.Equal(t, ctdf.LanguageFrench, result.Language)
	require.Len(t, result.Routes, 1)

	transfers := result.Routes[0].Transfers
	require.Len(t, transfers, 2)
	assert.Equal(t, "Vilvorde", transfers[0].StationName)
	assert.Equal(t, "Bruges", transfers[1].StationName)
}

func TestPlanMaxTransfers(t *testing.T) {
	planner := newTestPlanner(scenarioSource())

	routes := []*ctdf.Route{}
	for route, err := range planner.Routes(context.Background(), &Request{
		Origin:        vilvoorde,
		Destination:   brugge,
		DepartureTime: testDepartureTime,
		MaxTransfers:  0,
	}) {
		require.NoError(t, err)
		routes = append(routes, route)
	}

	require.Len(t, routes, 1)
	assert.Equal(t, 0, routes[0].TransferCount)
	assert.Equal(t, at(15, 30), routes[0].ArrivalTime())
	require.Len(t, routes[0].Legs, 1)
	assert.Len(t, routes[0].Legs[0].Fragments, 3)
	assert.Equal(t, "http://irail.be/vehicle/L1/20180802", routes[0].Legs[0].TripID)
}

func TestPlanUnreachable(t *testing.T) {
	planner := newTestPlanner(scenarioSource())

	result, err := planner.Plan(context.Background(), &Request{
		Origin:        vilvoorde,
		Destination:   amsterdam,
		DepartureTime: testDepartureTime,
		MaxTransfers:  4,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Routes)

	var unreachable *ctdf.UnreachableDestinationError
	require.True(t, errors.As(result.Unreachable(), &unreachable))
	assert.Equal(t, amsterdam, unreachable.Destination)

	count := 0
	for _, err := range planner.Routes(context.Background(), &Request{
		Origin:        vilvoorde,
		Destination:   amsterdam,
		DepartureTime: testDepartureTime,
		MaxTransfers:  4,
	}) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

func TestPlanNotBoardable(t *testing.T) {
	scenario := scenarioFragments()
	for _, fragment := range scenario {
		if fragment.Direction == "L1" && fragment.DepartureStop == vilvoorde {
			fragment.PickupType = ctdf.GTFSPickupDropOffTypeNotAvailable
		}
	}

	planner := newTestPlanner(newFakePageSource(at(12, 0), at(20, 0), 10*time.Minute, scenario))

	result, err := planner.Plan(context.Background(), &Request{
		Origin:        vilvoorde,
		Destination:   brugge,
		DepartureTime: testDepartureTime,
		MaxTransfers:  0,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Routes)
}

func TestPlanErrors(t *testing.T) {
	t.Run("incomplete data", func(t *testing.T) {
		planner := newTestPlanner(scenarioSource())

		var states []State
		_, err := planner.Plan(context.Background(), &Request{
			Origin:        vilvoorde,
			Destination:   brugge,
			DepartureTime: testDepartureTime,
			MaxTransfers:  4,
			MaxPages:      3,
			OnStateChange: func(state State) { states = append(states, state) },
		})

		var incomplete *ctdf.IncompleteDataError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, 3, incomplete.Pages)
		assert.Equal(t, StateError, states[len(states)-1])
	})

	t.Run("fetch error aborts the request", func(t *testing.T) {
		source := scenarioSource()
		failing := fragments.PageURI(testBaseURL, at(14, 0), 10*time.Minute)
		source.failOn[failing] = &ctdf.NetworkError{URI: failing, StatusCode: 503}

		planner := newTestPlanner(source)

		var states []State
		var routes int
		var errs []error
		for _, err := range planner.Routes(context.Background(), &Request{
			Origin:        vilvoorde,
			Destination:   brugge,
			DepartureTime: testDepartureTime,
			MaxTransfers:  4,
			OnStateChange: func(state State) { states = append(states, state) },
		}) {
			if err != nil {
				errs = append(errs, err)
			} else {
				routes++
			}
		}

		assert.Zero(t, routes)
		require.Len(t, errs, 1)

		var networkError *ctdf.NetworkError
		assert.True(t, errors.As(errs[0], &networkError))
		assert.Equal(t, []State{StateIdle, StateCollectingFragments, StateError}, states)
	})

	t.Run("cancelled", func(t *testing.T) {
		planner := newTestPlanner(scenarioSource())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := planner.Plan(ctx, &Request{
			Origin:        vilvoorde,
			Destination:   brugge,
			DepartureTime: testDepartureTime,
			MaxTransfers:  4,
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown station", func(t *testing.T) {
		planner := newTestPlanner(scenarioSource())

		_, err := planner.Plan(context.Background(), &Request{
			Origin:        "http://irail.be/stations/NMBS/000000000",
			Destination:   brugge,
			DepartureTime: testDepartureTime,
		})

		var notFound *ctdf.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	invalidRequests := []struct {
		name    string
		request *Request
		field   string
	}{
		{"missing origin", &Request{Destination: brugge, DepartureTime: testDepartureTime}, "origin"},
		{"missing destination", &Request{Origin: vilvoorde, DepartureTime: testDepartureTime}, "destination"},
		{"same station", &Request{Origin: vilvoorde, Destination: vilvoorde, DepartureTime: testDepartureTime}, "destination"},
		{"missing time", &Request{Origin: vilvoorde, Destination: brugge}, "departureTime"},
		{"negative transfers", &Request{Origin: vilvoorde, Destination: brugge, DepartureTime: testDepartureTime, MaxTransfers: -1}, "maxTransfers"},
	}

	for _, test := range invalidRequests {
		t.Run(test.name, func(t *testing.T) {
			planner := newTestPlanner(scenarioSource())

			_, err := planner.Plan(context.Background(), test.request)

			var invalid *ctdf.InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, test.field, invalid.Field)
		})
	}
}

func TestScanLabels(t *testing.T) {
	planner := newTestPlanner(scenarioSource())
	request := &Request{
		Origin:        vilvoorde,
		Destination:   brugge,
		DepartureTime: testDepartureTime,
		MaxTransfers:  4,
	}

	collected, _, err := planner.collect(context.Background(), request, ArrivalHorizon(testDepartureTime))
	require.NoError(t, err)

	t.Run("ascending after collection", func(t *testing.T) {
		for i := 1; i < len(collected); i++ {
			assert.False(t, collected[i].DepartureTime.Before(collected[i-1].DepartureTime))
		}
		assert.Len(t, collected, len(scenarioFragments()))
	})

	scanner := newScan(planner, request)
	require.NoError(t, scanner.run(context.Background(), collected))

	t.Run("origin keeps the departure time", func(t *testing.T) {
		origin := scanner.labels[vilvoorde]
		require.NotNil(t, origin[0])
		assert.Equal(t, testDepartureTime, origin[0].arrival)
		assert.Zero(t, origin[0].transfers())

		for _, other := range origin[1:] {
			assert.Nil(t, other)
		}
	})

	t.Run("no label dominates another at the same station", func(t *testing.T) {
		for station, labels := range scanner.labels {
			for i, a := range labels {
				for _, b := range labels[i+1:] {
					if a == nil || b == nil {
						continue
					}
					assert.True(t, b.arrival.Before(a.arrival), "dominated label kept at %s", station)
				}
			}
		}
	})
}

func TestArrivalHorizon(t *testing.T) {
	brussels, err := time.LoadLocation("Europe/Brussels")
	require.NoError(t, err)

	tests := []struct {
		hour     int
		expected time.Duration
	}{
		{0, 8 * time.Hour},
		{2, 6 * time.Hour},
		{4, 5 * time.Hour},
		{13, 5 * time.Hour},
		{18, 5 * time.Hour},
		{19, 6 * time.Hour},
		{22, 6 * time.Hour},
		{23, 8 * time.Hour},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%02d:00", test.hour), func(t *testing.T) {
			departure := time.Date(2018, 8, 2, test.hour, 0, 0, 0, brussels)
			assert.Equal(t, departure.Add(test.expected), ArrivalHorizon(departure))
		})
	}

	t.Run("bands follow Belgian local time", func(t *testing.T) {
		// 17:30 UTC is 19:30 in Brussels during summer time
		departure := time.Date(2018, 8, 2, 17, 30, 0, 0, time.UTC)
		assert.Equal(t, departure.Add(6*time.Hour), ArrivalHorizon(departure))

		// 22:30 UTC is 23:30 in Brussels during winter time
		departure = time.Date(2018, 12, 2, 22, 30, 0, 0, time.UTC)
		assert.Equal(t, departure.Add(8*time.Hour), ArrivalHorizon(departure))
	})
}
