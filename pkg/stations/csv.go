package stations

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

// stationRecord is a row of the iRail stations.csv file
type stationRecord struct {
	URI                  string `csv:"URI"`
	Name                 string `csv:"name"`
	AlternativeFR        string `csv:"alternative-fr"`
	AlternativeNL        string `csv:"alternative-nl"`
	AlternativeDE        string `csv:"alternative-de"`
	AlternativeEN        string `csv:"alternative-en"`
	CountryCode          string `csv:"country-code"`
	Longitude            string `csv:"longitude"`
	Latitude             string `csv:"latitude"`
	AverageStopTimes     string `csv:"avg_stop_times"`
	OfficialTransferTime string `csv:"official_transfer_time"`
}

// facilityRecord is a row of the iRail facilities.csv file
type facilityRecord struct {
	URI                  string `csv:"URI"`
	Street               string `csv:"street"`
	ZIP                  string `csv:"zip"`
	City                 string `csv:"city"`
	TicketVendingMachine string `csv:"ticket_vending_machine"`
	LuggageLockers       string `csv:"luggage_lockers"`
	FreeParking          string `csv:"free_parking"`
	Taxi                 string `csv:"taxi"`
	BicycleSpots         string `csv:"bicycle_spots"`
	BlueBike             string `csv:"blue-bike"`
	Bus                  string `csv:"bus"`
	Tram                 string `csv:"tram"`
	Metro                string `csv:"metro"`
	WheelchairAvailable  string `csv:"wheelchair_available"`
	Ramp                 string `csv:"ramp"`
	DisabledParkingSpots string `csv:"disabled_parking_spots"`
	ElevatedPlatform     string `csv:"elevated_platform"`
	EscalatorUp          string `csv:"escalator_up"`
	EscalatorDown        string `csv:"escalator_down"`
	ElevatorPlatform     string `csv:"elevator_platform"`
	HearingAidSignal     string `csv:"audio_induction_loop"`
	SalesOpenMonday      string `csv:"sales_open_monday"`
	SalesCloseMonday     string `csv:"sales_close_monday"`
	SalesOpenTuesday     string `csv:"sales_open_tuesday"`
	SalesCloseTuesday    string `csv:"sales_close_tuesday"`
	SalesOpenWednesday   string `csv:"sales_open_wednesday"`
	SalesCloseWednesday  string `csv:"sales_close_wednesday"`
	SalesOpenThursday    string `csv:"sales_open_thursday"`
	SalesCloseThursday   string `csv:"sales_close_thursday"`
	SalesOpenFriday      string `csv:"sales_open_friday"`
	SalesCloseFriday     string `csv:"sales_close_friday"`
	SalesOpenSaturday    string `csv:"sales_open_saturday"`
	SalesCloseSaturday   string `csv:"sales_close_saturday"`
	SalesOpenSunday      string `csv:"sales_open_sunday"`
	SalesCloseSunday     string `csv:"sales_close_sunday"`
}

// stopRecord is a row of the iRail stops.csv file, one per platform
type stopRecord struct {
	URI        string `csv:"URI"`
	ParentStop string `csv:"parent_stop"`
	Longitude  string `csv:"longitude"`
	Latitude   string `csv:"latitude"`
	Name       string `csv:"name"`
	Platform   string `csv:"platform"`
}

func readCSV(in io.Reader, out interface{}) error {
	// Allow rows with missing trailing columns
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	return gocsv.UnmarshalCSV(reader, out)
}

// LoadCSV builds stations from the iRail stations, facilities and stops files.
// facilities and stops are optional.
func LoadCSV(stationsFile io.Reader, facilitiesFile io.Reader, stopsFile io.Reader) ([]*ctdf.Station, error) {
	var stationRecords []*stationRecord
	if err := readCSV(stationsFile, &stationRecords); err != nil {
		return nil, fmt.Errorf("reading stations: %w", err)
	}

	facilities := map[string]*facilityRecord{}
	if facilitiesFile != nil {
		var facilityRecords []*facilityRecord
		if err := readCSV(facilitiesFile, &facilityRecords); err != nil {
			return nil, fmt.Errorf("reading facilities: %w", err)
		}
		for _, record := range facilityRecords {
			facilities[record.URI] = record
		}
	}

	platforms := map[string]map[string]string{}
	if stopsFile != nil {
		var stopRecords []*stopRecord
		if err := readCSV(stopsFile, &stopRecords); err != nil {
			return nil, fmt.Errorf("reading stops: %w", err)
		}
		for _, record := range stopRecords {
			if !strings.HasPrefix(record.URI, "http") {
				continue
			}
			if platforms[record.ParentStop] == nil {
				platforms[record.ParentStop] = map[string]string{}
			}
			platforms[record.ParentStop][record.URI] = record.Platform
		}
	}

	stations := make([]*ctdf.Station, 0, len(stationRecords))
	for _, record := range stationRecords {
		if !strings.HasPrefix(record.URI, "http") {
			continue
		}

		station, err := record.toStation()
		if err != nil {
			log.Error().Err(err).Str("uri", record.URI).Msg("Skipping station")
			continue
		}

		if facility, exists := facilities[record.URI]; exists {
			station.Facilities = facility.toFacilities()
		}
		station.Platforms = platforms[record.URI]

		stations = append(stations, station)
	}

	log.Info().Int("stations", len(stations)).Int("facilities", len(facilities)).Msg("Loaded station CSV data")

	return stations, nil
}

func (r *stationRecord) toStation() (*ctdf.Station, error) {
	longitude, err := strconv.ParseFloat(r.Longitude, 64)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	latitude, err := strconv.ParseFloat(r.Latitude, 64)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}

	station := &ctdf.Station{
		ID:          r.URI,
		DefaultName: r.Name,
		Name: map[ctdf.Language]string{
			ctdf.LanguageDefault: r.Name,
			ctdf.LanguageFrench:  r.AlternativeFR,
			ctdf.LanguageDutch:   r.AlternativeNL,
			ctdf.LanguageGerman:  r.AlternativeDE,
			ctdf.LanguageEnglish: r.AlternativeEN,
		},
		Country:  ctdf.ParseCountry(r.CountryCode),
		Location: ctdf.NewLocation(longitude, latitude),
	}
	station.FillNames()

	if averageStopTimes, err := strconv.ParseFloat(r.AverageStopTimes, 64); err == nil {
		station.AverageStopTimes = averageStopTimes
	}
	if transferSeconds, err := strconv.Atoi(r.OfficialTransferTime); err == nil {
		station.OfficialTransferTime = time.Duration(transferSeconds) * time.Second
	}

	return station, nil
}

func (r *facilityRecord) toFacilities() *ctdf.StationFacilities {
	facilities := ctdf.NewStationFacilities(r.Street, r.ZIP, r.City)
	if facilities == nil {
		return nil
	}

	facilities.TicketVendingMachine = csvFlag(r.TicketVendingMachine)
	facilities.LuggageLockers = csvFlag(r.LuggageLockers)
	facilities.FreeParking = csvFlag(r.FreeParking)
	facilities.Taxi = csvFlag(r.Taxi)
	facilities.BicycleSpots = csvFlag(r.BicycleSpots)
	facilities.BlueBike = csvFlag(r.BlueBike)
	facilities.Bus = csvFlag(r.Bus)
	facilities.Tram = csvFlag(r.Tram)
	facilities.Metro = csvFlag(r.Metro)
	facilities.WheelchairAvailable = csvFlag(r.WheelchairAvailable)
	facilities.Ramp = csvFlag(r.Ramp)
	facilities.DisabledParkingSpots, _ = strconv.Atoi(r.DisabledParkingSpots)
	facilities.ElevatedPlatform = csvFlag(r.ElevatedPlatform)
	facilities.EscalatorUp = csvFlag(r.EscalatorUp)
	facilities.EscalatorDown = csvFlag(r.EscalatorDown)
	facilities.ElevatorPlatform = csvFlag(r.ElevatorPlatform)
	facilities.HearingAidSignal = csvFlag(r.HearingAidSignal)

	openingHours := []struct {
		day   time.Weekday
		open  string
		close string
	}{
		{time.Monday, r.SalesOpenMonday, r.SalesCloseMonday},
		{time.Tuesday, r.SalesOpenTuesday, r.SalesCloseTuesday},
		{time.Wednesday, r.SalesOpenWednesday, r.SalesCloseWednesday},
		{time.Thursday, r.SalesOpenThursday, r.SalesCloseThursday},
		{time.Friday, r.SalesOpenFriday, r.SalesCloseFriday},
		{time.Saturday, r.SalesOpenSaturday, r.SalesCloseSaturday},
		{time.Sunday, r.SalesOpenSunday, r.SalesCloseSunday},
	}
	for _, hours := range openingHours {
		if hours.open == "" || hours.close == "" {
			continue
		}
		facilities.OpeningHours[hours.day] = ctdf.OpeningHours{Open: hours.open, Close: hours.close}
	}

	return facilities
}

func csvFlag(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != "0"
}
