package ctdf

import (
	"encoding/json"
	"strings"
	"time"
)

type Language string

const (
	LanguageDefault Language = "default"
	LanguageFrench  Language = "fr"
	LanguageDutch   Language = "nl"
	LanguageGerman  Language = "de"
	LanguageEnglish Language = "en"
)

var SupportedLanguages = []Language{LanguageDefault, LanguageFrench, LanguageDutch, LanguageGerman, LanguageEnglish}

func ParseLanguage(value string) Language {
	switch Language(strings.ToLower(value)) {
	case LanguageFrench:
		return LanguageFrench
	case LanguageDutch:
		return LanguageDutch
	case LanguageGerman:
		return LanguageGerman
	case LanguageEnglish:
		return LanguageEnglish
	default:
		return LanguageDefault
	}
}

type Country string

const (
	CountryBelgium        Country = "be"
	CountryNetherlands    Country = "nl"
	CountryUnitedKingdom  Country = "gb"
	CountryLuxembourg     Country = "lu"
	CountrySwitzerland    Country = "ch"
	CountryFrance         Country = "fr"
	CountryGermany        Country = "de"
	defaultStationCountry         = CountryBelgium
)

func ParseCountry(code string) Country {
	switch Country(strings.ToLower(strings.TrimSpace(code))) {
	case CountryNetherlands:
		return CountryNetherlands
	case CountryUnitedKingdom:
		return CountryUnitedKingdom
	case CountryLuxembourg:
		return CountryLuxembourg
	case CountrySwitzerland:
		return CountrySwitzerland
	case CountryFrance:
		return CountryFrance
	case CountryGermany:
		return CountryGermany
	default:
		return defaultStationCountry
	}
}

type Station struct {
	ID string `groups:"basic" bson:"id"`

	DefaultName string              `groups:"basic" bson:"defaultname"`
	Name        map[Language]string `groups:"basic" bson:"name"`

	Country  Country   `groups:"basic" bson:"country"`
	Location *Location `groups:"basic" bson:"location"`

	Facilities *StationFacilities `groups:"detailed" bson:"facilities,omitempty"`

	AverageStopTimes     float64       `groups:"detailed" bson:"averagestoptimes"`
	OfficialTransferTime time.Duration `groups:"detailed" bson:"officialtransfertime"`

	// Platform URI to platform code
	Platforms map[string]string `groups:"detailed" bson:"platforms"`
}

// FillNames makes sure every supported language has a name, using the default name when a translation is missing
func (s *Station) FillNames() {
	if s.Name == nil {
		s.Name = map[Language]string{}
	}
	if s.DefaultName == "" {
		s.DefaultName = s.Name[LanguageDefault]
	}

	for _, language := range SupportedLanguages {
		if s.Name[language] == "" {
			s.Name[language] = s.DefaultName
		}
	}
}

func (s *Station) NameIn(language Language) string {
	if name := s.Name[language]; name != "" {
		return name
	}
	return s.DefaultName
}

func (s *Station) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

func (s *Station) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

type StationFacilities struct {
	Street string `groups:"detailed" bson:"street"`
	ZIP    string `groups:"detailed" bson:"zip"`
	City   string `groups:"detailed" bson:"city"`

	TicketVendingMachine bool `groups:"detailed" bson:"ticketvendingmachine"`
	LuggageLockers       bool `groups:"detailed" bson:"luggagelockers"`
	FreeParking          bool `groups:"detailed" bson:"freeparking"`
	Taxi                 bool `groups:"detailed" bson:"taxi"`
	BicycleSpots         bool `groups:"detailed" bson:"bicyclespots"`
	BlueBike             bool `groups:"detailed" bson:"bluebike"`
	Bus                  bool `groups:"detailed" bson:"bus"`
	Tram                 bool `groups:"detailed" bson:"tram"`
	Metro                bool `groups:"detailed" bson:"metro"`
	WheelchairAvailable  bool `groups:"detailed" bson:"wheelchairavailable"`
	Ramp                 bool `groups:"detailed" bson:"ramp"`
	DisabledParkingSpots int  `groups:"detailed" bson:"disabledparkingspots"`
	ElevatedPlatform     bool `groups:"detailed" bson:"elevatedplatform"`
	EscalatorUp          bool `groups:"detailed" bson:"escalatorup"`
	EscalatorDown        bool `groups:"detailed" bson:"escalatordown"`
	ElevatorPlatform     bool `groups:"detailed" bson:"elevatorplatform"`
	HearingAidSignal     bool `groups:"detailed" bson:"hearingaidsignal"`

	OpeningHours map[time.Weekday]OpeningHours `groups:"detailed" bson:"openinghours"`
}

// OpeningHours holds the ticket office window for one weekday in "15:04" format
type OpeningHours struct {
	Open  string `groups:"detailed" bson:"open"`
	Close string `groups:"detailed" bson:"close"`
}

// NewStationFacilities returns nil unless the street, zip and city are all known
func NewStationFacilities(street string, zip string, city string) *StationFacilities {
	if street == "" || zip == "" || city == "" {
		return nil
	}

	return &StationFacilities{
		Street:       street,
		ZIP:          zip,
		City:         city,
		OpeningHours: map[time.Weekday]OpeningHours{},
	}
}
