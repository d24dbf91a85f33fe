package ctdf

import "math"

const earthRadiusKm = 6371.0

// Location is a GeoJSON point, coordinates are stored as [longitude, latitude]
type Location struct {
	Type        string    `json:"-" groups:"basic" bson:"type"`
	Coordinates []float64 `json:"coordinates" groups:"basic" bson:"coordinates"`
}

func NewLocation(longitude float64, latitude float64) *Location {
	return &Location{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}

func (l *Location) Longitude() float64 {
	if l == nil || len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[0]
}

func (l *Location) Latitude() float64 {
	if l == nil || len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}

func (l *Location) Valid() bool {
	return l != nil && len(l.Coordinates) == 2
}

// Distance returns the great-circle distance in kilometres using the haversine formula
func (l *Location) Distance(other *Location) float64 {
	lat1 := degreesToRadians(l.Latitude())
	lat2 := degreesToRadians(other.Latitude())
	deltaLat := lat2 - lat1
	deltaLon := degreesToRadians(other.Longitude() - l.Longitude())

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
