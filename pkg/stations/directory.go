package stations

import (
	"context"

	"github.com/travigo/lcplanner/pkg/ctdf"
)

// Directory resolves station URIs. Lookups of unknown stations return a *ctdf.NotFoundError.
type Directory interface {
	Get(ctx context.Context, uri string) (*ctdf.Station, error)
	Nearby(ctx context.Context, location *ctdf.Location, radiusKm float64, limit int) ([]*ctdf.Station, error)
}
