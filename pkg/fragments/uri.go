package fragments

import (
	"strings"
	"time"

	"github.com/travigo/lcplanner/pkg/util"
)

// PageURI returns the canonical page URI holding departures at t.
// Pages are published on departure time boundaries, so t is floored to the granularity of the source.
func PageURI(baseURL string, t time.Time, granularity time.Duration) string {
	separator := "?"
	if strings.Contains(baseURL, "?") {
		separator = "&"
	}

	return baseURL + separator + "departureTime=" + util.FormatLinkedConnectionsTime(util.FloorTime(t, granularity))
}
