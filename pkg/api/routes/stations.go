package routes

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/footpath"
	"github.com/travigo/lcplanner/pkg/services"
	"github.com/travigo/lcplanner/pkg/stations"
)

type nearbyStation struct {
	Station  *ctdf.Station `groups:"basic"`
	Distance float64       `groups:"basic"`
	Walking  string        `groups:"basic"`
}

func StationsRouter(router fiber.Router, directory stations.Directory, footpaths *footpath.Model) {
	router.Get("/*", func(c *fiber.Ctx) error {
		identifier, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return badRequest(c, "Station identifier is not correctly escaped")
		}

		station, err := directory.Get(c.UserContext(), services.StationURI(identifier))
		if err != nil {
			return sendError(c, err)
		}

		if !c.QueryBool("nearby") {
			return sendReduced(c, station)
		}

		profiles, err := footpaths.Nearby(c.UserContext(), station)
		if err != nil {
			return sendError(c, err)
		}

		nearby := []nearbyStation{}
		for _, profile := range profiles {
			nearby = append(nearby, nearbyStation{
				Station:  profile.Departure,
				Distance: profile.Distance,
				Walking:  profile.Duration.String(),
			})
		}

		return sendReduced(c, struct {
			Station *ctdf.Station   `groups:"basic"`
			Nearby  []nearbyStation `groups:"basic"`
		}{
			Station: station,
			Nearby:  nearby,
		})
	})
}
