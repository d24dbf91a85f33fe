package routes

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/services"
	"github.com/travigo/lcplanner/pkg/vehicles"
)

func VehiclesRouter(router fiber.Router, directory *vehicles.Directory) {
	router.Get("/*", func(c *fiber.Ctx) error {
		identifier, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return badRequest(c, "Vehicle identifier is not correctly escaped")
		}

		vehicle, err := directory.Get(c.UserContext(), services.VehicleURI(identifier), ctdf.ParseLanguage(c.Query("lang")))
		if err != nil {
			return sendError(c, err)
		}

		return sendReduced(c, vehicle)
	})
}
