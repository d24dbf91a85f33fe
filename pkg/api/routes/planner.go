package routes

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/planner"
	"github.com/travigo/lcplanner/pkg/services"
)

func PlannerRouter(router fiber.Router, routePlanner *planner.Planner, defaultMaxTransfers int) {
	router.Get("/:origin/:destination", func(c *fiber.Ctx) error {
		return getPlanBetweenStations(c, routePlanner, defaultMaxTransfers)
	})
}

func getPlanBetweenStations(c *fiber.Ctx, routePlanner *planner.Planner, defaultMaxTransfers int) error {
	maxTransfers := defaultMaxTransfers
	if maxTransfersString := c.Query("maxTransfers"); maxTransfersString != "" {
		var err error
		maxTransfers, err = strconv.Atoi(maxTransfersString)
		if err != nil {
			return badRequest(c, "Parameter maxTransfers should be an integer")
		}
	}

	departureTime := time.Now()
	if departureTimeString := c.Query("datetime"); departureTimeString != "" {
		var err error
		departureTime, err = time.Parse(time.RFC3339, departureTimeString)
		if err != nil {
			return badRequest(c, "Parameter datetime should be an RFC3339/ISO8601 datetime")
		}
	}

	result, err := routePlanner.Plan(c.UserContext(), &planner.Request{
		Origin:        services.StationURI(c.Params("origin")),
		Destination:   services.StationURI(c.Params("destination")),
		DepartureTime: departureTime,
		MaxTransfers:  maxTransfers,
		Language:      ctdf.ParseLanguage(c.Query("lang")),
	})
	if err != nil {
		return sendError(c, err)
	}

	return sendReduced(c, result)
}
