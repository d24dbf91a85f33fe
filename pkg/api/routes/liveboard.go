package routes

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/lcplanner/pkg/config"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/liveboard"
	"github.com/travigo/lcplanner/pkg/services"
)

func LiveboardRouter(router fiber.Router, builder *liveboard.Builder) {
	router.Get("/:station", func(c *fiber.Ctx) error {
		return getLiveboard(c, builder)
	})
}

func getLiveboard(c *fiber.Ctx, builder *liveboard.Builder) error {
	query := liveboard.Query{
		Station:  services.StationURI(c.Params("station")),
		Mode:     ctdf.LiveboardModeDepartures,
		Filter:   c.Query("filter"),
		Language: ctdf.ParseLanguage(c.Query("lang")),
	}

	switch strings.ToLower(c.Query("mode", "departures")) {
	case "departures":
	case "arrivals":
		query.Mode = ctdf.LiveboardModeArrivals
	default:
		return badRequest(c, "Parameter mode should be departures or arrivals")
	}

	var err error
	if from := c.Query("from"); from != "" {
		if query.From, err = time.Parse(time.RFC3339, from); err != nil {
			return badRequest(c, "Parameter from should be an RFC3339/ISO8601 datetime")
		}
	}

	if until := c.Query("until"); until != "" {
		if query.Until, err = time.Parse(time.RFC3339, until); err != nil {
			return badRequest(c, "Parameter until should be an RFC3339/ISO8601 datetime")
		}
	} else if window := c.Query("window"); window != "" {
		windowDuration, err := config.ParseDuration(window)
		if err != nil || windowDuration <= 0 {
			return badRequest(c, "Parameter window should be a positive ISO8601 duration")
		}

		from := query.From
		if from.IsZero() {
			from = time.Now()
			query.From = from
		}
		query.Until = from.Add(windowDuration)
	}

	board, err := builder.Get(c.UserContext(), query)
	if err != nil {
		return sendError(c, err)
	}

	return sendReduced(c, board)
}
