package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/lcplanner/pkg/stats"
)

func StatsRouter(router fiber.Router, records *stats.RecordsStats) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(records.Snapshot())
	})
}
