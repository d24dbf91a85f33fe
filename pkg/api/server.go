package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/lcplanner/pkg/api/routes"
	"github.com/travigo/lcplanner/pkg/services"
)

func NewApp(s *services.Services) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	group := webApp.Group("/lc")

	routes.VersionRouter(group.Group("/version"), s.Config.Source.BaseURL)

	routes.PlannerRouter(group.Group("/planner"), s.Planner, s.Config.Planner.MaxTransfers)
	routes.LiveboardRouter(group.Group("/liveboard"), s.Liveboard)
	routes.VehiclesRouter(group.Group("/vehicles"), s.Vehicles)
	routes.StationsRouter(group.Group("/stations"), s.Stations, s.Footpaths)
	routes.StatsRouter(group.Group("/stats"), s.Records)

	return webApp
}

func SetupServer(listen string, s *services.Services) error {
	return NewApp(s).Listen(listen)
}
