package routes

import "github.com/gofiber/fiber/v2"

const Version = "v1.0"

// VersionRouter reports the API version and the Linked Connections source it plans on
func VersionRouter(router fiber.Router, sourceURL string) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version": Version,
			"source":  sourceURL,
		})
	})
}
