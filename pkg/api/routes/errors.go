package routes

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

func errorStatus(err error) int {
	var invalidInputError *ctdf.InvalidInputError
	var notFoundError *ctdf.NotFoundError
	var networkError *ctdf.NetworkError
	var parseError *ctdf.ParseError
	var incompleteDataError *ctdf.IncompleteDataError

	switch {
	case errors.As(err, &invalidInputError):
		return fiber.StatusBadRequest
	case errors.As(err, &notFoundError):
		return fiber.StatusNotFound
	case errors.As(err, &incompleteDataError), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &networkError), errors.As(err, &parseError):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, err error) error {
	c.Status(errorStatus(err))
	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	c.Status(fiber.StatusBadRequest)
	return c.JSON(fiber.Map{
		"error": message,
	})
}

// sendReduced writes value keeping only the basic fields, or the detailed ones too when ?detailed=true is set
func sendReduced(c *fiber.Ctx, value interface{}) error {
	groups := []string{"basic"}
	if c.QueryBool("detailed") {
		groups = append(groups, "detailed")
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, value)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sheriff could not reduce response",
		})
	}

	return c.JSON(reduced)
}
