package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/util"
)

const maxUserAgentLength = 120

func requestLogLevel(status int) zerolog.Level {
	switch {
	case status >= fiber.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= fiber.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func clientIP(c *fiber.Ctx) string {
	if cloudflareConnectingIP := c.Get("CF-Connecting-IP"); cloudflareConnectingIP != "" {
		return cloudflareConnectingIP
	}

	return c.IP()
}

// NewLogger logs every request once it has been handled, warning on 4xx and erroring on 5xx
func NewLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()
		err := c.Next()

		msg := "HTTP Request"
		if err != nil {
			msg = err.Error()
		}

		status := c.Response().StatusCode()

		log.WithLevel(requestLogLevel(status)).
			Int("status", status).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("query", string(c.Request().URI().QueryString())).
			Str("ip", clientIP(c)).
			Dur("latency", time.Since(startTime)).
			Int("bytes", len(c.Response().Body())).
			Str("user-agent", util.TrimString(c.Get(fiber.HeaderUserAgent), maxUserAgentLength)).
			Msg(msg)

		return err
	}
}
