// Package middleware chứa middleware dùng chung cho các route API.
package middleware

import (
	"time"

	"mini_crm/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// RequestContextMiddleware gắn request ID vào context của request để service và event hook
// ghi log cùng request ID.
func RequestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if rid := logger.RequestID(c); rid != "" {
			c.SetContext(logger.ContextWithRequestID(c.Context(), rid))
		}
		return c.Next()
	}
}

// AccessLogMiddleware ghi mỗi request: method, path, status, thời gian xử lý.
// Status >= 500 ghi mức error, >= 400 mức warn.
func AccessLogMiddleware(module string) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		entry := logger.WithRequest(c).WithFields(logrus.Fields{
			"module":      module,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry = entry.WithError(err)
		}
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request handled")
		}
		return err
	}
}
