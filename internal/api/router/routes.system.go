package router

import (
	basehdl "mini_crm/internal/api/base/handler"

	"github.com/gofiber/fiber/v3"
)

// RegisterSystem đăng ký /system/health. Route này không qua rate limiter (xem init.fiber.go).
func RegisterSystem(db basehdl.Pinger) RegisterFunc {
	return func(v1 fiber.Router, r *Router) error {
		h := basehdl.NewSystemHandler(db)
		RegisterRouteWithMiddleware(v1, "/system", fiber.MethodGet, "/health", nil, h.HandleHealth)
		return nil
	}
}
