package basehdl

import (
	"context"
	"time"

	"mini_crm/internal/common"

	"github.com/gofiber/fiber/v3"
)

// Pinger kiểm tra kết nối tới store (database.Handle)
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler xử lý các route liên quan đến system operations
type SystemHandler struct {
	db Pinger
}

// NewSystemHandler tạo một instance mới của SystemHandler
func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db}
}

// HandleHealth kiểm tra tình trạng hệ thống, 503 khi MongoDB không phản hồi
func (h *SystemHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	services := fiber.Map{"api": "ok"}
	healthData := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  services,
	}

	if h.db == nil {
		healthData["status"] = "degraded"
		services["database"] = "not_initialized"
		return JSONResponse(c, common.StatusServiceUnavailable, fiber.Map{"success": false, "data": healthData, "error": common.MsgServiceUnavailable})
	}
	if err := h.db.Ping(ctx); err != nil {
		healthData["status"] = "degraded"
		services["database"] = "error"
		healthData["database_error"] = err.Error()
		return JSONResponse(c, common.StatusServiceUnavailable, fiber.Map{"success": false, "data": healthData, "error": common.MsgServiceUnavailable})
	}

	services["database"] = "ok"
	return Success(c, common.StatusOK, healthData)
}
