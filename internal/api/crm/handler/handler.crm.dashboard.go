package crmhdl

import (
	basehdl "mini_crm/internal/api/base/handler"
	crmvc "mini_crm/internal/api/crm/service"
	"mini_crm/internal/common"

	"github.com/gofiber/fiber/v3"
)

// CrmDashboardHandler xử lý /dashboard.
type CrmDashboardHandler struct {
	Manager *crmvc.CrmManager
}

func NewCrmDashboardHandler(m *crmvc.CrmManager) *CrmDashboardHandler {
	return &CrmDashboardHandler{Manager: m}
}

// HandleStats xử lý GET /dashboard/stats
func (h *CrmDashboardHandler) HandleStats(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		stats, err := h.Manager.DashboardStats(c.Context())
		if err != nil {
			return err
		}
		return basehdl.Success(c, common.StatusOK, stats)
	})
}
