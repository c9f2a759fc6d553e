package crmhdl

import (
	basehdl "mini_crm/internal/api/base/handler"
	crmdto "mini_crm/internal/api/crm/dto"
	crmvc "mini_crm/internal/api/crm/service"
	"mini_crm/internal/common"
	"mini_crm/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// CrmActivityHandler xử lý /activities.
type CrmActivityHandler struct {
	Manager *crmvc.CrmManager
}

// NewCrmActivityHandler tạo CrmActivityHandler mới.
func NewCrmActivityHandler(m *crmvc.CrmManager) *CrmActivityHandler {
	return &CrmActivityHandler{Manager: m}
}

// HandleList xử lý GET /activities?customerId=&type=&status=&page=&limit=
func (h *CrmActivityHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		q, err := crmdto.ParseActivityListQuery(func(key string) string { return c.Query(key) })
		if err != nil {
			return err
		}
		filter := crmvc.ActivityFilter{CustomerID: q.CustomerID, Type: q.Type, Status: q.Status}
		result, err := h.Manager.ListActivities(c.Context(), filter, q.Page, q.Limit)
		if err != nil {
			return err
		}
		return basehdl.SuccessPage(c, result)
	})
}

// HandleGet xử lý GET /activities/:id
func (h *CrmActivityHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		id, err := basehdl.ParseIDParam(c, "id")
		if err != nil {
			return err
		}
		activity, err := h.Manager.GetActivity(c.Context(), id)
		if err != nil {
			return err
		}
		return basehdl.Success(c, common.StatusOK, activity)
	})
}

// HandleCreate xử lý POST /activities. Khách không tồn tại trả 404 "Customer not found".
func (h *CrmActivityHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		input, err := crmdto.ParseActivityInput(c.Body())
		if err != nil {
			return err
		}
		activity, err := h.Manager.CreateActivity(c.Context(), input)
		if err != nil {
			return err
		}
		logger.LogCRUD("create", "activity", activity.ID.Hex(), c, map[string]interface{}{"type": activity.Type})
		return basehdl.Success(c, common.StatusCreated, activity)
	})
}

// HandleUpdate xử lý PUT /activities/:id
func (h *CrmActivityHandler) HandleUpdate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		id, err := basehdl.ParseIDParam(c, "id")
		if err != nil {
			return err
		}
		input, err := crmdto.ParseActivityInput(c.Body())
		if err != nil {
			return err
		}
		activity, err := h.Manager.UpdateActivity(c.Context(), id, input)
		if err != nil {
			return err
		}
		logger.LogCRUD("update", "activity", id.Hex(), c, map[string]interface{}{"status": activity.Status})
		return basehdl.Success(c, common.StatusOK, activity)
	})
}

// HandleDelete xử lý DELETE /activities/:id
func (h *CrmActivityHandler) HandleDelete(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		id, err := basehdl.ParseIDParam(c, "id")
		if err != nil {
			return err
		}
		if err := h.Manager.DeleteActivity(c.Context(), id); err != nil {
			return err
		}
		logger.LogCRUD("delete", "activity", id.Hex(), c, nil)
		return basehdl.Success(c, common.StatusOK, fiber.Map{})
	})
}
