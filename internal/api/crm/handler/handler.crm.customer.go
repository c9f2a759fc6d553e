// Package crmhdl - Handler HTTP cho domain CRM (customers, activities, dashboard).
package crmhdl

import (
	basehdl "mini_crm/internal/api/base/handler"
	crmdto "mini_crm/internal/api/crm/dto"
	crmvc "mini_crm/internal/api/crm/service"
	"mini_crm/internal/common"
	"mini_crm/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// CrmCustomerHandler xử lý /customers.
type CrmCustomerHandler struct {
	Manager *crmvc.CrmManager
}

// NewCrmCustomerHandler tạo CrmCustomerHandler mới.
func NewCrmCustomerHandler(m *crmvc.CrmManager) *CrmCustomerHandler {
	return &CrmCustomerHandler{Manager: m}
}

// HandleList xử lý GET /customers?search=&status=&company=&tags=&page=&limit=&sortBy=&sortOrder=
func (h *CrmCustomerHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		q := crmdto.ParseCustomerListQuery(func(key string) string { return c.Query(key) })
		result, err := h.Manager.ListCustomers(c.Context(), q)
		if err != nil {
			return err
		}
		return basehdl.SuccessPage(c, result)
	})
}

// HandleGet xử lý GET /customers/:id, trả kèm các hoạt động gần nhất.
func (h *CrmCustomerHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		id, err := basehdl.ParseIDParam(c, "id")
		if err != nil {
			return err
		}
		detail, err := h.Manager.GetCustomer(c.Context(), id)
		if err != nil {
			return err
		}
		return basehdl.Success(c, common.StatusOK, detail)
	})
}

// HandleCreate xử lý POST /customers.
func (h *CrmCustomerHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		input, err := crmdto.ParseCustomerInput(c.Body())
		if err != nil {
			return err
		}
		customer, err := h.Manager.CreateCustomer(c.Context(), input)
		if err != nil {
			return err
		}
		logger.LogCRUD("create", "customer", customer.ID.Hex(), c, map[string]interface{}{"status": customer.Status})
		return basehdl.Success(c, common.StatusCreated, customer)
	})
}

// HandleUpdate xử lý PUT /customers/:id (thay toàn bộ field sửa được).
func (h *CrmCustomerHandler) HandleUpdate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		id, err := basehdl.ParseIDParam(c, "id")
		if err != nil {
			return err
		}
		input, err := crmdto.ParseCustomerInput(c.Body())
		if err != nil {
			return err
		}
		customer, err := h.Manager.UpdateCustomer(c.Context(), id, input)
		if err != nil {
			return err
		}
		logger.LogCRUD("update", "customer", id.Hex(), c, map[string]interface{}{"status": customer.Status})
		return basehdl.Success(c, common.StatusOK, customer)
	})
}

// HandleDelete xử lý DELETE /customers/:id, xóa kèm hoạt động của khách.
func (h *CrmCustomerHandler) HandleDelete(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		id, err := basehdl.ParseIDParam(c, "id")
		if err != nil {
			return err
		}
		if err := h.Manager.DeleteCustomer(c.Context(), id); err != nil {
			return err
		}
		logger.LogCRUD("delete", "customer", id.Hex(), c, nil)
		return basehdl.Success(c, common.StatusOK, fiber.Map{})
	})
}
