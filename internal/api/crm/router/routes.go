// Package router đăng ký các route thuộc domain CRM: customers, activities, dashboard.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	crmhdl "mini_crm/internal/api/crm/handler"
	crmvc "mini_crm/internal/api/crm/service"
	"mini_crm/internal/api/middleware"
	apirouter "mini_crm/internal/api/router"
)

// Register đăng ký tất cả route CRM lên v1, dùng store MongoDB đã đăng ký trong registry.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	manager, err := crmvc.NewCrmManagerFromRegistry()
	if err != nil {
		return fmt.Errorf("tạo CrmManager: %w", err)
	}
	return RegisterWith(manager)(v1, r)
}

// RegisterWith trả về RegisterFunc dùng manager cho trước
func RegisterWith(manager *crmvc.CrmManager) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		customerHandler := crmhdl.NewCrmCustomerHandler(manager)
		activityHandler := crmhdl.NewCrmActivityHandler(manager)
		dashboardHandler := crmhdl.NewCrmDashboardHandler(manager)

		middlewares := []fiber.Handler{
			middleware.RequestContextMiddleware(),
			middleware.AccessLogMiddleware("crm"),
		}

		apirouter.RegisterRoutesWithMiddleware(v1, "/customers", middlewares,
			apirouter.Route{Method: fiber.MethodGet, Path: "", Handler: customerHandler.HandleList},
			apirouter.Route{Method: fiber.MethodPost, Path: "", Handler: customerHandler.HandleCreate},
			apirouter.Route{Method: fiber.MethodGet, Path: "/:id", Handler: customerHandler.HandleGet},
			apirouter.Route{Method: fiber.MethodPut, Path: "/:id", Handler: customerHandler.HandleUpdate},
			apirouter.Route{Method: fiber.MethodDelete, Path: "/:id", Handler: customerHandler.HandleDelete},
		)

		apirouter.RegisterRoutesWithMiddleware(v1, "/activities", middlewares,
			apirouter.Route{Method: fiber.MethodGet, Path: "", Handler: activityHandler.HandleList},
			apirouter.Route{Method: fiber.MethodPost, Path: "", Handler: activityHandler.HandleCreate},
			apirouter.Route{Method: fiber.MethodGet, Path: "/:id", Handler: activityHandler.HandleGet},
			apirouter.Route{Method: fiber.MethodPut, Path: "/:id", Handler: activityHandler.HandleUpdate},
			apirouter.Route{Method: fiber.MethodDelete, Path: "/:id", Handler: activityHandler.HandleDelete},
		)

		apirouter.RegisterRouteWithMiddleware(v1, "/dashboard", fiber.MethodGet, "/stats", middlewares, dashboardHandler.HandleStats)
		return nil
	}
}
