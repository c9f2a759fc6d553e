// Package router khai báo prefix API và cách đăng ký route của các domain.
package router

import (
	"github.com/gofiber/fiber/v3"
)

// Router quản lý việc định tuyến cho API
type Router struct {
	app *fiber.App
}

// RoutePrefix chứa các prefix cho API routes
type RoutePrefix struct {
	Base string // Prefix cơ bản (/api)
	V1   string // Prefix cho API version 1 (/api/v1)
}

// NewRoutePrefix tạo mới một instance của RoutePrefix với các giá trị mặc định
func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// NewRouter tạo mới một instance của Router
func NewRouter(app *fiber.App) *Router {
	return &Router{
		app: app,
	}
}

// App trả về fiber app
func (r *Router) App() *fiber.App {
	return r.app
}

// Route là một route trong group: method, path tương đối và handler
type Route struct {
	Method  string
	Path    string
	Handler fiber.Handler
}

// RegisterRoutesWithMiddleware tạo một group prefix, gắn middleware qua .Use() đúng một lần
// rồi đăng ký các route. Không truyền middleware trực tiếp vào Get/Post: với Fiber v3 middleware đó không được gọi.
//
// Ví dụ:
//
//	RegisterRoutesWithMiddleware(v1, "/customers", []fiber.Handler{mw},
//		Route{fiber.MethodGet, "/:id", h.HandleGet},
//	)
func RegisterRoutesWithMiddleware(router fiber.Router, prefix string, middlewares []fiber.Handler, routes ...Route) {
	routeGroup := router.Group(prefix)
	for _, mw := range middlewares {
		routeGroup.Use(mw)
	}

	for _, rt := range routes {
		switch rt.Method {
		case fiber.MethodGet:
			routeGroup.Get(rt.Path, rt.Handler)
		case fiber.MethodPost:
			routeGroup.Post(rt.Path, rt.Handler)
		case fiber.MethodPut:
			routeGroup.Put(rt.Path, rt.Handler)
		case fiber.MethodDelete:
			routeGroup.Delete(rt.Path, rt.Handler)
		}
	}
}

// RegisterRouteWithMiddleware đăng ký một route đơn lẻ với middleware riêng
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	RegisterRoutesWithMiddleware(router, prefix, middlewares, Route{Method: method, Path: path, Handler: handler})
}

// RegisterFunc đăng ký route của một domain lên v1
type RegisterFunc func(v1 fiber.Router, r *Router) error

// SetupRoutes thiết lập tất cả các route cho ứng dụng. Caller truyền lần lượt Register của từng domain để tránh import cycle.
func SetupRoutes(app *fiber.App, regs ...RegisterFunc) error {
	prefix := NewRoutePrefix()
	v1 := app.Group(prefix.V1)
	r := NewRouter(app)
	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return err
		}
	}
	return nil
}
