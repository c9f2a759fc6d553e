// Package basehdl chứa helper response/lỗi dùng chung cho mọi handler.
package basehdl

import (
	"errors"
	"fmt"
	"runtime/debug"

	basemodels "mini_crm/internal/api/base/models"
	"mini_crm/internal/common"
	"mini_crm/internal/logger"
	"mini_crm/internal/utility"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pagination metadata phân trang trong response danh sách
type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Pages int64 `json:"pages"`
}

// JSONResponse trả về JSON response với Content-Type: application/json; charset=utf-8
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data, fiber.MIMEApplicationJSONCharsetUTF8)
}

// Success trả về {success: true, data}
func Success(c fiber.Ctx, statusCode int, data interface{}) error {
	return JSONResponse(c, statusCode, fiber.Map{
		"success": true,
		"data":    data,
	})
}

// SuccessPage trả về {success: true, data: items, pagination}
func SuccessPage[T any](c fiber.Ctx, result *basemodels.PaginateResult[T]) error {
	return JSONResponse(c, common.StatusOK, fiber.Map{
		"success": true,
		"data":    result.Items,
		"pagination": Pagination{
			Total: result.Total,
			Page:  result.Page,
			Limit: result.Limit,
			Pages: result.TotalPage,
		},
	})
}

// Fail trả về {success: false, error}. error là danh sách {field, message} với lỗi validation,
// còn lại là chuỗi. Lỗi không thuộc common.Error trả 500 kèm message gốc.
func Fail(c fiber.Ctx, err error) error {
	status := common.StatusOf(err)
	if status >= common.StatusInternalServerError {
		logger.WithRequest(c).WithError(err).Error("Lỗi xử lý request")
	}

	if fields := common.FieldErrors(err); len(fields) > 0 {
		return JSONResponse(c, status, fiber.Map{"success": false, "error": fields})
	}
	return JSONResponse(c, status, fiber.Map{"success": false, "error": err.Error()})
}

// SafeHandlerWrapper chạy fn, bắt panic và chuyển lỗi trả về thành response chuẩn.
func SafeHandlerWrapper(c fiber.Ctx, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithField("stack", string(debug.Stack())).Error("Panic trong handler")
			err = Fail(c, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Unexpected error: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	if err := fn(); err != nil {
		return Fail(c, err)
	}
	return nil
}

// ParseIDParam đọc ObjectID từ path param, sai định dạng trả common.ErrInvalidID
func ParseIDParam(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := utility.ParseObjectID(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, common.ErrInvalidID
	}
	return id, nil
}

// ErrorHandler là fiber.Config.ErrorHandler: lỗi của Fiber (404 route, 405, body quá lớn)
// và lỗi còn sót từ handler đều trả về {success: false, error}.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if fe.Code == fiber.StatusNotFound {
			msg = common.MsgNotFound
		}
		return JSONResponse(c, fe.Code, fiber.Map{"success": false, "error": msg})
	}
	return Fail(c, err)
}
