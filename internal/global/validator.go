package global

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"mini_crm/internal/logger"

	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once

// InitValidator khởi tạo validator dùng chung và đăng ký các custom validator.
// Gọi nhiều lần là an toàn.
func InitValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Đường dẫn lỗi dùng tên JSON (address.zipCode) thay vì tên field Go
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		for tag, fn := range map[string]validator.Func{
			"notblank": validateNotBlank,
			"iso8601":  validateISO8601,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				logger.GetAppLogger().WithError(err).WithField("tag", tag).Error("Failed to register validator")
			}
		}

		Validate = v
	})
	return Validate
}

// validateNotBlank: chuỗi phải còn ký tự sau khi trim
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateISO8601: chuỗi rỗng hợp lệ (trường tùy chọn), còn lại phải parse được RFC 3339
func validateISO8601(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := ParseISO8601(value)
	return err == nil
}

// ParseISO8601 parse timestamp dạng "2024-05-01T10:00:00Z" hoặc có phần thập phân giây / offset
func ParseISO8601(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
}
