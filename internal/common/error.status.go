package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	StatusOK        = 200 // Thành công
	StatusCreated   = 201 // Tạo mới thành công
	StatusNoContent = 204 // Thành công nhưng không có nội dung trả về

	StatusBadRequest      = 400 // Yêu cầu không hợp lệ
	StatusNotFound        = 404 // Không tìm thấy tài nguyên
	StatusConflict        = 409 // Xung đột dữ liệu
	StatusTooManyRequests = 429 // Quá nhiều yêu cầu

	StatusInternalServerError = 500 // Lỗi server
	StatusServiceUnavailable  = 503 // Dịch vụ không khả dụng
)

// Response Messages
const (
	MsgBadRequest         = "Invalid request"
	MsgNotFound           = "Resource not found"
	MsgTooManyRequests    = "Too many requests, please try again later"
	MsgInternalError      = "Internal Server Error"
	MsgServiceUnavailable = "Service unavailable"
	MsgInvalidID          = "Invalid id format"
	MsgValidationFailed   = "Validation failed"
)

// ErrorCode định nghĩa mã lỗi chi tiết
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: VAL_001)
	Category    string // Phân loại lỗi (ví dụ: Validation)
	SubCategory string // Phân loại con
	Description string // Mô tả chi tiết
}

// Định nghĩa các mã lỗi theo hệ thống phân cấp
var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Lỗi hệ thống nội bộ",
	}

	// Validation Errors (VAL_xxx)
	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Lỗi dữ liệu đầu vào",
	}

	ErrCodeValidationFormat = ErrorCode{
		Code:        "VAL_002",
		Category:    "Validation",
		SubCategory: "Format",
		Description: "Lỗi định dạng dữ liệu",
	}

	// Not Found Errors (NF_xxx)
	ErrCodeNotFound = ErrorCode{
		Code:        "NF_001",
		Category:    "NotFound",
		SubCategory: "Entity",
		Description: "Không tìm thấy bản ghi đích",
	}

	// Reference Errors (REF_xxx)
	ErrCodeReference = ErrorCode{
		Code:        "REF_001",
		Category:    "Reference",
		SubCategory: "Integrity",
		Description: "Bản ghi được tham chiếu không tồn tại",
	}

	// Database Errors (DB_xxx)
	ErrCodeDatabase = ErrorCode{
		Code:        "DB",
		Category:    "Database",
		SubCategory: "General",
		Description: "Lỗi cơ sở dữ liệu chung",
	}

	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Lỗi kết nối cơ sở dữ liệu",
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Lỗi truy vấn dữ liệu",
	}

	ErrCodeDatabaseDuplicate = ErrorCode{
		Code:        "DB_003",
		Category:    "Database",
		SubCategory: "Duplicate",
		Description: "Vi phạm ràng buộc duy nhất",
	}

	// Business Logic Errors (BIZ_xxx)
	ErrCodeBusinessOperation = ErrorCode{
		Code:        "BIZ_002",
		Category:    "Business",
		SubCategory: "Operation",
		Description: "Lỗi thao tác nghiệp vụ",
	}

	ErrCodeSideEffect = ErrorCode{
		Code:        "BIZ_003",
		Category:    "Business",
		SubCategory: "SideEffect",
		Description: "Hiệu ứng phụ của nghiệp vụ thất bại",
	}
)

// Error định nghĩa cấu trúc lỗi chi tiết
type Error struct {
	Code       ErrorCode // Mã lỗi chi tiết
	Message    string    // Thông báo lỗi
	StatusCode int       // HTTP status code
	Details    any       // Thông tin chi tiết thêm về lỗi

	family bool // sentinel đại diện cho cả nhóm lỗi cùng mã
}

// Error trả về message của lỗi
func (e *Error) Error() string {
	return e.Message
}

// Is hỗ trợ errors.Is. Hai lỗi khớp khi cùng mã và cùng message;
// sentinel nhóm (ErrNotFound, ErrValidation, ...) khớp mọi lỗi cùng mã.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if e.Code.Code != t.Code.Code {
		return false
	}
	return t.family || e.Message == t.Message
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func newFamily(code ErrorCode, message string, statusCode int) error {
	return &Error{Code: code, Message: message, StatusCode: statusCode, family: true}
}

// FieldError là một vi phạm ràng buộc trên một trường của payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError gom tất cả lỗi trường vào một lỗi 400
func NewValidationError(fields []FieldError) error {
	return &Error{
		Code:       ErrCodeValidationInput,
		Message:    MsgValidationFailed,
		StatusCode: StatusBadRequest,
		Details:    fields,
	}
}

// FieldErrors trả về danh sách lỗi trường nếu err là lỗi validation
func FieldErrors(err error) []FieldError {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	fields, _ := e.Details.([]FieldError)
	return fields
}

// Nhóm lỗi (dùng với errors.Is)
var (
	ErrValidation = newFamily(ErrCodeValidationInput, MsgValidationFailed, StatusBadRequest)
	ErrNotFound   = newFamily(ErrCodeNotFound, MsgNotFound, StatusNotFound)
	ErrReference  = newFamily(ErrCodeReference, "Referenced record not found", StatusNotFound)
	ErrDuplicate  = newFamily(ErrCodeDatabaseDuplicate, "Record already exists", StatusConflict)
	ErrDatabase   = newFamily(ErrCodeDatabase, "Database error", StatusInternalServerError)
)

// Lỗi cụ thể của CRM
var (
	ErrInvalidID         = NewError(ErrCodeValidationFormat, MsgInvalidID, StatusBadRequest, nil)
	ErrCustomerNotFound  = NewError(ErrCodeNotFound, "Customer not found", StatusNotFound, nil)
	ErrActivityNotFound  = NewError(ErrCodeNotFound, "Activity not found", StatusNotFound, nil)
	ErrCustomerReference = NewError(ErrCodeReference, "Customer not found", StatusNotFound, nil)
	ErrEmailTaken        = NewError(ErrCodeDatabaseDuplicate, "Email already exists", StatusConflict, nil)
)

// NewSideEffectError báo một hiệu ứng phụ thất bại sau khi bản ghi chính đã được ghi
func NewSideEffectError(effect string, cause error) error {
	return &Error{
		Code:       ErrCodeSideEffect,
		Message:    effect + ": " + cause.Error(),
		StatusCode: StatusInternalServerError,
		Details:    map[string]string{"effect": effect},
	}
}

// ConvertMongoError chuyển đổi lỗi MongoDB sang lỗi hệ thống.
// Lỗi đã thuộc hệ thống (*Error) được giữ nguyên.
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return NewError(ErrCodeDatabaseDuplicate, "Record already exists", StatusConflict, err.Error())
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return NewError(ErrCodeDatabaseConnection, err.Error(), StatusInternalServerError, nil)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return NewError(ErrCodeDatabaseQuery, cmdErr.Message, StatusInternalServerError, cmdErr.Code)
	}

	return NewError(ErrCodeDatabase, err.Error(), StatusInternalServerError, nil)
}

// StatusOf trả về HTTP status tương ứng với err (500 nếu không xác định)
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return e.StatusCode
	}
	return StatusInternalServerError
}
