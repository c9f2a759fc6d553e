// Package dto - DTO và validate payload cho domain CRM (customer, activity).
package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/common"
	"mini_crm/internal/global"

	"github.com/go-playground/validator/v10"
)

// FieldBody là field nhận lỗi khi body không phải JSON hợp lệ
const FieldBody = "body"

// requiredMessages thông báo riêng cho các field bắt buộc, còn lại dùng "Required"
var requiredMessages = map[string]string{
	"name":     "Name is required",
	"customer": "Customer ID is required",
	"title":    "Title is required",
}

// normalizer được gọi sau khi decode, trước khi validate (trim, lowercase)
type normalizer interface {
	normalize()
}

// DecodeAndValidate decode body JSON vào input và kiểm tra ràng buộc.
// Trả về lỗi common.ErrValidation chứa toàn bộ []common.FieldError, hoặc nil.
func DecodeAndValidate(body []byte, input interface{}) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}

	fields, failed, err := decodeFields(body, input)
	if err != nil {
		return err
	}

	if n, ok := input.(normalizer); ok {
		n.normalize()
	}

	if err := global.InitValidator().Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return common.NewError(common.ErrCodeValidationInput, err.Error(), common.StatusBadRequest, nil)
		}
		for _, fe := range verrs {
			field := fieldPath(fe.Namespace())
			// field sai kiểu đã có lỗi riêng, giá trị zero của nó không cần báo thêm
			if failed[topLevel(field)] {
				continue
			}
			fields = append(fields, common.FieldError{Field: field, Message: fieldMessage(field, fe)})
		}
	}

	if len(fields) > 0 {
		return common.NewValidationError(fields)
	}
	return nil
}

// decodeFields decode từng field cấp cao nhất riêng rẽ nên một field sai kiểu
// không che lỗi của các field sau nó. failed chứa tên JSON của các field sai kiểu.
func decodeFields(body []byte, input interface{}) ([]common.FieldError, map[string]bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, common.NewValidationError([]common.FieldError{bodyError(err)})
	}

	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("input phải là con trỏ tới struct, nhận %T", input)
	}
	elem := val.Elem()
	typ := elem.Type()

	var fields []common.FieldError
	failed := map[string]bool{}
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		name := jsonName(sf)
		if name == "" {
			continue
		}
		msg, ok := lookupKey(raw, name)
		if !ok {
			continue
		}

		target := reflect.New(sf.Type)
		if err := json.Unmarshal(msg, target.Interface()); err != nil {
			failed[name] = true
			fields = append(fields, typeError(name, err))
			continue
		}
		elem.Field(i).Set(target.Elem())
	}
	return fields, failed, nil
}

// jsonName tên field theo tag json, rỗng nếu field bị bỏ qua
func jsonName(sf reflect.StructField) string {
	if sf.PkgPath != "" {
		return ""
	}
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name := strings.Split(tag, ",")[0]; name != "" {
		return name
	}
	return sf.Name
}

// lookupKey khớp chính xác trước, sau đó không phân biệt hoa thường như encoding/json
func lookupKey(raw map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if msg, ok := raw[name]; ok {
		return msg, true
	}
	for key, msg := range raw {
		if strings.EqualFold(key, name) {
			return msg, true
		}
	}
	return nil, false
}

func bodyError(err error) common.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return common.FieldError{
			Field:   FieldBody,
			Message: fmt.Sprintf("Expected object, received %s", receivedKind(typeErr.Value)),
		}
	}
	return common.FieldError{Field: FieldBody, Message: "Invalid JSON"}
}

// typeError lỗi sai kiểu của một field, đường dẫn gồm cả field con (address.city)
func typeError(name string, err error) common.FieldError {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return common.FieldError{Field: name, Message: "Invalid value"}
	}
	path := name
	if typeErr.Field != "" {
		path = name + "." + typeErr.Field
	}
	return common.FieldError{
		Field:   path,
		Message: fmt.Sprintf("Expected %s, received %s", jsonKind(typeErr.Type), receivedKind(typeErr.Value)),
	}
}

func topLevel(field string) string {
	if i := strings.Index(field, "."); i >= 0 {
		return field[:i]
	}
	return field
}

var indexPattern = regexp.MustCompile(`\[([^\]]*)\]`)

// fieldPath chuyển "CrmCustomerInput.address.city" / "tags[0]" thành "address.city" / "tags.0"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		if msg, ok := requiredMessages[field]; ok {
			return msg
		}
		return "Required"
	case "email":
		return "Invalid email format"
	case "iso8601":
		return "Invalid datetime"
	case "oneof":
		return crmmodels.EnumMessage(strings.Fields(fe.Param()), fmt.Sprint(fe.Value()))
	}
	return "Invalid value"
}

// jsonKind tên kiểu JSON tương ứng với kiểu Go mong đợi
func jsonKind(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonKind(t.Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return t.Kind().String()
}

// receivedKind lấy loại giá trị JSON từ UnmarshalTypeError.Value ("number 5" -> "number")
func receivedKind(value string) string {
	parts := strings.Fields(value)
	if len(parts) == 0 {
		return "unknown"
	}
	if parts[0] == "bool" {
		return "boolean"
	}
	return parts[0]
}

// trimAll trim từng phần tử, giữ thứ tự và phần tử trùng
func trimAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// parseOptionalTime chuyển chuỗi ISO-8601 (đã validate) thành Unix ms, rỗng -> 0
func parseOptionalTime(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	t, err := global.ParseISO8601(value)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
