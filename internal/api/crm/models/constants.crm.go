// Package models - Các kiểu liệt kê đóng của domain CRM.
// Giá trị ngoài tập cho phép bị từ chối ngay khi dựng (Parse…) hoặc khi decode (UnmarshalText).
package models

import (
	"errors"
	"fmt"
	"strings"
)

// CustomerStatus trạng thái khách hàng trong phễu bán hàng.
type CustomerStatus string

const (
	CustomerStatusLead     CustomerStatus = "lead"
	CustomerStatusProspect CustomerStatus = "prospect"
	CustomerStatusCustomer CustomerStatus = "customer"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// CustomerStatuses theo thứ tự hiển thị trong thông báo lỗi.
var CustomerStatuses = []CustomerStatus{
	CustomerStatusLead, CustomerStatusProspect, CustomerStatusCustomer, CustomerStatusInactive,
}

// ActivityType loại hoạt động. status_change do hệ thống sinh ra khi khách đổi trạng thái.
type ActivityType string

const (
	ActivityTypeNote         ActivityType = "note"
	ActivityTypeCall         ActivityType = "call"
	ActivityTypeEmail        ActivityType = "email"
	ActivityTypeMeeting      ActivityType = "meeting"
	ActivityTypeTask         ActivityType = "task"
	ActivityTypeStatusChange ActivityType = "status_change"
)

var ActivityTypes = []ActivityType{
	ActivityTypeNote, ActivityTypeCall, ActivityTypeEmail, ActivityTypeMeeting, ActivityTypeTask, ActivityTypeStatusChange,
}

// ActivityStatus trạng thái xử lý của hoạt động.
type ActivityStatus string

const (
	ActivityStatusPending   ActivityStatus = "pending"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

var ActivityStatuses = []ActivityStatus{
	ActivityStatusPending, ActivityStatusCompleted, ActivityStatusCancelled,
}

// ====================================
// CustomerStatus
// ====================================

func (s CustomerStatus) IsValid() bool { return contains(CustomerStatuses, s) }

func (s CustomerStatus) String() string { return string(s) }

// ParseCustomerStatus trả lỗi nếu value không thuộc tập trạng thái khách hàng
func ParseCustomerStatus(value string) (CustomerStatus, error) {
	s := CustomerStatus(value)
	if !s.IsValid() {
		return "", enumError(CustomerStatuses, value)
	}
	return s, nil
}

func (s *CustomerStatus) UnmarshalText(text []byte) error {
	v, err := ParseCustomerStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ====================================
// ActivityType
// ====================================

func (t ActivityType) IsValid() bool { return contains(ActivityTypes, t) }

func (t ActivityType) String() string { return string(t) }

// ParseActivityType trả lỗi nếu value không thuộc tập loại hoạt động
func ParseActivityType(value string) (ActivityType, error) {
	t := ActivityType(value)
	if !t.IsValid() {
		return "", enumError(ActivityTypes, value)
	}
	return t, nil
}

func (t *ActivityType) UnmarshalText(text []byte) error {
	v, err := ParseActivityType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ====================================
// ActivityStatus
// ====================================

func (s ActivityStatus) IsValid() bool { return contains(ActivityStatuses, s) }

func (s ActivityStatus) String() string { return string(s) }

// ParseActivityStatus trả lỗi nếu value không thuộc tập trạng thái hoạt động
func ParseActivityStatus(value string) (ActivityStatus, error) {
	s := ActivityStatus(value)
	if !s.IsValid() {
		return "", enumError(ActivityStatuses, value)
	}
	return s, nil
}

func (s *ActivityStatus) UnmarshalText(text []byte) error {
	v, err := ParseActivityStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ====================================
// helpers
// ====================================

func contains[T ~string](set []T, v T) bool {
	for _, item := range set {
		if item == v {
			return true
		}
	}
	return false
}

// EnumMessage dựng thông báo "Invalid enum value. Expected 'a' | 'b', received 'x'"
func EnumMessage[T ~string](set []T, received string) string {
	quoted := make([]string, len(set))
	for i, v := range set {
		quoted[i] = "'" + string(v) + "'"
	}
	return fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", strings.Join(quoted, " | "), received)
}

func enumError[T ~string](set []T, received string) error {
	return errors.New(EnumMessage(set, received))
}
