// Package models - CrmActivity thuộc domain CRM (crm_activities).
// Lưu ghi chú, cuộc gọi, email, cuộc họp, task và nhật ký đổi trạng thái của khách.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CrmActivity lưu một hoạt động gắn với khách hàng (crm_activities).
// CompletedAt được stamp tự động tối đa một lần, không bao giờ tự xóa.
type CrmActivity struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	Customer    primitive.ObjectID `json:"customerId" bson:"customer" index:"single;compound:customer_createdAt"`
	Type        ActivityType       `json:"type" bson:"type" index:"single"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Status      ActivityStatus     `json:"status" bson:"status" index:"single" default:"pending"`

	DueDate     int64 `json:"dueDate,omitempty" bson:"dueDate,omitempty" index:"single"`
	CompletedAt int64 `json:"completedAt,omitempty" bson:"completedAt,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt" index:"single,order:-1;compound:customer_createdAt,order:-1"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// IsCompleted true khi hoạt động ở trạng thái completed
func (a *CrmActivity) IsCompleted() bool {
	return a.Status == ActivityStatusCompleted
}
