// Package models - CrmCustomer thuộc domain CRM (crm_customers).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CrmAddress địa chỉ khách hàng, mọi field đều tùy chọn.
type CrmAddress struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

// IsEmpty true khi không có field nào được điền
func (a *CrmAddress) IsEmpty() bool {
	return a == nil || *a == CrmAddress{}
}

// CrmCustomer lưu khách hàng (crm_customers).
// Email là duy nhất toàn collection; lastInteraction chỉ do business rule ghi.
type CrmCustomer struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	Name    string         `json:"name" bson:"name" index:"single"`
	Email   string         `json:"email" bson:"email" index:"unique"`
	Phone   string         `json:"phone,omitempty" bson:"phone,omitempty"`
	Company string         `json:"company,omitempty" bson:"company,omitempty" index:"single"`
	Status  CustomerStatus `json:"status" bson:"status" index:"single" default:"lead"`

	Address      *CrmAddress       `json:"address,omitempty" bson:"address,omitempty"`
	Tags         []string          `json:"tags" bson:"tags"`
	CustomFields map[string]string `json:"customFields,omitempty" bson:"customFields,omitempty"`
	Notes        string            `json:"notes,omitempty" bson:"notes,omitempty"`

	NextFollowUp    int64 `json:"nextFollowUp,omitempty" bson:"nextFollowUp,omitempty" index:"single"`
	LastInteraction int64 `json:"lastInteraction,omitempty" bson:"lastInteraction,omitempty" index:"single,order:-1"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt" index:"single,order:-1"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt" index:"single,order:-1"`
}

// CrmCustomerRef là projection rút gọn của khách hàng, gắn vào từng hoạt động khi trả về.
type CrmCustomerRef struct {
	ID      primitive.ObjectID `json:"id" bson:"_id"`
	Name    string             `json:"name" bson:"name"`
	Email   string             `json:"email" bson:"email"`
	Company string             `json:"company,omitempty" bson:"company,omitempty"`
}

// Ref trả về projection của khách hàng
func (c *CrmCustomer) Ref() *CrmCustomerRef {
	return &CrmCustomerRef{ID: c.ID, Name: c.Name, Email: c.Email, Company: c.Company}
}
