// Package crmvc - Store và business rule cho domain CRM (customers, activities).
package crmvc

import (
	"context"

	basemodels "mini_crm/internal/api/base/models"
	crmdto "mini_crm/internal/api/crm/dto"
	crmmodels "mini_crm/internal/api/crm/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomerStore truy cập crm_customers. Lỗi trả về thuộc common (ErrCustomerNotFound, ErrEmailTaken, ...).
type CustomerStore interface {
	List(ctx context.Context, q crmdto.CrmCustomerListQuery) (*basemodels.PaginateResult[crmmodels.CrmCustomer], error)
	Get(ctx context.Context, id primitive.ObjectID) (crmmodels.CrmCustomer, error)
	Refs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*crmmodels.CrmCustomerRef, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	Create(ctx context.Context, c crmmodels.CrmCustomer) (crmmodels.CrmCustomer, error)
	// Replace thay các field sửa được và trả về bản ghi TRƯỚC khi ghi (đọc nguyên tử cùng lúc ghi)
	Replace(ctx context.Context, id primitive.ObjectID, c crmmodels.CrmCustomer) (crmmodels.CrmCustomer, error)
	TouchLastInteraction(ctx context.Context, id primitive.ObjectID, at int64) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[crmmodels.CustomerStatus]int64, error)
}

// ActivityFilter lọc hoạt động theo giá trị chính xác. Field rỗng/zero bị bỏ qua.
// DueFrom/DueTo lọc dueDate trong [DueFrom, DueTo).
type ActivityFilter struct {
	CustomerID primitive.ObjectID
	Type       string
	Status     string
	DueFrom    int64
	DueTo      int64
}

// ActivityStore truy cập crm_activities.
type ActivityStore interface {
	List(ctx context.Context, f ActivityFilter, page, limit int64) (*basemodels.PaginateResult[crmmodels.CrmActivity], error)
	Get(ctx context.Context, id primitive.ObjectID) (crmmodels.CrmActivity, error)
	// Recent trả về n hoạt động mới nhất, customerID zero = mọi khách
	Recent(ctx context.Context, customerID primitive.ObjectID, n int64) ([]crmmodels.CrmActivity, error)
	Create(ctx context.Context, a crmmodels.CrmActivity) (crmmodels.CrmActivity, error)
	// Replace thay các field sửa được, giữ completedAt, trả về bản ghi SAU khi ghi
	Replace(ctx context.Context, id primitive.ObjectID, a crmmodels.CrmActivity) (crmmodels.CrmActivity, error)
	// StampCompletion ghi completedAt chỉ khi chưa có; trả true nếu đã ghi
	StampCompletion(ctx context.Context, id primitive.ObjectID, at int64) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error)
	Count(ctx context.Context, f ActivityFilter) (int64, error)
}
