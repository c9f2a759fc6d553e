package crmvc

import (
	"context"
	"fmt"
	"time"

	basemodels "mini_crm/internal/api/base/models"
	crmdto "mini_crm/internal/api/crm/dto"
	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/common"
	"mini_crm/internal/global"
	"mini_crm/internal/logger"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tên các hiệu ứng phụ của nghiệp vụ
const (
	EffectSeedCreation     = "seedCreationActivity"
	EffectStatusChange     = "recordStatusChange"
	EffectLastInteraction  = "touchLastInteraction"
	EffectStampCompletion  = "stampCompletion"
	EffectCascadeDeletions = "cascadeActivities"
)

// DefaultRecentActivities số hoạt động gần nhất trả về kèm khách hàng
const DefaultRecentActivities int64 = 5

// EffectResult kết quả của một hiệu ứng phụ. Err nil = thành công.
type EffectResult struct {
	Name string
	Err  error
}

// CrmManager điều phối store khách hàng/hoạt động và các quy tắc chéo entity.
// Mọi hiệu ứng phụ chạy đồng bộ ngay sau thao tác chính; thao tác chính đã ghi thì không rollback.
type CrmManager struct {
	Customers  CustomerStore
	Activities ActivityStore

	// StrictSideEffects: hiệu ứng phụ lỗi trả 500 cho caller thay vì chỉ ghi log
	StrictSideEffects bool
	RecentLimit       int64

	now func() time.Time
}

// NewCrmManager tạo CrmManager với store cho trước
func NewCrmManager(customers CustomerStore, activities ActivityStore) *CrmManager {
	return &CrmManager{
		Customers:   customers,
		Activities:  activities,
		RecentLimit: DefaultRecentActivities,
		now:         time.Now,
	}
}

// NewCrmManagerFromRegistry tạo CrmManager dùng store MongoDB và cấu hình server
func NewCrmManagerFromRegistry() (*CrmManager, error) {
	customers, err := NewCrmCustomerService()
	if err != nil {
		return nil, fmt.Errorf("tạo CrmCustomerService: %w", err)
	}
	activities, err := NewCrmActivityService()
	if err != nil {
		return nil, fmt.Errorf("tạo CrmActivityService: %w", err)
	}
	m := NewCrmManager(customers, activities)
	if cfg := global.ServerConfig; cfg != nil {
		m.StrictSideEffects = cfg.CRM_StrictSideEffects
		if cfg.CRM_RecentActivities > 0 {
			m.RecentLimit = int64(cfg.CRM_RecentActivities)
		}
	}
	return m, nil
}

// WithClock thay nguồn thời gian (dùng trong test)
func (m *CrmManager) WithClock(now func() time.Time) *CrmManager {
	m.now = now
	return m
}

func (m *CrmManager) nowMillis() int64 {
	return m.now().UnixMilli()
}

// settle ghi log các hiệu ứng phụ lỗi. Ở chế độ strict, lỗi đầu tiên được trả về caller.
func (m *CrmManager) settle(ctx context.Context, results ...EffectResult) error {
	var first error
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		logger.WithContext(ctx).WithFields(logrus.Fields{
			"module": "crm",
			"effect": r.Name,
		}).WithError(r.Err).Warn("[CRM] Hiệu ứng phụ thất bại, bản ghi chính vẫn giữ nguyên")
		if first == nil {
			first = common.NewSideEffectError(r.Name, r.Err)
		}
	}
	if m.StrictSideEffects {
		return first
	}
	return nil
}

// ====================================
// Customers
// ====================================

// ListCustomers trả về một trang khách hàng
func (m *CrmManager) ListCustomers(ctx context.Context, q crmdto.CrmCustomerListQuery) (*basemodels.PaginateResult[crmmodels.CrmCustomer], error) {
	return m.Customers.List(ctx, q)
}

// GetCustomer trả về khách hàng kèm các hoạt động gần nhất
func (m *CrmManager) GetCustomer(ctx context.Context, id primitive.ObjectID) (*crmdto.CrmCustomerDetailResponse, error) {
	customer, err := m.Customers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := m.Activities.Recent(ctx, id, m.RecentLimit)
	if err != nil {
		return nil, err
	}
	refs := map[primitive.ObjectID]*crmmodels.CrmCustomerRef{customer.ID: customer.Ref()}
	return &crmdto.CrmCustomerDetailResponse{
		Customer:         customer,
		RecentActivities: crmdto.NewActivityResponses(recent, refs),
	}, nil
}

// CreateCustomer lưu khách hàng mới rồi sinh một hoạt động status_change ghi nhận trạng thái ban đầu
func (m *CrmManager) CreateCustomer(ctx context.Context, in *crmdto.CrmCustomerInput) (crmmodels.CrmCustomer, error) {
	model, err := in.ToModel()
	if err != nil {
		return crmmodels.CrmCustomer{}, err
	}
	created, err := m.Customers.Create(ctx, model)
	if err != nil {
		return crmmodels.CrmCustomer{}, err
	}
	return created, m.settle(ctx, m.seedCreationActivity(ctx, created))
}

// UpdateCustomer thay toàn bộ field sửa được. Trạng thái cũ được đọc nguyên tử cùng lúc ghi;
// nếu khác trạng thái mới thì sinh một hoạt động status_change.
func (m *CrmManager) UpdateCustomer(ctx context.Context, id primitive.ObjectID, in *crmdto.CrmCustomerInput) (crmmodels.CrmCustomer, error) {
	model, err := in.ToModel()
	if err != nil {
		return crmmodels.CrmCustomer{}, err
	}
	prior, err := m.Customers.Replace(ctx, id, model)
	if err != nil {
		return crmmodels.CrmCustomer{}, err
	}
	updated, err := m.Customers.Get(ctx, id)
	if err != nil {
		return crmmodels.CrmCustomer{}, err
	}

	if prior.Status == updated.Status {
		return updated, nil
	}
	return updated, m.settle(ctx, m.recordStatusChange(ctx, updated.ID, prior.Status, updated.Status))
}

// DeleteCustomer xóa hoạt động của khách trước rồi mới xóa khách.
// Xóa hoạt động lỗi thì dừng lại, khách vẫn còn nên không sinh hoạt động mồ côi.
func (m *CrmManager) DeleteCustomer(ctx context.Context, id primitive.ObjectID) error {
	if _, err := m.Customers.Get(ctx, id); err != nil {
		return err
	}
	if r := m.cascadeActivities(ctx, id); r.Err != nil {
		return common.NewError(common.ErrCodeBusinessOperation, fmt.Sprintf("%s: %v", r.Name, r.Err), common.StatusInternalServerError, nil)
	}
	return m.Customers.Delete(ctx, id)
}

// ====================================
// Activities
// ====================================

// ListActivities trả về một trang hoạt động kèm projection khách hàng
func (m *CrmManager) ListActivities(ctx context.Context, f ActivityFilter, page, limit int64) (*basemodels.PaginateResult[crmdto.CrmActivityResponse], error) {
	result, err := m.Activities.List(ctx, f, page, limit)
	if err != nil {
		return nil, err
	}
	items, err := m.withCustomerRefs(ctx, result.Items)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, result.Page, result.Limit, result.Total), nil
}

// GetActivity trả về hoạt động kèm projection khách hàng
func (m *CrmManager) GetActivity(ctx context.Context, id primitive.ObjectID) (crmdto.CrmActivityResponse, error) {
	a, err := m.Activities.Get(ctx, id)
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	return m.singleResponse(ctx, a)
}

// CreateActivity kiểm tra khách tồn tại, lưu hoạt động, rồi cập nhật lastInteraction
// của khách nếu hoạt động không phải status_change.
func (m *CrmManager) CreateActivity(ctx context.Context, in *crmdto.CrmActivityInput) (crmdto.CrmActivityResponse, error) {
	model, err := in.ToModel()
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	if err := m.ensureCustomer(ctx, model.Customer); err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	if model.IsCompleted() {
		model.CompletedAt = m.nowMillis()
	}

	created, err := m.Activities.Create(ctx, model)
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}

	var effects []EffectResult
	if created.Type != crmmodels.ActivityTypeStatusChange {
		effects = append(effects, m.touchLastInteraction(ctx, created))
	}
	resp, err := m.singleResponse(ctx, created)
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	return resp, m.settle(ctx, effects...)
}

// UpdateActivity thay field sửa được. Đổi sang khách khác thì khách mới phải tồn tại.
// Chuyển sang completed lần đầu thì stamp completedAt bằng một lần ghi riêng.
func (m *CrmManager) UpdateActivity(ctx context.Context, id primitive.ObjectID, in *crmdto.CrmActivityInput) (crmdto.CrmActivityResponse, error) {
	model, err := in.ToModel()
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	existing, err := m.Activities.Get(ctx, id)
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	if model.Customer != existing.Customer {
		if err := m.ensureCustomer(ctx, model.Customer); err != nil {
			return crmdto.CrmActivityResponse{}, err
		}
	}

	updated, err := m.Activities.Replace(ctx, id, model)
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}

	var effects []EffectResult
	if updated.IsCompleted() && updated.CompletedAt == 0 {
		r := m.stampCompletion(ctx, updated.ID)
		effects = append(effects, r)
		if r.Err == nil {
			if stamped, err := m.Activities.Get(ctx, id); err == nil {
				updated = stamped
			}
		}
	}
	resp, err := m.singleResponse(ctx, updated)
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	return resp, m.settle(ctx, effects...)
}

// DeleteActivity xóa hoạt động theo id
func (m *CrmManager) DeleteActivity(ctx context.Context, id primitive.ObjectID) error {
	return m.Activities.Delete(ctx, id)
}

// ensureCustomer trả common.ErrCustomerReference nếu khách không tồn tại
func (m *CrmManager) ensureCustomer(ctx context.Context, id primitive.ObjectID) error {
	ok, err := m.Customers.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrCustomerReference
	}
	return nil
}

func (m *CrmManager) withCustomerRefs(ctx context.Context, items []crmmodels.CrmActivity) ([]crmdto.CrmActivityResponse, error) {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.Customer)
	}
	refs, err := m.Customers.Refs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return crmdto.NewActivityResponses(items, refs), nil
}

func (m *CrmManager) singleResponse(ctx context.Context, a crmmodels.CrmActivity) (crmdto.CrmActivityResponse, error) {
	items, err := m.withCustomerRefs(ctx, []crmmodels.CrmActivity{a})
	if err != nil {
		return crmdto.CrmActivityResponse{}, err
	}
	return items[0], nil
}

// ====================================
// Hiệu ứng phụ
// ====================================

func (m *CrmManager) seedCreationActivity(ctx context.Context, c crmmodels.CrmCustomer) EffectResult {
	now := m.nowMillis()
	_, err := m.Activities.Create(ctx, crmmodels.CrmActivity{
		Customer:    c.ID,
		Type:        crmmodels.ActivityTypeStatusChange,
		Title:       "Customer Created",
		Description: fmt.Sprintf("Customer status set to %s", c.Status),
		Status:      crmmodels.ActivityStatusCompleted,
		CompletedAt: now,
		CreatedAt:   now,
	})
	return EffectResult{Name: EffectSeedCreation, Err: err}
}

func (m *CrmManager) recordStatusChange(ctx context.Context, customerID primitive.ObjectID, from, to crmmodels.CustomerStatus) EffectResult {
	now := m.nowMillis()
	_, err := m.Activities.Create(ctx, crmmodels.CrmActivity{
		Customer:    customerID,
		Type:        crmmodels.ActivityTypeStatusChange,
		Title:       "Status Updated",
		Description: fmt.Sprintf("Customer status changed from %s to %s", from, to),
		Status:      crmmodels.ActivityStatusCompleted,
		CompletedAt: now,
		CreatedAt:   now,
	})
	return EffectResult{Name: EffectStatusChange, Err: err}
}

// touchLastInteraction ghi lastInteraction >= createdAt của hoạt động
func (m *CrmManager) touchLastInteraction(ctx context.Context, a crmmodels.CrmActivity) EffectResult {
	at := m.nowMillis()
	if a.CreatedAt > at {
		at = a.CreatedAt
	}
	return EffectResult{Name: EffectLastInteraction, Err: m.Customers.TouchLastInteraction(ctx, a.Customer, at)}
}

func (m *CrmManager) stampCompletion(ctx context.Context, id primitive.ObjectID) EffectResult {
	_, err := m.Activities.StampCompletion(ctx, id, m.nowMillis())
	return EffectResult{Name: EffectStampCompletion, Err: err}
}

func (m *CrmManager) cascadeActivities(ctx context.Context, customerID primitive.ObjectID) EffectResult {
	_, err := m.Activities.DeleteByCustomer(ctx, customerID)
	return EffectResult{Name: EffectCascadeDeletions, Err: err}
}
