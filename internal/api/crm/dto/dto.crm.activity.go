package dto

import (
	"strings"

	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/common"
	"mini_crm/internal/utility"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CrmActivityInput payload tạo/cập nhật hoạt động.
type CrmActivityInput struct {
	Customer    string `json:"customer" validate:"notblank"`
	Type        string `json:"type" validate:"required,oneof=note call email meeting task status_change"`
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	DueDate     string `json:"dueDate" validate:"omitempty,iso8601"`
}

func (in *CrmActivityInput) normalize() {
	in.Customer = strings.TrimSpace(in.Customer)
	in.Type = strings.TrimSpace(in.Type)
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.TrimSpace(in.Status)
	in.DueDate = strings.TrimSpace(in.DueDate)
}

// ParseActivityInput decode + validate body thành CrmActivityInput
func ParseActivityInput(body []byte) (*CrmActivityInput, error) {
	var in CrmActivityInput
	if err := DecodeAndValidate(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// ToModel dựng CrmActivity từ input đã validate. Status rỗng -> pending.
// Customer id sai định dạng không thể tham chiếu khách nào nên trả common.ErrCustomerReference.
func (in *CrmActivityInput) ToModel() (crmmodels.CrmActivity, error) {
	customerID, err := primitive.ObjectIDFromHex(in.Customer)
	if err != nil {
		return crmmodels.CrmActivity{}, common.ErrCustomerReference
	}
	activityType, err := crmmodels.ParseActivityType(in.Type)
	if err != nil {
		return crmmodels.CrmActivity{}, err
	}
	status := crmmodels.ActivityStatusPending
	if in.Status != "" {
		if status, err = crmmodels.ParseActivityStatus(in.Status); err != nil {
			return crmmodels.CrmActivity{}, err
		}
	}
	dueDate, err := parseOptionalTime(in.DueDate)
	if err != nil {
		return crmmodels.CrmActivity{}, err
	}

	return crmmodels.CrmActivity{
		Customer:    customerID,
		Type:        activityType,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     dueDate,
	}, nil
}

// CrmActivityListQuery tham số GET /activities
type CrmActivityListQuery struct {
	CustomerID primitive.ObjectID
	Type       string
	Status     string
	Page       int64
	Limit      int64
}

// ParseActivityListQuery đọc query string. customerId sai định dạng trả common.ErrInvalidID.
func ParseActivityListQuery(get func(key string) string) (CrmActivityListQuery, error) {
	page, limit := parsePageLimit(get("page"), get("limit"))
	q := CrmActivityListQuery{
		Type:   strings.TrimSpace(get("type")),
		Status: strings.TrimSpace(get("status")),
		Page:   page,
		Limit:  limit,
	}
	if raw := strings.TrimSpace(get("customerId")); raw != "" {
		id, err := utility.ParseObjectID(raw)
		if err != nil {
			return q, common.ErrInvalidID
		}
		q.CustomerID = id
	}
	return q, nil
}

// CrmActivityResponse hoạt động kèm projection khách hàng (null nếu khách không còn).
type CrmActivityResponse struct {
	crmmodels.CrmActivity
	Customer *crmmodels.CrmCustomerRef `json:"customer"`
}

// NewActivityResponses gắn projection khách cho từng hoạt động theo map id -> khách
func NewActivityResponses(items []crmmodels.CrmActivity, refs map[primitive.ObjectID]*crmmodels.CrmCustomerRef) []CrmActivityResponse {
	out := make([]CrmActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, CrmActivityResponse{CrmActivity: a, Customer: refs[a.Customer]})
	}
	return out
}

// CrmDashboardStats dữ liệu GET /dashboard/stats
type CrmDashboardStats struct {
	TotalCustomers    int64                 `json:"totalCustomers"`
	ActiveLeads       int64                 `json:"activeLeads"`
	CustomersByStatus map[string]int64      `json:"customersByStatus"`
	PendingTasks      int64                 `json:"pendingTasks"`
	TasksDueToday     int64                 `json:"tasksDueToday"`
	RecentActivities  []CrmActivityResponse `json:"recentActivities"`
}
