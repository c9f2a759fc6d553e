package dto

import (
	"strconv"
	"strings"

	basemodels "mini_crm/internal/api/base/models"
	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/utility"
)

// CrmAddressInput địa chỉ trong payload khách hàng.
type CrmAddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// CrmCustomerInput payload tạo/cập nhật khách hàng (PUT thay toàn bộ field có thể sửa).
type CrmCustomerInput struct {
	Name         string            `json:"name" validate:"notblank"`
	Email        string            `json:"email" validate:"required,email"`
	Phone        string            `json:"phone"`
	Company      string            `json:"company"`
	Status       string            `json:"status" validate:"omitempty,oneof=lead prospect customer inactive"`
	Address      *CrmAddressInput  `json:"address"`
	Tags         []string          `json:"tags"`
	CustomFields map[string]string `json:"customFields"`
	NextFollowUp string            `json:"nextFollowUp" validate:"omitempty,iso8601"`
	Notes        string            `json:"notes"`
}

func (in *CrmCustomerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Company = strings.TrimSpace(in.Company)
	in.Status = strings.TrimSpace(in.Status)
	in.NextFollowUp = strings.TrimSpace(in.NextFollowUp)
	in.Tags = trimAll(in.Tags)
	if in.Address != nil {
		in.Address.Street = strings.TrimSpace(in.Address.Street)
		in.Address.City = strings.TrimSpace(in.Address.City)
		in.Address.State = strings.TrimSpace(in.Address.State)
		in.Address.ZipCode = strings.TrimSpace(in.Address.ZipCode)
		in.Address.Country = strings.TrimSpace(in.Address.Country)
	}
}

// ParseCustomerInput decode + validate body thành CrmCustomerInput
func ParseCustomerInput(body []byte) (*CrmCustomerInput, error) {
	var in CrmCustomerInput
	if err := DecodeAndValidate(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// ToModel dựng CrmCustomer từ input đã validate. Status rỗng -> lead.
// ID, lastInteraction và timestamps do store/business rule quản lý.
func (in *CrmCustomerInput) ToModel() (crmmodels.CrmCustomer, error) {
	status := crmmodels.CustomerStatusLead
	if in.Status != "" {
		s, err := crmmodels.ParseCustomerStatus(in.Status)
		if err != nil {
			return crmmodels.CrmCustomer{}, err
		}
		status = s
	}
	nextFollowUp, err := parseOptionalTime(in.NextFollowUp)
	if err != nil {
		return crmmodels.CrmCustomer{}, err
	}

	customer := crmmodels.CrmCustomer{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Company:      in.Company,
		Status:       status,
		Tags:         in.Tags,
		CustomFields: in.CustomFields,
		NextFollowUp: nextFollowUp,
		Notes:        in.Notes,
	}
	if customer.Tags == nil {
		customer.Tags = []string{}
	}
	if in.Address != nil {
		addr := crmmodels.CrmAddress(*in.Address)
		if !addr.IsEmpty() {
			customer.Address = &addr
		}
	}
	if len(customer.CustomFields) == 0 {
		customer.CustomFields = nil
	}
	return customer, nil
}

// CrmCustomerListQuery tham số GET /customers
type CrmCustomerListQuery struct {
	Search    string
	Status    string
	Company   string
	Tags      []string
	Page      int64
	Limit     int64
	SortBy    string
	SortOrder string
}

// ParseCustomerListQuery đọc query string qua hàm get (thường là c.Query).
// page/limit không phải số hoặc < 1 dùng mặc định, limit tối đa basemodels.MaxLimit() (CRM_MAX_PAGE_LIMIT).
func ParseCustomerListQuery(get func(key string) string) CrmCustomerListQuery {
	page, limit := parsePageLimit(get("page"), get("limit"))
	return CrmCustomerListQuery{
		Search:    strings.TrimSpace(get("search")),
		Status:    strings.TrimSpace(get("status")),
		Company:   strings.TrimSpace(get("company")),
		Tags:      utility.SplitCSV(get("tags")),
		Page:      page,
		Limit:     limit,
		SortBy:    strings.TrimSpace(get("sortBy")),
		SortOrder: strings.ToLower(strings.TrimSpace(get("sortOrder"))),
	}
}

func parsePageLimit(pageStr, limitStr string) (int64, int64) {
	page, err := strconv.ParseInt(strings.TrimSpace(pageStr), 10, 64)
	if err != nil {
		page = 0
	}
	limit, err := strconv.ParseInt(strings.TrimSpace(limitStr), 10, 64)
	if err != nil {
		limit = 0
	}
	return basemodels.NormalizePage(page, limit)
}

// CrmCustomerDetailResponse dữ liệu GET /customers/:id
type CrmCustomerDetailResponse struct {
	Customer         crmmodels.CrmCustomer `json:"customer"`
	RecentActivities []CrmActivityResponse `json:"recentActivities"`
}
