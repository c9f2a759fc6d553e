package crmvc

import (
	"regexp"

	basesvc "mini_crm/internal/api/base/service"
	crmdto "mini_crm/internal/api/crm/dto"
	crmmodels "mini_crm/internal/api/crm/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCustomerSort field sắp xếp khi sortBy rỗng hoặc không được hỗ trợ
const DefaultCustomerSort = "createdAt"

// CustomerSortFields các field được phép sắp xếp
var CustomerSortFields = map[string]bool{
	"name":            true,
	"email":           true,
	"company":         true,
	"status":          true,
	"createdAt":       true,
	"updatedAt":       true,
	"nextFollowUp":    true,
	"lastInteraction": true,
}

// ResolveCustomerSort trả về field và hướng sắp xếp: "asc" -> 1, còn lại -> -1
func ResolveCustomerSort(sortBy, sortOrder string) (string, int) {
	if !CustomerSortFields[sortBy] {
		sortBy = DefaultCustomerSort
	}
	if sortOrder == "asc" {
		return sortBy, 1
	}
	return sortBy, -1
}

// BuildCustomerSort dựng sort, thêm _id để thứ tự ổn định giữa các trang
func BuildCustomerSort(sortBy, sortOrder string) bson.D {
	field, dir := ResolveCustomerSort(sortBy, sortOrder)
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// BuildCustomerFilter dựng filter cho GET /customers.
// search: chuỗi con không phân biệt hoa thường trên name, email hoặc company (ký tự regex được escape).
func BuildCustomerFilter(q crmdto.CrmCustomerListQuery) bson.M {
	filter := bson.M{}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"email": re},
			bson.M{"company": re},
		}
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Company != "" {
		filter["company"] = q.Company
	}
	if len(q.Tags) > 0 {
		filter["tags"] = bson.M{"$in": q.Tags}
	}
	return filter
}

// BuildActivityFilter dựng filter cho crm_activities
func BuildActivityFilter(f ActivityFilter) bson.M {
	filter := bson.M{}
	if !f.CustomerID.IsZero() {
		filter["customer"] = f.CustomerID
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.DueFrom != 0 || f.DueTo != 0 {
		due := bson.M{}
		if f.DueFrom != 0 {
			due["$gte"] = f.DueFrom
		}
		if f.DueTo != 0 {
			due["$lt"] = f.DueTo
		}
		filter["dueDate"] = due
	}
	return filter
}

// BuildCustomerReplaceUpdate thay toàn bộ field sửa được; field tùy chọn bị bỏ trống sẽ bị xóa.
// lastInteraction và createdAt giữ nguyên.
func BuildCustomerReplaceUpdate(c crmmodels.CrmCustomer) *basesvc.UpdateData {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	u := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"name":   c.Name,
			"email":  c.Email,
			"status": c.Status,
			"tags":   tags,
		},
		Unset: map[string]interface{}{},
	}
	setOrUnset(u, "phone", c.Phone, c.Phone == "")
	setOrUnset(u, "company", c.Company, c.Company == "")
	setOrUnset(u, "notes", c.Notes, c.Notes == "")
	setOrUnset(u, "address", c.Address, c.Address.IsEmpty())
	setOrUnset(u, "customFields", c.CustomFields, len(c.CustomFields) == 0)
	setOrUnset(u, "nextFollowUp", c.NextFollowUp, c.NextFollowUp == 0)
	return u
}

// BuildActivityReplaceUpdate thay các field sửa được của hoạt động, completedAt giữ nguyên
func BuildActivityReplaceUpdate(a crmmodels.CrmActivity) *basesvc.UpdateData {
	u := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"customer": a.Customer,
			"type":     a.Type,
			"title":    a.Title,
			"status":   a.Status,
		},
		Unset: map[string]interface{}{},
	}
	setOrUnset(u, "description", a.Description, a.Description == "")
	setOrUnset(u, "dueDate", a.DueDate, a.DueDate == 0)
	return u
}

func setOrUnset(u *basesvc.UpdateData, field string, value interface{}, empty bool) {
	if empty {
		u.Unset[field] = ""
		return
	}
	u.Set[field] = value
}
