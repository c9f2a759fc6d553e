// Package models chứa các kiểu dùng chung cho layer repository/base (kết quả phân trang).
package models

import "sync/atomic"

// PaginateResult đại diện cho kết quả phân trang
type PaginateResult[T any] struct {
	// Trang hiện tại
	Page int64 `json:"page" bson:"page"`
	// Số lượng mục trên mỗi trang
	Limit int64 `json:"limit" bson:"limit"`
	// Số lượng mục trong trang hiện tại
	ItemCount int64 `json:"itemCount" bson:"itemCount"`
	// Danh sách các mục
	Items []T `json:"items" bson:"items"`
	// Tổng số mục
	Total int64 `json:"total" bson:"total"`
	// Tổng số trang = ceil(Total / Limit), 0 khi không có mục nào
	TotalPage int64 `json:"totalPage" bson:"totalPage"`
}

// Các giá trị mặc định của phân trang
const (
	DefaultPage     int64 = 1
	DefaultLimit    int64 = 10
	DefaultMaxLimit int64 = 100
)

var maxLimit atomic.Int64

func init() {
	maxLimit.Store(DefaultMaxLimit)
}

// MaxLimit trần hiện tại của limit, 0 = không giới hạn
func MaxLimit() int64 {
	return maxLimit.Load()
}

// SetMaxLimit đổi trần limit (CRM_MAX_PAGE_LIMIT). 0 tắt giới hạn, số âm về mặc định.
func SetMaxLimit(n int64) {
	if n < 0 {
		n = DefaultMaxLimit
	}
	maxLimit.Store(n)
}

// NormalizePage áp dụng mặc định: page < 1 -> 1, limit < 1 -> 10, limit > MaxLimit() -> MaxLimit()
func NormalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limitCap := MaxLimit(); limitCap > 0 && limit > limitCap {
		limit = limitCap
	}
	return page, limit
}

// TotalPages tính ceil(total / limit)
func TotalPages(total, limit int64) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// NewPaginateResult dựng kết quả phân trang từ một trang items và tổng số
func NewPaginateResult[T any](items []T, page, limit, total int64) *PaginateResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginateResult[T]{
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(items)),
		Items:     items,
		Total:     total,
		TotalPage: TotalPages(total, limit),
	}
}
