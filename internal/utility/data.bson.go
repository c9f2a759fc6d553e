package utility

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ToMap chuyển struct (theo tag bson) thành map để thêm/bớt field trước khi ghi
func ToMap(s interface{}) (map[string]interface{}, error) {
	raw, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("bson marshal failed: %w", err)
	}

	var out map[string]interface{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("bson unmarshal failed: %w", err)
	}
	return out, nil
}

// DropEmptyStrings xóa các key có giá trị chuỗi rỗng.
// Sparse index chỉ bỏ qua field không tồn tại, không bỏ qua "".
func DropEmptyStrings(m map[string]interface{}) {
	for key, value := range m {
		if s, ok := value.(string); ok && s == "" {
			delete(m, key)
		}
	}
}
