package services

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"time"

	basemodels "mini_crm/internal/api/base/models"
	"mini_crm/internal/api/events"
	"mini_crm/internal/common"
	"mini_crm/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpdateData gom các toán tử update của MongoDB
type UpdateData struct {
	Set   map[string]interface{} `bson:"$set,omitempty"`   // Các trường cần update
	Unset map[string]interface{} `bson:"$unset,omitempty"` // Các trường cần xóa
	Max   map[string]interface{} `bson:"$max,omitempty"`   // Chỉ ghi khi giá trị mới lớn hơn
}

// ToUpdateData chuyển đổi interface{} thành UpdateData.
// Map có sẵn "$set"/"$unset"/"$max" được giữ nguyên toán tử, struct hoặc map thường được bọc trong $set.
func ToUpdateData(data interface{}) (*UpdateData, error) {
	switch v := data.(type) {
	case *UpdateData:
		return v, nil
	case UpdateData:
		return &v, nil
	}

	dataMap, ok := data.(map[string]interface{})
	if !ok {
		var err error
		dataMap, err = utility.ToMap(data)
		if err != nil {
			return nil, err
		}
	}

	_, hasSet := dataMap["$set"]
	_, hasUnset := dataMap["$unset"]
	_, hasMax := dataMap["$max"]
	if hasSet || hasUnset || hasMax {
		update := &UpdateData{}
		update.Set = asMap(dataMap["$set"])
		update.Unset = asMap(dataMap["$unset"])
		update.Max = asMap(dataMap["$max"])
		return update, nil
	}
	return &UpdateData{Set: dataMap}, nil
}

func asMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case bson.M:
		return m
	}
	return nil
}

// ====================================
// STRUCT
// ====================================

// BaseServiceMongoImpl triển khai các thao tác MongoDB dùng chung cho một collection.
// Mọi lỗi driver đi qua common.ConvertMongoError; ghi thành công phát events.DataChangeEvent.
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

// NewBaseServiceMongo tạo mới một BaseServiceMongoImpl
func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	return &BaseServiceMongoImpl[T]{
		collection: collection,
	}
}

// Collection trả về collection MongoDB
func (s *BaseServiceMongoImpl[T]) Collection() *mongo.Collection {
	return s.collection
}

// ====================================
// 1. Insert
// ====================================

// InsertOne tạo mới một bản ghi. Áp dụng tag `default`, bỏ chuỗi rỗng,
// set createdAt/updatedAt nếu model chưa có, rồi đọc lại bản ghi đã lưu.
func (s *BaseServiceMongoImpl[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	applyInsertDefaultsToModel(&data)

	dataMap, err := utility.ToMap(data)
	if err != nil {
		return zero, common.NewError(common.ErrCodeValidationFormat, err.Error(), common.StatusBadRequest, nil)
	}
	utility.DropEmptyStrings(dataMap)

	now := time.Now().UnixMilli()
	for _, key := range []string{"createdAt", "updatedAt"} {
		if v, ok := dataMap[key].(int64); !ok || v == 0 {
			dataMap[key] = now
		}
	}

	result, err := s.collection.InsertOne(ctx, dataMap)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	var created T
	if err := s.collection.FindOne(ctx, bson.M{"_id": result.InsertedID}).Decode(&created); err != nil {
		return zero, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      events.OpInsert,
		Document:       created,
	})
	return created, nil
}

// ====================================
// 2. Find
// ====================================

// FindOne tìm một bản ghi, trả common.ErrNotFound nếu không có
func (s *BaseServiceMongoImpl[T]) FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (T, error) {
	var result T
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.FindOne()
	}
	if err := s.collection.FindOne(ctx, filter, opts).Decode(&result); err != nil {
		var zero T
		return zero, common.ConvertMongoError(err)
	}
	return result, nil
}

// Find tìm tất cả bản ghi khớp filter
func (s *BaseServiceMongoImpl[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	if filter == nil {
		filter = bson.D{}
	}
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// FindOneById tìm bản ghi theo _id
func (s *BaseServiceMongoImpl[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	return s.FindOne(ctx, bson.M{"_id": id}, nil)
}

// FindManyByIds tìm các bản ghi có _id nằm trong ids
func (s *BaseServiceMongoImpl[T]) FindManyByIds(ctx context.Context, ids []primitive.ObjectID, opts *options.FindOptions) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

// FindWithPagination tìm bản ghi theo trang. Page/limit được chuẩn hóa bởi basemodels.NormalizePage.
func (s *BaseServiceMongoImpl[T]) FindWithPagination(ctx context.Context, filter interface{}, page, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[T], error) {
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.Find()
	}

	page, limit = basemodels.NormalizePage(page, limit)
	opts.SetSkip((page - 1) * limit)
	opts.SetLimit(limit)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	items, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	return basemodels.NewPaginateResult(items, page, limit, total), nil
}

// CountDocuments đếm số bản ghi khớp filter
func (s *BaseServiceMongoImpl[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}
	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return count, nil
}

// DocumentExists kiểm tra có ít nhất một bản ghi khớp filter
func (s *BaseServiceMongoImpl[T]) DocumentExists(ctx context.Context, filter interface{}) (bool, error) {
	if filter == nil {
		filter = bson.D{}
	}
	count, err := s.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, common.ConvertMongoError(err)
	}
	return count > 0, nil
}

// ====================================
// 3. Update
// ====================================

// UpdateOne cập nhật một bản ghi, luôn stamp updatedAt. Trả về số bản ghi khớp filter.
func (s *BaseServiceMongoImpl[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	updateData, err := ToUpdateData(update)
	if err != nil {
		return 0, common.NewError(common.ErrCodeValidationFormat, err.Error(), common.StatusBadRequest, nil)
	}
	stampUpdatedAt(updateData)

	result, err := s.collection.UpdateOne(ctx, filter, updateData)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}

	if result.ModifiedCount > 0 {
		events.EmitDataChanged(ctx, events.DataChangeEvent{
			CollectionName: s.collection.Name(),
			Operation:      events.OpUpdate,
			DocumentID:     idFromFilter(filter),
			Count:          result.ModifiedCount,
		})
	}
	return result.MatchedCount, nil
}

// FindOneAndUpdate cập nhật nguyên tử một bản ghi và trả về bản ghi theo opts
// (mặc định của driver là bản ghi TRƯỚC khi cập nhật). Luôn stamp updatedAt.
func (s *BaseServiceMongoImpl[T]) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts *options.FindOneAndUpdateOptions) (T, error) {
	var zero T
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.FindOneAndUpdate()
	}

	updateData, err := ToUpdateData(update)
	if err != nil {
		return zero, common.NewError(common.ErrCodeValidationFormat, err.Error(), common.StatusBadRequest, nil)
	}
	stampUpdatedAt(updateData)

	var result T
	if err := s.collection.FindOneAndUpdate(ctx, filter, updateData, opts).Decode(&result); err != nil {
		return zero, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      events.OpUpdate,
		Document:       result,
	})
	return result, nil
}

func stampUpdatedAt(u *UpdateData) {
	if u.Set == nil {
		u.Set = make(map[string]interface{})
	}
	u.Set["updatedAt"] = time.Now().UnixMilli()
}

// ====================================
// 4. Delete
// ====================================

// DeleteById xóa bản ghi theo _id, trả common.ErrNotFound nếu không có
func (s *BaseServiceMongoImpl[T]) DeleteById(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      events.OpDelete,
		DocumentID:     id,
		Count:          1,
	})
	return nil
}

// DeleteMany xóa các bản ghi khớp filter, trả về số bản ghi đã xóa
func (s *BaseServiceMongoImpl[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}
	result, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}

	if result.DeletedCount > 0 {
		events.EmitDataChanged(ctx, events.DataChangeEvent{
			CollectionName: s.collection.Name(),
			Operation:      events.OpDelete,
			Count:          result.DeletedCount,
		})
	}
	return result.DeletedCount, nil
}

// idFromFilter lấy _id khi filter có dạng bson.M{"_id": ObjectID, ...}
func idFromFilter(filter interface{}) primitive.ObjectID {
	if m, ok := filter.(bson.M); ok {
		if id, ok := m["_id"].(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}

// ====================================
// 5. Default từ struct tag
// ====================================

// applyInsertDefaultsToModel gán giá trị tag `default` cho các field đang zero.
// ptr phải là con trỏ tới struct.
func applyInsertDefaultsToModel(ptr interface{}) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	struc := v.Elem()
	if struc.Kind() != reflect.Struct {
		return
	}

	rt := struc.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		defaultStr, ok := f.Tag.Lookup("default")
		if !ok || defaultStr == "" {
			continue
		}
		fieldVal := struc.Field(i)
		if !fieldVal.CanSet() || !fieldVal.IsZero() {
			continue
		}
		if val, ok := parseDefaultValue(defaultStr, f.Type); ok {
			fieldVal.Set(val)
		}
	}
}

// parseDefaultValue chuyển chuỗi tag default sang giá trị đúng kiểu (bool, int*, string và kiểu dẫn xuất)
func parseDefaultValue(s string, t reflect.Type) (reflect.Value, bool) {
	s = strings.TrimSpace(s)
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return out, false
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return out, false
		}
		out.SetInt(n)
	case reflect.String:
		out.SetString(s)
	default:
		return out, false
	}
	return out, true
}
