package crmvc

import (
	"context"
	"errors"
	"fmt"

	basemodels "mini_crm/internal/api/base/models"
	basesvc "mini_crm/internal/api/base/service"
	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/common"
	"mini_crm/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CrmActivityService triển khai ActivityStore trên MongoDB (crm_activities).
type CrmActivityService struct {
	*basesvc.BaseServiceMongoImpl[crmmodels.CrmActivity]
}

// NewCrmActivityService tạo CrmActivityService từ collection đã đăng ký.
func NewCrmActivityService() (*CrmActivityService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.CrmActivities)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.CrmActivities, common.ErrNotFound)
	}
	return NewCrmActivityServiceWithCollection(coll), nil
}

// NewCrmActivityServiceWithCollection tạo CrmActivityService trên collection cho trước
func NewCrmActivityServiceWithCollection(coll *mongo.Collection) *CrmActivityService {
	return &CrmActivityService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[crmmodels.CrmActivity](coll),
	}
}

func activityError(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrActivityNotFound
	}
	return err
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// List trả về một trang hoạt động, mới nhất trước
func (s *CrmActivityService) List(ctx context.Context, f ActivityFilter, page, limit int64) (*basemodels.PaginateResult[crmmodels.CrmActivity], error) {
	opts := options.Find().SetSort(newestFirst)
	return s.FindWithPagination(ctx, BuildActivityFilter(f), page, limit, opts)
}

// Get trả về hoạt động theo id
func (s *CrmActivityService) Get(ctx context.Context, id primitive.ObjectID) (crmmodels.CrmActivity, error) {
	a, err := s.FindOneById(ctx, id)
	return a, activityError(err)
}

// Recent trả về n hoạt động mới nhất của khách (hoặc toàn hệ thống khi customerID zero)
func (s *CrmActivityService) Recent(ctx context.Context, customerID primitive.ObjectID, n int64) ([]crmmodels.CrmActivity, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(n)
	return s.Find(ctx, BuildActivityFilter(ActivityFilter{CustomerID: customerID}), opts)
}

// Create lưu hoạt động mới. Việc kiểm tra khách tồn tại thuộc về CrmManager.
func (s *CrmActivityService) Create(ctx context.Context, a crmmodels.CrmActivity) (crmmodels.CrmActivity, error) {
	a.ID = primitive.NilObjectID
	return s.InsertOne(ctx, a)
}

// Replace thay field sửa được và trả về bản ghi sau khi ghi
func (s *CrmActivityService) Replace(ctx context.Context, id primitive.ObjectID, a crmmodels.CrmActivity) (crmmodels.CrmActivity, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	updated, err := s.FindOneAndUpdate(ctx, bson.M{"_id": id}, BuildActivityReplaceUpdate(a), opts)
	return updated, activityError(err)
}

// StampCompletion ghi completedAt có điều kiện {completedAt: {$exists: false}} nên chỉ xảy ra một lần
func (s *CrmActivityService) StampCompletion(ctx context.Context, id primitive.ObjectID, at int64) (bool, error) {
	filter := bson.M{"_id": id, "completedAt": bson.M{"$exists": false}}
	matched, err := s.UpdateOne(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{"completedAt": at},
	})
	if err != nil {
		return false, err
	}
	return matched > 0, nil
}

// Delete xóa hoạt động theo id
func (s *CrmActivityService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return activityError(s.DeleteById(ctx, id))
}

// DeleteByCustomer xóa mọi hoạt động của khách
func (s *CrmActivityService) DeleteByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, bson.M{"customer": customerID})
}

// Count đếm hoạt động theo filter
func (s *CrmActivityService) Count(ctx context.Context, f ActivityFilter) (int64, error) {
	return s.CountDocuments(ctx, BuildActivityFilter(f))
}
