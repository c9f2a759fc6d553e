package crmvc

import (
	"context"
	"errors"
	"fmt"

	basemodels "mini_crm/internal/api/base/models"
	basesvc "mini_crm/internal/api/base/service"
	crmdto "mini_crm/internal/api/crm/dto"
	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/common"
	"mini_crm/internal/global"
	"mini_crm/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CrmCustomerService triển khai CustomerStore trên MongoDB (crm_customers).
type CrmCustomerService struct {
	*basesvc.BaseServiceMongoImpl[crmmodels.CrmCustomer]
}

// NewCrmCustomerService tạo CrmCustomerService từ collection đã đăng ký.
func NewCrmCustomerService() (*CrmCustomerService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.CrmCustomers)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.CrmCustomers, common.ErrNotFound)
	}
	return NewCrmCustomerServiceWithCollection(coll), nil
}

// NewCrmCustomerServiceWithCollection tạo CrmCustomerService trên collection cho trước
func NewCrmCustomerServiceWithCollection(coll *mongo.Collection) *CrmCustomerService {
	return &CrmCustomerService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[crmmodels.CrmCustomer](coll),
	}
}

// customerError đổi lỗi nhóm sang lỗi cụ thể của khách hàng
func customerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrNotFound):
		return common.ErrCustomerNotFound
	case errors.Is(err, common.ErrDuplicate):
		return common.ErrEmailTaken
	}
	return err
}

// List trả về một trang khách hàng theo filter và sort
func (s *CrmCustomerService) List(ctx context.Context, q crmdto.CrmCustomerListQuery) (*basemodels.PaginateResult[crmmodels.CrmCustomer], error) {
	opts := options.Find().SetSort(BuildCustomerSort(q.SortBy, q.SortOrder))
	return s.FindWithPagination(ctx, BuildCustomerFilter(q), q.Page, q.Limit, opts)
}

// Get trả về khách hàng theo id
func (s *CrmCustomerService) Get(ctx context.Context, id primitive.ObjectID) (crmmodels.CrmCustomer, error) {
	c, err := s.FindOneById(ctx, id)
	return c, customerError(err)
}

// Refs trả về projection {id, name, email, company} của các khách theo id
func (s *CrmCustomerService) Refs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*crmmodels.CrmCustomerRef, error) {
	refs := make(map[primitive.ObjectID]*crmmodels.CrmCustomerRef)
	ids = utility.UniqueObjectIDs(ids)
	if len(ids) == 0 {
		return refs, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1, "company": 1})
	customers, err := s.FindManyByIds(ctx, ids, opts)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		refs[customers[i].ID] = customers[i].Ref()
	}
	return refs, nil
}

// Exists kiểm tra khách hàng tồn tại
func (s *CrmCustomerService) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.DocumentExists(ctx, bson.M{"_id": id})
}

// Create lưu khách hàng mới, email trùng trả common.ErrEmailTaken
func (s *CrmCustomerService) Create(ctx context.Context, c crmmodels.CrmCustomer) (crmmodels.CrmCustomer, error) {
	c.ID = primitive.NilObjectID
	c.LastInteraction = 0
	created, err := s.InsertOne(ctx, c)
	return created, customerError(err)
}

// Replace thay field sửa được và trả về bản ghi trước khi ghi
func (s *CrmCustomerService) Replace(ctx context.Context, id primitive.ObjectID, c crmmodels.CrmCustomer) (crmmodels.CrmCustomer, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	prior, err := s.FindOneAndUpdate(ctx, bson.M{"_id": id}, BuildCustomerReplaceUpdate(c), opts)
	return prior, customerError(err)
}

// TouchLastInteraction ghi lastInteraction, không lùi về thời điểm cũ hơn giá trị đang có
func (s *CrmCustomerService) TouchLastInteraction(ctx context.Context, id primitive.ObjectID, at int64) error {
	matched, err := s.UpdateOne(ctx, bson.M{"_id": id}, &basesvc.UpdateData{
		Max: map[string]interface{}{"lastInteraction": at},
	})
	if err != nil {
		return err
	}
	if matched == 0 {
		return common.ErrCustomerNotFound
	}
	return nil
}

// Delete xóa khách hàng theo id
func (s *CrmCustomerService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return customerError(s.DeleteById(ctx, id))
}

// Count tổng số khách hàng
func (s *CrmCustomerService) Count(ctx context.Context) (int64, error) {
	return s.CountDocuments(ctx, bson.M{})
}

// CountByStatus đếm khách theo trạng thái bằng aggregate $group
func (s *CrmCustomerService) CountByStatus(ctx context.Context) (map[crmmodels.CustomerStatus]int64, error) {
	pipeline := bson.A{
		bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := s.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status crmmodels.CustomerStatus `bson:"_id"`
		Count  int64                    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, common.ConvertMongoError(err)
	}

	counts := make(map[crmmodels.CustomerStatus]int64, len(crmmodels.CustomerStatuses))
	for _, st := range crmmodels.CustomerStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
