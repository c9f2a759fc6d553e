// Package crmtest chứa tiện ích chỉ dùng trong test của domain CRM:
// CustomerStore và ActivityStore trong bộ nhớ, có thể tiêm lỗi. Không import từ code production.
package crmtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	basemodels "mini_crm/internal/api/base/models"
	crmdto "mini_crm/internal/api/crm/dto"
	crmmodels "mini_crm/internal/api/crm/models"
	crmvc "mini_crm/internal/api/crm/service"
	"mini_crm/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ crmvc.CustomerStore = (*CustomerStore)(nil)
	_ crmvc.ActivityStore = (*ActivityStore)(nil)
)

// failures lỗi được cấu hình sẵn theo tên method, dùng để giả lập store lỗi
type failures struct {
	mu   sync.Mutex
	errs map[string]error
}

// Fail làm method trả err cho tới khi gọi Fail(method, nil)
func (f *failures) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

func (f *failures) failure(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[method]
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// ====================================
// Customers
// ====================================

// CustomerStore lưu khách hàng trong map, giữ ràng buộc email duy nhất
type CustomerStore struct {
	failures
	mu   sync.RWMutex
	docs map[primitive.ObjectID]crmmodels.CrmCustomer
}

func NewCustomerStore() *CustomerStore {
	return &CustomerStore{docs: map[primitive.ObjectID]crmmodels.CrmCustomer{}}
}

// All trả về bản sao mọi khách hàng
func (s *CustomerStore) All() []crmmodels.CrmCustomer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crmmodels.CrmCustomer, 0, len(s.docs))
	for _, c := range s.docs {
		out = append(out, c)
	}
	return out
}

func (s *CustomerStore) List(ctx context.Context, q crmdto.CrmCustomerListQuery) (*basemodels.PaginateResult[crmmodels.CrmCustomer], error) {
	if err := s.failure("List"); err != nil {
		return nil, err
	}
	var matched []crmmodels.CrmCustomer
	for _, c := range s.All() {
		if matchCustomer(c, q) {
			matched = append(matched, c)
		}
	}

	field, dir := crmvc.ResolveCustomerSort(q.SortBy, q.SortOrder)
	sort.SliceStable(matched, func(i, j int) bool {
		cmp := compareCustomers(matched[i], matched[j], field)
		if cmp == 0 {
			cmp = strings.Compare(matched[i].ID.Hex(), matched[j].ID.Hex())
		}
		if dir > 0 {
			return cmp < 0
		}
		return cmp > 0
	})

	return paginate(matched, q.Page, q.Limit), nil
}

func matchCustomer(c crmmodels.CrmCustomer, q crmdto.CrmCustomerListQuery) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) &&
			!strings.Contains(strings.ToLower(c.Company), needle) {
			return false
		}
	}
	if q.Status != "" && string(c.Status) != q.Status {
		return false
	}
	if q.Company != "" && c.Company != q.Company {
		return false
	}
	if len(q.Tags) > 0 {
		found := false
		for _, want := range q.Tags {
			for _, tag := range c.Tags {
				if tag == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func compareCustomers(a, b crmmodels.CrmCustomer, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "company":
		return strings.Compare(a.Company, b.Company)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "updatedAt":
		return compareInt(a.UpdatedAt, b.UpdatedAt)
	case "nextFollowUp":
		return compareInt(a.NextFollowUp, b.NextFollowUp)
	case "lastInteraction":
		return compareInt(a.LastInteraction, b.LastInteraction)
	}
	return compareInt(a.CreatedAt, b.CreatedAt)
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *CustomerStore) Get(ctx context.Context, id primitive.ObjectID) (crmmodels.CrmCustomer, error) {
	if err := s.failure("Get"); err != nil {
		return crmmodels.CrmCustomer{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.docs[id]
	if !ok {
		return crmmodels.CrmCustomer{}, common.ErrCustomerNotFound
	}
	return c, nil
}

func (s *CustomerStore) Refs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*crmmodels.CrmCustomerRef, error) {
	if err := s.failure("Refs"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := map[primitive.ObjectID]*crmmodels.CrmCustomerRef{}
	for _, id := range ids {
		if c, ok := s.docs[id]; ok {
			refs[id] = c.Ref()
		}
	}
	return refs, nil
}

func (s *CustomerStore) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if err := s.failure("Exists"); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok, nil
}

func (s *CustomerStore) emailTakenLocked(email string, except primitive.ObjectID) bool {
	for id, c := range s.docs {
		if id != except && c.Email == email {
			return true
		}
	}
	return false
}

func (s *CustomerStore) Create(ctx context.Context, c crmmodels.CrmCustomer) (crmmodels.CrmCustomer, error) {
	if err := s.failure("Create"); err != nil {
		return crmmodels.CrmCustomer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(c.Email, primitive.NilObjectID) {
		return crmmodels.CrmCustomer{}, common.ErrEmailTaken
	}
	now := nowMillis()
	c.ID = primitive.NewObjectID()
	c.LastInteraction = 0
	if c.Status == "" {
		c.Status = crmmodels.CustomerStatusLead
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.docs[c.ID] = c
	return c, nil
}

func (s *CustomerStore) Replace(ctx context.Context, id primitive.ObjectID, c crmmodels.CrmCustomer) (crmmodels.CrmCustomer, error) {
	if err := s.failure("Replace"); err != nil {
		return crmmodels.CrmCustomer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prior, ok := s.docs[id]
	if !ok {
		return crmmodels.CrmCustomer{}, common.ErrCustomerNotFound
	}
	if s.emailTakenLocked(c.Email, id) {
		return crmmodels.CrmCustomer{}, common.ErrEmailTaken
	}
	c.ID = id
	c.LastInteraction = prior.LastInteraction
	c.CreatedAt = prior.CreatedAt
	c.UpdatedAt = nowMillis()
	if c.Tags == nil {
		c.Tags = []string{}
	}
	s.docs[id] = c
	return prior, nil
}

func (s *CustomerStore) TouchLastInteraction(ctx context.Context, id primitive.ObjectID, at int64) error {
	if err := s.failure("TouchLastInteraction"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.docs[id]
	if !ok {
		return common.ErrCustomerNotFound
	}
	if at > c.LastInteraction {
		c.LastInteraction = at
	}
	c.UpdatedAt = nowMillis()
	s.docs[id] = c
	return nil
}

func (s *CustomerStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.failure("Delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return common.ErrCustomerNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *CustomerStore) Count(ctx context.Context) (int64, error) {
	if err := s.failure("Count"); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

func (s *CustomerStore) CountByStatus(ctx context.Context) (map[crmmodels.CustomerStatus]int64, error) {
	if err := s.failure("CountByStatus"); err != nil {
		return nil, err
	}
	counts := map[crmmodels.CustomerStatus]int64{}
	for _, st := range crmmodels.CustomerStatuses {
		counts[st] = 0
	}
	for _, c := range s.All() {
		counts[c.Status]++
	}
	return counts, nil
}

// ====================================
// Activities
// ====================================

// ActivityStore lưu hoạt động trong map
type ActivityStore struct {
	failures
	mu   sync.RWMutex
	docs map[primitive.ObjectID]crmmodels.CrmActivity
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{docs: map[primitive.ObjectID]crmmodels.CrmActivity{}}
}

// All trả về mọi hoạt động, mới nhất trước
func (s *ActivityStore) All() []crmmodels.CrmActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crmmodels.CrmActivity, 0, len(s.docs))
	for _, a := range s.docs {
		out = append(out, a)
	}
	sortNewestFirst(out)
	return out
}

// ByCustomer trả về hoạt động của một khách, mới nhất trước
func (s *ActivityStore) ByCustomer(customerID primitive.ObjectID) []crmmodels.CrmActivity {
	return s.filter(crmvc.ActivityFilter{CustomerID: customerID})
}

// sortNewestFirst sắp createdAt giảm dần; ObjectID tăng theo thứ tự tạo nên dùng làm tie-break
func sortNewestFirst(items []crmmodels.CrmActivity) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID.Hex() > items[j].ID.Hex()
	})
}

func (s *ActivityStore) filter(f crmvc.ActivityFilter) []crmmodels.CrmActivity {
	var out []crmmodels.CrmActivity
	for _, a := range s.All() {
		if !f.CustomerID.IsZero() && a.Customer != f.CustomerID {
			continue
		}
		if f.Type != "" && string(a.Type) != f.Type {
			continue
		}
		if f.Status != "" && string(a.Status) != f.Status {
			continue
		}
		if f.DueFrom != 0 && (a.DueDate == 0 || a.DueDate < f.DueFrom) {
			continue
		}
		if f.DueTo != 0 && (a.DueDate == 0 || a.DueDate >= f.DueTo) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *ActivityStore) List(ctx context.Context, f crmvc.ActivityFilter, page, limit int64) (*basemodels.PaginateResult[crmmodels.CrmActivity], error) {
	if err := s.failure("List"); err != nil {
		return nil, err
	}
	return paginate(s.filter(f), page, limit), nil
}

func (s *ActivityStore) Get(ctx context.Context, id primitive.ObjectID) (crmmodels.CrmActivity, error) {
	if err := s.failure("Get"); err != nil {
		return crmmodels.CrmActivity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.docs[id]
	if !ok {
		return crmmodels.CrmActivity{}, common.ErrActivityNotFound
	}
	return a, nil
}

func (s *ActivityStore) Recent(ctx context.Context, customerID primitive.ObjectID, n int64) ([]crmmodels.CrmActivity, error) {
	if err := s.failure("Recent"); err != nil {
		return nil, err
	}
	items := s.filter(crmvc.ActivityFilter{CustomerID: customerID})
	if int64(len(items)) > n {
		items = items[:n]
	}
	if items == nil {
		items = []crmmodels.CrmActivity{}
	}
	return items, nil
}

func (s *ActivityStore) Create(ctx context.Context, a crmmodels.CrmActivity) (crmmodels.CrmActivity, error) {
	if err := s.failure("Create"); err != nil {
		return crmmodels.CrmActivity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := nowMillis()
	a.ID = primitive.NewObjectID()
	if a.Status == "" {
		a.Status = crmmodels.ActivityStatusPending
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.docs[a.ID] = a
	return a, nil
}

func (s *ActivityStore) Replace(ctx context.Context, id primitive.ObjectID, a crmmodels.CrmActivity) (crmmodels.CrmActivity, error) {
	if err := s.failure("Replace"); err != nil {
		return crmmodels.CrmActivity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prior, ok := s.docs[id]
	if !ok {
		return crmmodels.CrmActivity{}, common.ErrActivityNotFound
	}
	a.ID = id
	a.CompletedAt = prior.CompletedAt
	a.CreatedAt = prior.CreatedAt
	a.UpdatedAt = nowMillis()
	s.docs[id] = a
	return a, nil
}

func (s *ActivityStore) StampCompletion(ctx context.Context, id primitive.ObjectID, at int64) (bool, error) {
	if err := s.failure("StampCompletion"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.docs[id]
	if !ok || a.CompletedAt != 0 {
		return false, nil
	}
	a.CompletedAt = at
	a.UpdatedAt = nowMillis()
	s.docs[id] = a
	return true, nil
}

func (s *ActivityStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.failure("Delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return common.ErrActivityNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *ActivityStore) DeleteByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error) {
	if err := s.failure("DeleteByCustomer"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, a := range s.docs {
		if a.Customer == customerID {
			delete(s.docs, id)
			n++
		}
	}
	return n, nil
}

func (s *ActivityStore) Count(ctx context.Context, f crmvc.ActivityFilter) (int64, error) {
	if err := s.failure("Count"); err != nil {
		return 0, err
	}
	return int64(len(s.filter(f))), nil
}

// ====================================
// helpers
// ====================================

func paginate[T any](items []T, page, limit int64) *basemodels.PaginateResult[T] {
	page, limit = basemodels.NormalizePage(page, limit)
	total := int64(len(items))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return basemodels.NewPaginateResult(items[start:end], page, limit, total)
}
