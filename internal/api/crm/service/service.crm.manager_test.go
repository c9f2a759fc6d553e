package crmvc_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"mini_crm/internal/api/crm/dto"
	"mini_crm/internal/api/crm/crmtest"
	crmmodels "mini_crm/internal/api/crm/models"
	crmvc "mini_crm/internal/api/crm/service"
	"mini_crm/internal/common"
	"mini_crm/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	_ = logger.Init(&logger.LogConfig{Level: "error", Format: "text", Output: "none"})
	os.Exit(m.Run())
}

type fixture struct {
	customers  *crmtest.CustomerStore
	activities *crmtest.ActivityStore
	manager    *crmvc.CrmManager
	ctx        context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	customers := crmtest.NewCustomerStore()
	activities := crmtest.NewActivityStore()
	return &fixture{
		customers:  customers,
		activities: activities,
		manager:    crmvc.NewCrmManager(customers, activities),
		ctx:        context.Background(),
	}
}

func customerInput(t *testing.T, body string) *dto.CrmCustomerInput {
	t.Helper()
	in, err := dto.ParseCustomerInput([]byte(body))
	require.NoError(t, err)
	return in
}

func activityInput(t *testing.T, body string) *dto.CrmActivityInput {
	t.Helper()
	in, err := dto.ParseActivityInput([]byte(body))
	require.NoError(t, err)
	return in
}

func (f *fixture) createCustomer(t *testing.T, email, status string) crmmodels.CrmCustomer {
	t.Helper()
	body := `{"name":"Khách ` + email + `","email":"` + email + `"`
	if status != "" {
		body += `,"status":"` + status + `"`
	}
	body += `}`
	c, err := f.manager.CreateCustomer(f.ctx, customerInput(t, body))
	require.NoError(t, err)
	return c
}

func statusChanges(items []crmmodels.CrmActivity) []crmmodels.CrmActivity {
	var out []crmmodels.CrmActivity
	for _, a := range items {
		if a.Type == crmmodels.ActivityTypeStatusChange {
			out = append(out, a)
		}
	}
	return out
}

func TestCreateCustomer_SeedsExactlyOneStatusChange(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, "a@example.com", "prospect")

	acts := f.activities.ByCustomer(c.ID)
	require.Len(t, acts, 1)
	seed := acts[0]
	assert.Equal(t, crmmodels.ActivityTypeStatusChange, seed.Type)
	assert.Equal(t, crmmodels.ActivityStatusCompleted, seed.Status)
	assert.Equal(t, "Customer Created", seed.Title)
	assert.Equal(t, "Customer status set to prospect", seed.Description)
	assert.NotZero(t, seed.CompletedAt)
	assert.Zero(t, c.LastInteraction)
}

func TestCreateCustomer_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.createCustomer(t, "dup@example.com", "")

	_, err := f.manager.CreateCustomer(f.ctx, customerInput(t, `{"name":"B","email":"DUP@example.com"}`))
	require.ErrorIs(t, err, common.ErrEmailTaken)
	assert.Equal(t, common.StatusConflict, common.StatusOf(err))
	assert.Len(t, f.customers.All(), 1)
}

func TestUpdateCustomer_StatusChangeAudit(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, "a@example.com", "lead")

	t.Run("đổi trạng thái sinh đúng một hoạt động", func(t *testing.T) {
		updated, err := f.manager.UpdateCustomer(f.ctx, c.ID, customerInput(t, `{"name":"A","email":"a@example.com","status":"customer"}`))
		require.NoError(t, err)
		assert.Equal(t, crmmodels.CustomerStatusCustomer, updated.Status)

		changes := statusChanges(f.activities.ByCustomer(c.ID))
		require.Len(t, changes, 2)
		latest := changes[0]
		assert.Equal(t, "Status Updated", latest.Title)
		assert.Contains(t, latest.Description, "lead")
		assert.Contains(t, latest.Description, "customer")
		assert.Equal(t, "Customer status changed from lead to customer", latest.Description)
	})

	t.Run("giữ trạng thái không sinh hoạt động", func(t *testing.T) {
		before := len(f.activities.ByCustomer(c.ID))
		_, err := f.manager.UpdateCustomer(f.ctx, c.ID, customerInput(t, `{"name":"A2","email":"a@example.com","status":"customer"}`))
		require.NoError(t, err)
		assert.Len(t, f.activities.ByCustomer(c.ID), before)
	})

	t.Run("khách không tồn tại", func(t *testing.T) {
		_, err := f.manager.UpdateCustomer(f.ctx, primitive.NewObjectID(), customerInput(t, `{"name":"X","email":"x@example.com"}`))
		assert.ErrorIs(t, err, common.ErrCustomerNotFound)
	})
}

func TestUpdateCustomer_ReplacesFieldsButKeepsLastInteraction(t *testing.T) {
	f := newFixture(t)
	c, err := f.manager.CreateCustomer(f.ctx, customerInput(t, `{"name":"A","email":"a@example.com","phone":"0123","tags":["x"]}`))
	require.NoError(t, err)
	require.NoError(t, f.customers.TouchLastInteraction(f.ctx, c.ID, 12345))

	updated, err := f.manager.UpdateCustomer(f.ctx, c.ID, customerInput(t, `{"name":"A","email":"a@example.com"}`))
	require.NoError(t, err)
	assert.Empty(t, updated.Phone)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, int64(12345), updated.LastInteraction)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)
}

func TestCreateActivity_LastInteraction(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, "a@example.com", "")

	t.Run("hoạt động thường cập nhật lastInteraction", func(t *testing.T) {
		resp, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+c.ID.Hex()+`","type":"call","title":"Gọi"}`))
		require.NoError(t, err)
		require.NotNil(t, resp.Customer)
		assert.Equal(t, c.ID, resp.Customer.ID)

		got, err := f.customers.Get(f.ctx, c.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.LastInteraction, resp.CreatedAt)
	})

	t.Run("status_change không đổi lastInteraction", func(t *testing.T) {
		before, err := f.customers.Get(f.ctx, c.ID)
		require.NoError(t, err)
		_, err = f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+c.ID.Hex()+`","type":"status_change","title":"Audit"}`))
		require.NoError(t, err)
		after, err := f.customers.Get(f.ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, before.LastInteraction, after.LastInteraction)
	})
}

func TestCreateActivity_MissingCustomer(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{primitive.NewObjectID().Hex(), "not-an-object-id"} {
		_, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+id+`","type":"note","title":"t"}`))
		require.ErrorIs(t, err, common.ErrCustomerReference)
		assert.Equal(t, "Customer not found", err.Error())
		assert.Equal(t, common.StatusNotFound, common.StatusOf(err))
	}
	assert.Empty(t, f.activities.All())
}

func TestUpdateActivity_CompletedAtStampedOnce(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, "a@example.com", "")

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f.manager.WithClock(func() time.Time { return clock })

	created, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+c.ID.Hex()+`","type":"task","title":"Báo giá"}`))
	require.NoError(t, err)
	assert.Zero(t, created.CompletedAt)

	body := `{"customer":"` + c.ID.Hex() + `","type":"task","title":"Báo giá","status":"completed"}`
	first, err := f.manager.UpdateActivity(f.ctx, created.ID, activityInput(t, body))
	require.NoError(t, err)
	assert.Equal(t, clock.UnixMilli(), first.CompletedAt)

	clock = clock.Add(time.Hour)
	second, err := f.manager.UpdateActivity(f.ctx, created.ID, activityInput(t, body))
	require.NoError(t, err)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)

	reopened, err := f.manager.UpdateActivity(f.ctx, created.ID, activityInput(t, strings.Replace(body, "completed", "pending", 1)))
	require.NoError(t, err)
	assert.Equal(t, first.CompletedAt, reopened.CompletedAt)
}

func TestUpdateActivity_ChangeCustomer(t *testing.T) {
	f := newFixture(t)
	a := f.createCustomer(t, "a@example.com", "")
	b := f.createCustomer(t, "b@example.com", "")

	created, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+a.ID.Hex()+`","type":"note","title":"n"}`))
	require.NoError(t, err)

	_, err = f.manager.UpdateActivity(f.ctx, created.ID, activityInput(t, `{"customer":"`+primitive.NewObjectID().Hex()+`","type":"note","title":"n"}`))
	assert.ErrorIs(t, err, common.ErrCustomerReference)

	moved, err := f.manager.UpdateActivity(f.ctx, created.ID, activityInput(t, `{"customer":"`+b.ID.Hex()+`","type":"note","title":"n"}`))
	require.NoError(t, err)
	assert.Equal(t, b.ID, moved.CrmActivity.Customer)
	assert.Equal(t, "b@example.com", moved.Customer.Email)

	_, err = f.manager.UpdateActivity(f.ctx, primitive.NewObjectID(), activityInput(t, `{"customer":"`+b.ID.Hex()+`","type":"note","title":"n"}`))
	assert.ErrorIs(t, err, common.ErrActivityNotFound)
}

func TestDeleteCustomer_Cascades(t *testing.T) {
	f := newFixture(t)
	a := f.createCustomer(t, "a@example.com", "")
	b := f.createCustomer(t, "b@example.com", "")
	for i := 0; i < 3; i++ {
		_, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+a.ID.Hex()+`","type":"note","title":"n"}`))
		require.NoError(t, err)
	}

	require.NoError(t, f.manager.DeleteCustomer(f.ctx, a.ID))
	assert.Empty(t, f.activities.ByCustomer(a.ID))
	assert.Len(t, f.activities.ByCustomer(b.ID), 1)

	_, err := f.customers.Get(f.ctx, a.ID)
	assert.ErrorIs(t, err, common.ErrCustomerNotFound)

	assert.ErrorIs(t, f.manager.DeleteCustomer(f.ctx, a.ID), common.ErrCustomerNotFound)
}

func TestDeleteCustomer_CascadeFailureKeepsCustomer(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, "a@example.com", "")
	f.activities.Fail("DeleteByCustomer", errors.New("mất kết nối"))

	err := f.manager.DeleteCustomer(f.ctx, c.ID)
	require.Error(t, err)
	assert.Equal(t, common.StatusInternalServerError, common.StatusOf(err))

	_, err = f.customers.Get(f.ctx, c.ID)
	assert.NoError(t, err)
	assert.Len(t, f.activities.ByCustomer(c.ID), 1)
}

func TestSideEffectFailurePolicy(t *testing.T) {
	t.Run("mặc định: bản ghi chính giữ nguyên, lỗi chỉ ghi log", func(t *testing.T) {
		f := newFixture(t)
		f.activities.Fail("Create", errors.New("ghi thất bại"))

		c, err := f.manager.CreateCustomer(f.ctx, customerInput(t, `{"name":"A","email":"a@example.com"}`))
		require.NoError(t, err)
		_, err = f.customers.Get(f.ctx, c.ID)
		assert.NoError(t, err)
		assert.Empty(t, f.activities.All())
	})

	t.Run("strict: trả 500 nhưng bản ghi chính vẫn đã ghi", func(t *testing.T) {
		f := newFixture(t)
		f.manager.StrictSideEffects = true
		f.activities.Fail("Create", errors.New("ghi thất bại"))

		c, err := f.manager.CreateCustomer(f.ctx, customerInput(t, `{"name":"A","email":"a@example.com"}`))
		require.Error(t, err)
		assert.Equal(t, common.StatusInternalServerError, common.StatusOf(err))
		assert.Contains(t, err.Error(), crmvc.EffectSeedCreation)
		_, err = f.customers.Get(f.ctx, c.ID)
		assert.NoError(t, err)
	})

	t.Run("lastInteraction lỗi không làm mất hoạt động", func(t *testing.T) {
		f := newFixture(t)
		c := f.createCustomer(t, "a@example.com", "")
		f.customers.Fail("TouchLastInteraction", errors.New("timeout"))

		resp, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+c.ID.Hex()+`","type":"email","title":"e"}`))
		require.NoError(t, err)
		_, err = f.activities.Get(f.ctx, resp.ID)
		assert.NoError(t, err)
	})
}

func TestGetCustomer_RecentActivities(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, "a@example.com", "")
	for i := 0; i < 7; i++ {
		_, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+c.ID.Hex()+`","type":"note","title":"n"}`))
		require.NoError(t, err)
	}

	detail, err := f.manager.GetCustomer(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, detail.Customer.ID)
	require.Len(t, detail.RecentActivities, 5)
	for _, a := range detail.RecentActivities {
		require.NotNil(t, a.Customer)
		assert.Equal(t, "a@example.com", a.Customer.Email)
	}

	_, err = f.manager.GetCustomer(f.ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, common.ErrCustomerNotFound)
}

func TestListCustomers_Pagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 15; i++ {
		f.createCustomer(t, primitive.NewObjectID().Hex()+"@example.com", "")
	}

	page := dto.ParseCustomerListQuery(func(k string) string {
		return map[string]string{"page": "2", "limit": "10"}[k]
	})
	result, err := f.manager.ListCustomers(f.ctx, page)
	require.NoError(t, err)
	assert.Len(t, result.Items, 5)
	assert.Equal(t, int64(15), result.Total)
	assert.Equal(t, int64(2), result.TotalPage)
}

func TestListActivities_ProjectionAndFilter(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, "a@example.com", "")
	_, err := f.manager.CreateActivity(f.ctx, activityInput(t, `{"customer":"`+c.ID.Hex()+`","type":"task","title":"t"}`))
	require.NoError(t, err)

	result, err := f.manager.ListActivities(f.ctx, crmvc.ActivityFilter{CustomerID: c.ID, Type: "task"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "a@example.com", result.Items[0].Customer.Email)

	all, err := f.manager.ListActivities(f.ctx, crmvc.ActivityFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	f.manager.WithClock(func() time.Time { return now })

	a := f.createCustomer(t, "a@example.com", "lead")
	f.createCustomer(t, "b@example.com", "lead")
	f.createCustomer(t, "c@example.com", "customer")

	today := now.Format(time.RFC3339)
	nextWeek := now.Add(7 * 24 * time.Hour).Format(time.RFC3339)
	for _, body := range []string{
		`{"customer":"` + a.ID.Hex() + `","type":"task","title":"hôm nay","dueDate":"` + today + `"}`,
		`{"customer":"` + a.ID.Hex() + `","type":"task","title":"tuần sau","dueDate":"` + nextWeek + `"}`,
		`{"customer":"` + a.ID.Hex() + `","type":"task","title":"xong","status":"completed","dueDate":"` + today + `"}`,
		`{"customer":"` + a.ID.Hex() + `","type":"call","title":"gọi"}`,
	} {
		_, err := f.manager.CreateActivity(f.ctx, activityInput(t, body))
		require.NoError(t, err)
	}

	stats, err := f.manager.DashboardStats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalCustomers)
	assert.Equal(t, int64(2), stats.ActiveLeads)
	assert.Equal(t, map[string]int64{"lead": 2, "prospect": 0, "customer": 1, "inactive": 0}, stats.CustomersByStatus)
	assert.Equal(t, int64(2), stats.PendingTasks)
	assert.Equal(t, int64(1), stats.TasksDueToday)
	assert.Len(t, stats.RecentActivities, 5)
}
