package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	basehdl "mini_crm/internal/api/base/handler"
	"mini_crm/internal/api/crm/crmtest"
	crmrouter "mini_crm/internal/api/crm/router"
	crmvc "mini_crm/internal/api/crm/service"
	apirouter "mini_crm/internal/api/router"
	"mini_crm/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	_ = logger.Init(&logger.LogConfig{Level: "error", Format: "text", Output: "none"})
	os.Exit(m.Run())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testAPI struct {
	t          *testing.T
	app        *fiber.App
	customers  *crmtest.CustomerStore
	activities *crmtest.ActivityStore
}

type apiResponse struct {
	Status     int
	Success    bool                   `json:"success"`
	Data       json.RawMessage        `json:"data"`
	Error      json.RawMessage        `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
}

func newTestAPI(t *testing.T, pingErr error) *testAPI {
	t.Helper()
	customers := crmtest.NewCustomerStore()
	activities := crmtest.NewActivityStore()
	manager := crmvc.NewCrmManager(customers, activities)

	app := fiber.New(fiber.Config{ErrorHandler: basehdl.ErrorHandler})
	pinger := pingerFunc(func(ctx context.Context) error { return pingErr })
	require.NoError(t, apirouter.SetupRoutes(app, crmrouter.RegisterWith(manager), apirouter.RegisterSystem(pinger)))

	return &testAPI{t: t, app: app, customers: customers, activities: activities}
}

func (a *testAPI) do(method, path, body string) apiResponse {
	a.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.app.Test(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)

	var out apiResponse
	require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	out.Status = resp.StatusCode
	return out
}

func (r apiResponse) object(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Data, &m))
	return m
}

func (r apiResponse) list(t *testing.T) []map[string]interface{} {
	t.Helper()
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Data, &items))
	return items
}

func (r apiResponse) errorString(t *testing.T) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(r.Error, &s))
	return s
}

func (r apiResponse) fieldErrors(t *testing.T) map[string]string {
	t.Helper()
	var items []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(r.Error, &items))
	out := map[string]string{}
	for _, it := range items {
		out[it.Field] = it.Message
	}
	return out
}

func (a *testAPI) createCustomer(email, status string) string {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/api/v1/customers", `{"name":"Khách","email":"`+email+`","status":"`+status+`"}`)
	require.Equal(a.t, http.StatusCreated, resp.Status)
	return resp.object(a.t)["id"].(string)
}

func TestCustomersAPI_CreateAndGet(t *testing.T) {
	api := newTestAPI(t, nil)

	resp := api.do(http.MethodPost, "/api/v1/customers", `{"name":" Jane ","email":"Jane@Example.com","tags":["vip"]}`)
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.True(t, resp.Success)
	created := resp.object(t)
	assert.Equal(t, "jane@example.com", created["email"])
	assert.Equal(t, "Jane", created["name"])
	assert.Equal(t, "lead", created["status"])
	id := created["id"].(string)

	detail := api.do(http.MethodGet, "/api/v1/customers/"+id, "")
	require.Equal(t, http.StatusOK, detail.Status)
	body := detail.object(t)
	assert.Equal(t, id, body["customer"].(map[string]interface{})["id"])
	recent := body["recentActivities"].([]interface{})
	require.Len(t, recent, 1)
	seed := recent[0].(map[string]interface{})
	assert.Equal(t, "status_change", seed["type"])
	assert.Equal(t, "completed", seed["status"])
	assert.Equal(t, "jane@example.com", seed["customer"].(map[string]interface{})["email"])
}

func TestCustomersAPI_ValidationAndErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	api.createCustomer("taken@example.com", "lead")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
		wantFields map[string]string
	}{
		{
			name:       "thiếu field",
			method:     http.MethodPost,
			path:       "/api/v1/customers",
			body:       `{"status":"gold"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{
				"name":   "Name is required",
				"email":  "Required",
				"status": "Invalid enum value. Expected 'lead' | 'prospect' | 'customer' | 'inactive', received 'gold'",
			},
		},
		{
			name:       "JSON hỏng",
			method:     http.MethodPost,
			path:       "/api/v1/customers",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{"body": "Invalid JSON"},
		},
		{
			name:       "email trùng",
			method:     http.MethodPost,
			path:       "/api/v1/customers",
			body:       `{"name":"B","email":"TAKEN@example.com"}`,
			wantStatus: http.StatusConflict,
			wantError:  "Email already exists",
		},
		{
			name:       "id sai định dạng",
			method:     http.MethodGet,
			path:       "/api/v1/customers/not-an-id",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid id format",
		},
		{
			name:       "không tìm thấy",
			method:     http.MethodGet,
			path:       "/api/v1/customers/" + primitive.NewObjectID().Hex(),
			wantStatus: http.StatusNotFound,
			wantError:  "Customer not found",
		},
		{
			name:       "cập nhật khách không tồn tại",
			method:     http.MethodPut,
			path:       "/api/v1/customers/" + primitive.NewObjectID().Hex(),
			body:       `{"name":"B","email":"b@example.com"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "Customer not found",
		},
		{
			name:       "route không tồn tại",
			method:     http.MethodGet,
			path:       "/api/v1/unknown",
			wantStatus: http.StatusNotFound,
			wantError:  "Resource not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.False(t, resp.Success)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, resp.fieldErrors(t))
			} else {
				assert.Equal(t, tt.wantError, resp.errorString(t))
			}
		})
	}
}

func TestCustomersAPI_ListPagination(t *testing.T) {
	api := newTestAPI(t, nil)
	for i := 0; i < 15; i++ {
		api.createCustomer(primitive.NewObjectID().Hex()+"@example.com", "lead")
	}
	api.createCustomer("acme@example.com", "customer")

	resp := api.do(http.MethodGet, "/api/v1/customers?status=lead&page=2&limit=10", "")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, resp.list(t), 5)
	assert.Equal(t, map[string]interface{}{"total": 15.0, "page": 2.0, "limit": 10.0, "pages": 2.0}, resp.Pagination)

	search := api.do(http.MethodGet, "/api/v1/customers?search=ACME", "")
	require.Equal(t, http.StatusOK, search.Status)
	items := search.list(t)
	require.Len(t, items, 1)
	assert.Equal(t, "acme@example.com", items[0]["email"])

	empty := api.do(http.MethodGet, "/api/v1/customers?status=inactive", "")
	assert.Equal(t, http.StatusOK, empty.Status)
	assert.Empty(t, empty.list(t))
	assert.Equal(t, 0.0, empty.Pagination["pages"])
}

func TestCustomersAPI_UpdateStatusAndDelete(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createCustomer("a@example.com", "lead")
	oid, err := primitive.ObjectIDFromHex(id)
	require.NoError(t, err)

	resp := api.do(http.MethodPut, "/api/v1/customers/"+id, `{"name":"A","email":"a@example.com","status":"prospect"}`)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "prospect", resp.object(t)["status"])

	acts := api.activities.ByCustomer(oid)
	require.Len(t, acts, 2)
	assert.Equal(t, "Customer status changed from lead to prospect", acts[0].Description)

	del := api.do(http.MethodDelete, "/api/v1/customers/"+id, "")
	require.Equal(t, http.StatusOK, del.Status)
	assert.True(t, del.Success)
	assert.Empty(t, del.object(t))
	assert.Empty(t, api.activities.ByCustomer(oid))

	again := api.do(http.MethodDelete, "/api/v1/customers/"+id, "")
	assert.Equal(t, http.StatusNotFound, again.Status)
}

func TestActivitiesAPI(t *testing.T) {
	api := newTestAPI(t, nil)
	customerID := api.createCustomer("a@example.com", "lead")

	t.Run("khách không tồn tại", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/api/v1/activities", `{"customer":"`+primitive.NewObjectID().Hex()+`","type":"note","title":"n"}`)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "Customer not found", resp.errorString(t))
	})

	t.Run("validation", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/api/v1/activities", `{"type":"call"}`)
		assert.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, map[string]string{
			"customer": "Customer ID is required",
			"title":    "Title is required",
		}, resp.fieldErrors(t))
	})

	t.Run("tạo, hoàn thành, xóa", func(t *testing.T) {
		created := api.do(http.MethodPost, "/api/v1/activities", `{"customer":"`+customerID+`","type":"task","title":"Báo giá","dueDate":"2030-01-01T09:00:00Z"}`)
		require.Equal(t, http.StatusCreated, created.Status)
		act := created.object(t)
		id := act["id"].(string)
		assert.Equal(t, "pending", act["status"])
		assert.Equal(t, customerID, act["customerId"])
		assert.Equal(t, "a@example.com", act["customer"].(map[string]interface{})["email"])
		assert.NotContains(t, act, "completedAt")

		done := api.do(http.MethodPut, "/api/v1/activities/"+id, `{"customer":"`+customerID+`","type":"task","title":"Báo giá","status":"completed"}`)
		require.Equal(t, http.StatusOK, done.Status)
		completedAt := done.object(t)["completedAt"]
		require.NotNil(t, completedAt)

		again := api.do(http.MethodPut, "/api/v1/activities/"+id, `{"customer":"`+customerID+`","type":"task","title":"Báo giá 2","status":"completed"}`)
		require.Equal(t, http.StatusOK, again.Status)
		assert.Equal(t, completedAt, again.object(t)["completedAt"])

		list := api.do(http.MethodGet, "/api/v1/activities?customerId="+customerID+"&type=task", "")
		require.Equal(t, http.StatusOK, list.Status)
		require.Len(t, list.list(t), 1)
		assert.Equal(t, 1.0, list.Pagination["total"])

		del := api.do(http.MethodDelete, "/api/v1/activities/"+id, "")
		assert.Equal(t, http.StatusOK, del.Status)

		missing := api.do(http.MethodGet, "/api/v1/activities/"+id, "")
		assert.Equal(t, http.StatusNotFound, missing.Status)
		assert.Equal(t, "Activity not found", missing.errorString(t))
	})

	t.Run("customerId sai định dạng", func(t *testing.T) {
		resp := api.do(http.MethodGet, "/api/v1/activities?customerId=xyz", "")
		assert.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, "Invalid id format", resp.errorString(t))
	})
}

func TestDashboardAPI(t *testing.T) {
	api := newTestAPI(t, nil)
	api.createCustomer("a@example.com", "lead")
	api.createCustomer("b@example.com", "customer")

	resp := api.do(http.MethodGet, "/api/v1/dashboard/stats", "")
	require.Equal(t, http.StatusOK, resp.Status)
	stats := resp.object(t)
	assert.Equal(t, 2.0, stats["totalCustomers"])
	assert.Equal(t, 1.0, stats["activeLeads"])
	assert.Len(t, stats["recentActivities"], 2)
}

func TestSystemHealth(t *testing.T) {
	ok := newTestAPI(t, nil).do(http.MethodGet, "/api/v1/system/health", "")
	assert.Equal(t, http.StatusOK, ok.Status)
	assert.True(t, ok.Success)

	down := newTestAPI(t, errors.New("connection refused")).do(http.MethodGet, "/api/v1/system/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, down.Status)
	assert.False(t, down.Success)
}

func TestStoreFailureIsServerError(t *testing.T) {
	api := newTestAPI(t, nil)
	api.customers.Fail("List", errors.New("server selection timeout"))

	resp := api.do(http.MethodGet, "/api/v1/customers", "")
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "server selection timeout", resp.errorString(t))
}
