package dto

import (
	"testing"
	"time"

	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fieldMap(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, common.ErrValidation)
	out := map[string]string{}
	for _, f := range common.FieldErrors(err) {
		out[f.Field] = f.Message
	}
	return out
}

func TestParseCustomerInput_Valid(t *testing.T) {
	in, err := ParseCustomerInput([]byte(`{
		"name": "  Jane Doe ",
		"email": " Jane@Example.COM ",
		"status": "prospect",
		"tags": [" vip ", "b2b", "vip"],
		"address": {"city": " Hanoi "},
		"customFields": {"source": "web"},
		"nextFollowUp": "2024-05-01T10:00:00Z"
	}`))
	require.NoError(t, err)

	c, err := in.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.Equal(t, crmmodels.CustomerStatusProspect, c.Status)
	assert.Equal(t, []string{"vip", "b2b", "vip"}, c.Tags)
	require.NotNil(t, c.Address)
	assert.Equal(t, "Hanoi", c.Address.City)
	assert.Equal(t, "web", c.CustomFields["source"])
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli(), c.NextFollowUp)
}

func TestParseCustomerInput_Defaults(t *testing.T) {
	in, err := ParseCustomerInput([]byte(`{"name":"A","email":"a@b.co","address":{}}`))
	require.NoError(t, err)
	c, err := in.ToModel()
	require.NoError(t, err)
	assert.Equal(t, crmmodels.CustomerStatusLead, c.Status)
	assert.Equal(t, []string{}, c.Tags)
	assert.Nil(t, c.Address)
	assert.Zero(t, c.NextFollowUp)
}

func TestParseCustomerInput_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{
			name: "thiếu mọi field bắt buộc",
			body: `{}`,
			want: map[string]string{"name": "Name is required", "email": "Required"},
		},
		{
			name: "tên chỉ có khoảng trắng và email sai",
			body: `{"name":"   ","email":"not-an-email"}`,
			want: map[string]string{"name": "Name is required", "email": "Invalid email format"},
		},
		{
			name: "status ngoài tập",
			body: `{"name":"A","email":"a@b.co","status":"vip"}`,
			want: map[string]string{"status": "Invalid enum value. Expected 'lead' | 'prospect' | 'customer' | 'inactive', received 'vip'"},
		},
		{
			name: "ngày không hợp lệ",
			body: `{"name":"A","email":"a@b.co","nextFollowUp":"tomorrow"}`,
			want: map[string]string{"nextFollowUp": "Invalid datetime"},
		},
		{
			name: "sai kiểu JSON vẫn báo các field khác",
			body: `{"email":"a@b.co","tags":5}`,
			want: map[string]string{"tags": "Expected array, received number", "name": "Name is required"},
		},
		{
			name: "nhiều field sai kiểu cùng lúc",
			body: `{"name":"A","email":"a@b.co","tags":5,"customFields":7}`,
			want: map[string]string{
				"tags":         "Expected array, received number",
				"customFields": "Expected object, received number",
			},
		},
		{
			name: "sai kiểu ở field con",
			body: `{"name":"A","email":"a@b.co","address":{"city":5},"nextFollowUp":1}`,
			want: map[string]string{
				"address.city": "Expected string, received number",
				"nextFollowUp": "Expected string, received number",
			},
		},
		{
			name: "sai kiểu field bắt buộc không báo thêm Required",
			body: `{"name":true,"email":["a@b.co"]}`,
			want: map[string]string{
				"name":  "Expected string, received boolean",
				"email": "Expected string, received array",
			},
		},
		{
			name: "body không phải JSON",
			body: `{"name":`,
			want: map[string]string{"body": "Invalid JSON"},
		},
		{
			name: "body là mảng",
			body: `[1,2]`,
			want: map[string]string{"body": "Expected object, received array"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCustomerInput([]byte(tt.body))
			assert.Equal(t, tt.want, fieldMap(t, err))
		})
	}
}

func TestParseCustomerInput_KeysMatchCaseInsensitively(t *testing.T) {
	in, err := ParseCustomerInput([]byte(`{"Name":"A","EMAIL":"a@b.co","unknown":1}`))
	require.NoError(t, err)
	assert.Equal(t, "A", in.Name)
	assert.Equal(t, "a@b.co", in.Email)
}

func TestParseCustomerInput_EmptyBodyReportsRequiredFields(t *testing.T) {
	_, err := ParseCustomerInput(nil)
	got := fieldMap(t, err)
	assert.Contains(t, got, "name")
	assert.Contains(t, got, "email")
}

func TestParseActivityInput(t *testing.T) {
	customerID := primitive.NewObjectID()

	t.Run("hợp lệ với mặc định pending", func(t *testing.T) {
		in, err := ParseActivityInput([]byte(`{"customer":"` + customerID.Hex() + `","type":"call","title":" Gọi lại "}`))
		require.NoError(t, err)
		a, err := in.ToModel()
		require.NoError(t, err)
		assert.Equal(t, customerID, a.Customer)
		assert.Equal(t, crmmodels.ActivityTypeCall, a.Type)
		assert.Equal(t, "Gọi lại", a.Title)
		assert.Equal(t, crmmodels.ActivityStatusPending, a.Status)
	})

	t.Run("báo tất cả lỗi", func(t *testing.T) {
		_, err := ParseActivityInput([]byte(`{"type":"fax","status":"done","dueDate":"x"}`))
		got := fieldMap(t, err)
		assert.Equal(t, "Customer ID is required", got["customer"])
		assert.Equal(t, "Title is required", got["title"])
		assert.Equal(t, "Invalid datetime", got["dueDate"])
		assert.Contains(t, got["type"], "received 'fax'")
		assert.Equal(t, "Invalid enum value. Expected 'pending' | 'completed' | 'cancelled', received 'done'", got["status"])
	})

	t.Run("báo mọi field sai kiểu", func(t *testing.T) {
		_, err := ParseActivityInput([]byte(`{"customer":"x","type":"call","title":5,"status":7}`))
		assert.Equal(t, map[string]string{
			"title":  "Expected string, received number",
			"status": "Expected string, received number",
		}, fieldMap(t, err))
	})

	t.Run("thiếu type", func(t *testing.T) {
		_, err := ParseActivityInput([]byte(`{"customer":"x","title":"t"}`))
		assert.Equal(t, map[string]string{"type": "Required"}, fieldMap(t, err))
	})

	t.Run("customer id sai định dạng là lỗi tham chiếu", func(t *testing.T) {
		in, err := ParseActivityInput([]byte(`{"customer":"abc","type":"note","title":"t"}`))
		require.NoError(t, err)
		_, err = in.ToModel()
		assert.ErrorIs(t, err, common.ErrCustomerReference)
	})
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "address.city", fieldPath("CrmCustomerInput.address.city"))
	assert.Equal(t, "tags.0", fieldPath("CrmCustomerInput.tags[0]"))
	assert.Equal(t, "customFields.source", fieldPath("CrmCustomerInput.customFields[source]"))
	assert.Equal(t, "name", fieldPath("CrmCustomerInput.name"))
}

func TestParseCustomerListQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     map[string]string
		wantPage  int64
		wantLimit int64
	}{
		{"mặc định", map[string]string{}, 1, 10},
		{"không phải số", map[string]string{"page": "abc", "limit": "x"}, 1, 10},
		{"nhỏ hơn 1", map[string]string{"page": "0", "limit": "-5"}, 1, 10},
		{"giới hạn limit", map[string]string{"page": "3", "limit": "1000"}, 3, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseCustomerListQuery(func(k string) string { return tt.query[k] })
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantLimit, q.Limit)
		})
	}

	q := ParseCustomerListQuery(func(k string) string {
		return map[string]string{"tags": "vip, b2b", "sortOrder": "ASC", "search": " acme "}[k]
	})
	assert.Equal(t, []string{"vip", "b2b"}, q.Tags)
	assert.Equal(t, "asc", q.SortOrder)
	assert.Equal(t, "acme", q.Search)
}

func TestParseActivityListQuery(t *testing.T) {
	id := primitive.NewObjectID()
	q, err := ParseActivityListQuery(func(k string) string {
		return map[string]string{"customerId": id.Hex(), "type": "task", "limit": "20"}[k]
	})
	require.NoError(t, err)
	assert.Equal(t, id, q.CustomerID)
	assert.Equal(t, "task", q.Type)
	assert.Equal(t, int64(20), q.Limit)

	_, err = ParseActivityListQuery(func(k string) string {
		return map[string]string{"customerId": "nope"}[k]
	})
	assert.ErrorIs(t, err, common.ErrInvalidID)
}
