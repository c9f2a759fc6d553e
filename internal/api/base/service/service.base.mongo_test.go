package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type defaultsDoc struct {
	Status  string `bson:"status" default:"lead"`
	Active  bool   `bson:"active" default:"true"`
	Retries int64  `bson:"retries" default:"3"`
	Name    string `bson:"name"`
}

func TestApplyInsertDefaultsToModel(t *testing.T) {
	t.Run("gán default cho field zero", func(t *testing.T) {
		d := defaultsDoc{}
		applyInsertDefaultsToModel(&d)
		assert.Equal(t, "lead", d.Status)
		assert.True(t, d.Active)
		assert.Equal(t, int64(3), d.Retries)
		assert.Empty(t, d.Name)
	})

	t.Run("không ghi đè giá trị đã có", func(t *testing.T) {
		d := defaultsDoc{Status: "customer", Retries: 7}
		applyInsertDefaultsToModel(&d)
		assert.Equal(t, "customer", d.Status)
		assert.Equal(t, int64(7), d.Retries)
	})

	t.Run("bỏ qua giá trị không phải con trỏ", func(t *testing.T) {
		d := defaultsDoc{}
		applyInsertDefaultsToModel(d)
		assert.Empty(t, d.Status)
	})
}

func TestToUpdateData(t *testing.T) {
	t.Run("map thường được bọc trong $set", func(t *testing.T) {
		u, err := ToUpdateData(map[string]interface{}{"name": "A"})
		require.NoError(t, err)
		assert.Equal(t, "A", u.Set["name"])
		assert.Nil(t, u.Unset)
	})

	t.Run("giữ nguyên toán tử có sẵn", func(t *testing.T) {
		u, err := ToUpdateData(map[string]interface{}{
			"$set":   bson.M{"name": "A"},
			"$unset": map[string]interface{}{"phone": ""},
		})
		require.NoError(t, err)
		assert.Equal(t, "A", u.Set["name"])
		assert.Contains(t, u.Unset, "phone")
	})

	t.Run("struct theo tag bson", func(t *testing.T) {
		u, err := ToUpdateData(struct {
			Name string `bson:"name"`
		}{Name: "B"})
		require.NoError(t, err)
		assert.Equal(t, "B", u.Set["name"])
	})

	t.Run("UpdateData dùng trực tiếp", func(t *testing.T) {
		in := &UpdateData{Set: map[string]interface{}{"x": 1}}
		u, err := ToUpdateData(in)
		require.NoError(t, err)
		assert.Same(t, in, u)
	})
}

func TestStampUpdatedAt(t *testing.T) {
	u := &UpdateData{}
	stampUpdatedAt(u)
	assert.IsType(t, int64(0), u.Set["updatedAt"])
}

func TestIdFromFilter(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, id, idFromFilter(bson.M{"_id": id, "x": 1}))
	assert.True(t, idFromFilter(bson.D{}).IsZero())
}
