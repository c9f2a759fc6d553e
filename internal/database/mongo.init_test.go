package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type indexedDoc struct {
	Email     string `bson:"email" index:"unique"`
	Name      string `bson:"name,omitempty" index:"single"`
	Owner     string `bson:"owner" index:"compound:owner_createdAt"`
	CreatedAt int64  `bson:"createdAt" index:"single,order:-1;compound:owner_createdAt,order:-1"`
	Ignored   string `bson:"-" index:"single"`
	Plain     string `bson:"plain"`
}

func byName(models []mongo.IndexModel) map[string]mongo.IndexModel {
	out := map[string]mongo.IndexModel{}
	for _, m := range models {
		out[*m.Options.Name] = m
	}
	return out
}

func TestIndexModelsFor(t *testing.T) {
	models, err := IndexModelsFor(&indexedDoc{})
	require.NoError(t, err)

	got := byName(models)
	require.Len(t, got, 4)

	unique := got["email_unique"]
	require.NotNil(t, unique.Options.Unique)
	assert.True(t, *unique.Options.Unique)
	assert.Equal(t, bson.D{{Key: "email", Value: 1}}, unique.Keys)

	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, got["name_single"].Keys)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, got["createdAt_single"].Keys)

	compound := got["owner_createdAt"]
	assert.Equal(t, bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}, compound.Keys)
	assert.Nil(t, compound.Options.Unique)
}

func TestIndexModelsFor_RejectsNonStruct(t *testing.T) {
	_, err := IndexModelsFor(42)
	assert.Error(t, err)
}

func TestSameIndex(t *testing.T) {
	models, err := IndexModelsFor(indexedDoc{})
	require.NoError(t, err)
	want := byName(models)["email_unique"]

	assert.True(t, sameIndex(bson.M{"key": bson.M{"email": int32(1)}, "unique": true}, want))
	assert.False(t, sameIndex(bson.M{"key": bson.M{"email": int32(1)}}, want), "thiếu unique")
	assert.False(t, sameIndex(bson.M{"key": bson.M{"email": int32(-1)}, "unique": true}, want))
	assert.False(t, sameIndex(bson.M{"key": bson.M{"mail": int32(1)}, "unique": true}, want))
}
