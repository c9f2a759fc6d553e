package registry

import (
	"errors"
	"testing"

	"mini_crm/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry[int]()

	isNew, err := r.Register("a", 1)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = r.Register("a", 2)
	require.NoError(t, err)
	assert.False(t, isNew, "đăng ký lại phải ghi đè")

	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, err = r.Register("", 3)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestRegistry_MustGetMissing(t *testing.T) {
	r := NewRegistry[string]()
	_, err := r.MustGet("missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestRegistry_ClearAll(t *testing.T) {
	r := NewRegistry[string]()
	_, _ = r.Register("b", "x")
	_, _ = r.Register("a", "y")
	assert.Equal(t, []string{"a", "b"}, r.Names())

	var cleaned []string
	count, err := r.ClearAll(func(s string) error {
		cleaned = append(cleaned, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, cleaned, 2)
	assert.Empty(t, r.Names())

	_, _ = r.Register("c", "z")
	_, err = r.ClearAll(func(string) error { return errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, []string{"c"}, r.Names(), "giữ nguyên khi cleanup lỗi")
}
