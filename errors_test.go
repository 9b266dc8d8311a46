package prismvk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestNewError(t *testing.T) {
	assert.NoError(t, NewError(vk.Success))

	err := NewError(vk.ErrorDeviceLost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vulkan error")
	assert.Contains(t, err.Error(), "errors_test.go", "the report names the call site")
}

func TestIsError(t *testing.T) {
	assert.False(t, isError(vk.Success))
	assert.True(t, isError(vk.ErrorOutOfDate))
	assert.True(t, isError(vk.NotReady))
}

func TestCheckErrRecovers(t *testing.T) {
	ran := false
	err := func() (err error) {
		defer checkErr(&err)
		orPanic(errors.New("boom"), func() { ran = true })
		return nil
	}()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, ran, "finalizers run before the panic propagates")
}

func TestOrPanicNilError(t *testing.T) {
	orPanic(nil, func() { t.Fatal("finalizers must not run without an error") })
}
