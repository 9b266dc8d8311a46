package prismvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestPickPresentMode(t *testing.T) {
	tests := []struct {
		name      string
		available []vk.PresentMode
		vsync     bool
		want      vk.PresentMode
	}{
		{
			name:      "vsync prefers mailbox",
			available: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
			vsync:     true,
			want:      vk.PresentModeMailbox,
		},
		{
			name:      "vsync falls back to fifo",
			available: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate},
			vsync:     true,
			want:      vk.PresentModeFifo,
		},
		{
			name:      "vsync lands on fifo even when unlisted",
			available: []vk.PresentMode{vk.PresentModeImmediate},
			vsync:     true,
			want:      vk.PresentModeFifo,
		},
		{
			name: "no vsync prefers immediate",
			available: []vk.PresentMode{
				vk.PresentModeFifo, vk.PresentModeFifoRelaxed, vk.PresentModeImmediate,
			},
			vsync: false,
			want:  vk.PresentModeImmediate,
		},
		{
			name:      "no vsync falls back to relaxed fifo",
			available: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeFifoRelaxed},
			vsync:     false,
			want:      vk.PresentModeFifoRelaxed,
		},
		{
			name:      "no vsync lands on fifo",
			available: []vk.PresentMode{vk.PresentModeFifo},
			vsync:     false,
			want:      vk.PresentModeFifo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickPresentMode(tt.available, tt.vsync))
		})
	}
}

func TestClampImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), clampImageCount(2, 0), "zero max means unbounded")
	assert.Equal(t, uint32(3), clampImageCount(2, 3))
	assert.Equal(t, uint32(3), clampImageCount(3, 3), "min+1 clamps down to max")
	assert.Equal(t, uint32(2), clampImageCount(1, 8))
}

func TestFallbackExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	got := fallbackExtent(&caps, 1234, 999)
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, got,
		"surface dictated extent wins over the framebuffer")

	caps.CurrentExtent = vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	got = fallbackExtent(&caps, 1234, 999)
	assert.Equal(t, vk.Extent2D{Width: 1234, Height: 999}, got)

	got = fallbackExtent(&caps, 0, 9999)
	assert.Equal(t, vk.Extent2D{Width: 1, Height: 4096}, got,
		"framebuffer size clamps into the supported range")
}

func TestChainStatusFromResult(t *testing.T) {
	status, err := chainStatus(vk.Success)
	assert.NoError(t, err)
	assert.Equal(t, ChainOK, status)

	status, err = chainStatus(vk.Suboptimal)
	assert.NoError(t, err)
	assert.Equal(t, ChainSuboptimal, status)

	status, err = chainStatus(vk.ErrorOutOfDate)
	assert.NoError(t, err)
	assert.Equal(t, ChainStale, status)

	_, err = chainStatus(vk.ErrorDeviceLost)
	assert.Error(t, err)
}
