package prismvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryIndex(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0, primaryIndex(cfg))

	cfg.Windows[0].Primary = false
	cfg.Windows[2].Primary = true
	assert.Equal(t, 2, primaryIndex(cfg))

	cfg.Windows[2].Primary = false
	assert.Equal(t, 0, primaryIndex(cfg), "no marked window falls back to the first")
}

func TestClearRamp(t *testing.T) {
	seen := map[[4]float32]bool{}
	for i := 0; i < 4; i++ {
		c := clearRamp(i, 4)
		assert.Equal(t, float32(1), c[3], "clear colors are opaque")
		for ch := 0; ch < 3; ch++ {
			assert.GreaterOrEqual(t, c[ch], float32(0))
			assert.LessOrEqual(t, c[ch], float32(1))
		}
		assert.False(t, seen[c], "each window gets its own shade")
		seen[c] = true
	}
}
