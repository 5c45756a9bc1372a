package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/config"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{"ComputeBasic", testComputeBasic},
		{"ComputeClipsAtBoundaries", testComputeClipsAtBoundaries},
		{"ComputeEmptyCollection", testComputeEmptyCollection},
		{"ComputeClampsCurrent", testComputeClampsCurrent},
		{"ComputeCircularWraps", testComputeCircularWraps},
		{"ComputeBoundsHold", testComputeBoundsHold},
		{"TierSelection", testTierSelection},
		{"TierShrink", testTierShrink},
		{"Distance", testDistance},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func testComputeBasic(t *testing.T) {
	bm := Compute(0, 5, 2, false)
	assert.Equal(t, []uint32{0, 1, 2}, bm.ToArray())

	bm = Compute(4, 5, 2, false)
	assert.Equal(t, []uint32{2, 3, 4}, bm.ToArray())
}

func testComputeClipsAtBoundaries(t *testing.T) {
	bm := Compute(50, 1000, 10, false)
	assert.Equal(t, uint64(21), bm.GetCardinality())
	assert.True(t, bm.Contains(40))
	assert.True(t, bm.Contains(60))
	assert.False(t, bm.Contains(39))
	assert.False(t, bm.Contains(61))
}

func testComputeEmptyCollection(t *testing.T) {
	bm := Compute(0, 0, 5, false)
	assert.True(t, bm.IsEmpty())

	bm = Compute(3, -1, 5, true)
	assert.True(t, bm.IsEmpty())
}

func testComputeClampsCurrent(t *testing.T) {
	// Out-of-range current indices clamp into [0, size)
	assert.Equal(t, Compute(0, 10, 2, false).ToArray(), Compute(-7, 10, 2, false).ToArray())
	assert.Equal(t, Compute(9, 10, 2, false).ToArray(), Compute(99, 10, 2, false).ToArray())
}

func testComputeCircularWraps(t *testing.T) {
	bm := Compute(0, 10, 2, true)
	assert.Equal(t, []uint32{0, 1, 2, 8, 9}, bm.ToArray())

	// Window covering the whole collection collapses to the full range
	bm = Compute(3, 5, 4, true)
	assert.Equal(t, uint64(5), bm.GetCardinality())
}

func testComputeBoundsHold(t *testing.T) {
	sizes := []int{1, 2, 5, 100, 1000, 10001, 60000}
	radii := []int{0, 1, 25, 250}
	for _, size := range sizes {
		for _, radius := range radii {
			for _, current := range []int{0, size / 2, size - 1, -3, size + 3} {
				bm := Compute(current, size, radius, false)
				require.LessOrEqual(t, bm.GetCardinality(), uint64(2*radius+1))
				if !bm.IsEmpty() {
					require.Less(t, bm.Maximum(), uint32(size))
				}
			}
		}
	}
}

func testTierSelection(t *testing.T) {
	cfg := config.Default()
	cfg.ConfiguredRadius = 300
	cfg.MaxConcurrentDecodes = 50

	tiny := SelectTier(40, cfg)
	assert.Equal(t, ClassTiny, tiny.Class)
	assert.Equal(t, 40, tiny.Radius) // fully resident

	small := SelectTier(500, cfg)
	assert.Equal(t, ClassSmall, small.Class)
	assert.Equal(t, 50, small.Radius) // max(25, 500/10)

	medium := SelectTier(5000, cfg)
	assert.Equal(t, ClassMedium, medium.Class)
	assert.Equal(t, 100, medium.Radius) // max(50, 5000/50)

	massive := SelectTier(20000, cfg)
	assert.Equal(t, ClassMassive, massive.Class)
	assert.Equal(t, 200, massive.Radius) // min(300, 20000/100)

	extreme := SelectTier(60_000, cfg)
	assert.Equal(t, ClassExtreme, extreme.Class)
	assert.Equal(t, "extreme", extreme.Class.String())
	assert.True(t, extreme.DynamicScaling)
	assert.GreaterOrEqual(t, extreme.Radius, 250)
	assert.Equal(t, 16, extreme.MaxConcurrentDecodes)
}

func testTierShrink(t *testing.T) {
	cfg := config.Default()
	cfg.ConfiguredRadius = 300
	cfg.MaxConcurrentDecodes = 50

	extreme := SelectTier(60_000, cfg)
	shrunk := Shrink(extreme, 60_000, cfg)
	assert.Equal(t, ClassMassive, shrunk.Class)
	assert.Less(t, shrunk.MaxConcurrentDecodes, extreme.MaxConcurrentDecodes)
	assert.False(t, shrunk.DynamicScaling)

	tiny := SelectTier(10, cfg)
	assert.Equal(t, tiny, Shrink(tiny, 10, cfg))
}

func testDistance(t *testing.T) {
	assert.Equal(t, 3, Distance(7, 4, 100, false))
	assert.Equal(t, 3, Distance(1, 4, 100, false))
	// wraparound shortcut for circular collections
	assert.Equal(t, 2, Distance(9, 1, 10, true))
	assert.Equal(t, 8, Distance(9, 1, 10, false))
}
