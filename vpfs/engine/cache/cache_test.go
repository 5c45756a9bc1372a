package cache

import (
	"testing"
	"time"

	roaring "github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/collection"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/decode"
)

func TestCacheTiers(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{"PrimaryBudgetInvariant", testPrimaryBudgetInvariant},
		{"PrimaryEvictsFarthestOutsideWindow", testPrimaryEvictsFarthestOutsideWindow},
		{"PrimaryEvictsOldestWhenWindowOverflows", testPrimaryEvictsOldestWhenWindowOverflows},
		{"PrimaryOverflowReportedOnce", testPrimaryOverflowReportedOnce},
		{"PrimaryOversizedEntryDropped", testPrimaryOversizedEntryDropped},
		{"PrimaryTrimOutside", testPrimaryTrimOutside},
		{"PrimaryResidentBitmap", testPrimaryResidentBitmap},
		{"LRUStrictRecency", testLRUStrictRecency},
		{"LRUByteBudget", testLRUByteBudget},
		{"LRUGetPromotesRecency", testLRUGetPromotesRecency},
		{"LRUTrimAndClear", testLRUTrimAndClear},
		{"LRUSetLimits", testLRUSetLimits},
		{"LRUDisabled", testLRUDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func makeEntry(t *testing.T, ordinal int, cost int64) *Entry {
	t.Helper()
	refs := collection.NewPhotoRefs([]string{"/p/img.jpg"})
	ref := refs[0]
	ref.Ordinal = ordinal
	return NewEntry(ref, &decode.Payload{Pixels: make([]byte, int(cost)), CostBytes: cost}, nil)
}

func makeView(current, size int, indices ...uint32) View {
	bm := roaring.New()
	bm.AddMany(indices)
	return View{Window: bm, CurrentIndex: current, Size: size}
}

func testPrimaryBudgetInvariant(t *testing.T) {
	p := NewPrimary(1000, nil)
	view := makeView(0, 100, 0, 1, 2)

	for i := 0; i < 20; i++ {
		_, _ = p.Insert(makeEntry(t, i, 300), view)
		require.LessOrEqual(t, p.TotalCost(), int64(1000))
	}
}

func testPrimaryEvictsFarthestOutsideWindow(t *testing.T) {
	p := NewPrimary(1000, nil)
	// window protects {4,5,6} around current=5
	view := makeView(5, 100, 4, 5, 6)

	near := makeEntry(t, 7, 400)  // outside, distance 2
	far := makeEntry(t, 90, 400)  // outside, distance 85
	cur := makeEntry(t, 5, 400)   // inside

	_, err := p.Insert(near, view)
	require.NoError(t, err)
	_, err = p.Insert(far, view)
	require.NoError(t, err)

	evicted, err := p.Insert(cur, view)
	require.NoError(t, err)
	require.Len(t, evicted, 1)
	assert.Equal(t, far.Ref.ID, evicted[0].Ref.ID, "farthest outside-window entry must go first")
	assert.True(t, p.Has(near.Ref.ID))
	assert.True(t, p.Has(cur.Ref.ID))
}

func testPrimaryEvictsOldestWhenWindowOverflows(t *testing.T) {
	p := NewPrimary(1000, nil)
	view := makeView(1, 100, 0, 1, 2)

	a := makeEntry(t, 0, 400)
	a.LastAccess = time.Now().Add(-time.Minute)
	b := makeEntry(t, 1, 400)
	c := makeEntry(t, 2, 400)

	_, err := p.Insert(a, view)
	require.NoError(t, err)
	_, err = p.Insert(b, view)
	require.NoError(t, err)

	evicted, err := p.Insert(c, view)
	require.ErrorIs(t, err, ErrCacheOverflow)
	require.Len(t, evicted, 1)
	assert.Equal(t, a.Ref.ID, evicted[0].Ref.ID, "oldest-accessed within-window entry must go first")
	assert.LessOrEqual(t, p.TotalCost(), int64(1000))
}

func testPrimaryOverflowReportedOnce(t *testing.T) {
	p := NewPrimary(700, nil)
	view := makeView(0, 100, 0, 1, 2)

	_, err := p.Insert(makeEntry(t, 0, 400), view)
	require.NoError(t, err)

	_, err = p.Insert(makeEntry(t, 1, 400), view)
	require.ErrorIs(t, err, ErrCacheOverflow)

	// Subsequent within-window evictions degrade silently.
	_, err = p.Insert(makeEntry(t, 2, 400), view)
	require.NoError(t, err)
}

func testPrimaryOversizedEntryDropped(t *testing.T) {
	p := NewPrimary(100, nil)
	view := makeView(0, 10, 0, 1)

	big := makeEntry(t, 0, 500)
	evicted, err := p.Insert(big, view)
	require.ErrorIs(t, err, ErrCacheOverflow)
	require.Len(t, evicted, 1)
	assert.Equal(t, big.Ref.ID, evicted[0].Ref.ID)
	assert.Zero(t, p.Len())
	assert.Zero(t, p.TotalCost())
}

func testPrimaryTrimOutside(t *testing.T) {
	p := NewPrimary(10_000, nil)
	view := makeView(0, 100, 0, 1)

	inside := makeEntry(t, 0, 400)
	out1 := makeEntry(t, 10, 400)
	out2 := makeEntry(t, 50, 400)
	for _, e := range []*Entry{inside, out1, out2} {
		_, err := p.Insert(e, view)
		require.NoError(t, err)
	}

	evicted := p.TrimOutside(view, 800)
	require.Len(t, evicted, 1)
	assert.Equal(t, out2.Ref.ID, evicted[0].Ref.ID)

	evicted = p.EvictAllOutside(view)
	require.Len(t, evicted, 1)
	assert.Equal(t, out1.Ref.ID, evicted[0].Ref.ID)
	assert.True(t, p.Has(inside.Ref.ID), "within-window entries survive pressure trims")
}

func testPrimaryResidentBitmap(t *testing.T) {
	p := NewPrimary(10_000, nil)
	view := makeView(0, 100, 0, 1, 2)

	a := makeEntry(t, 3, 100)
	b := makeEntry(t, 7, 100)
	_, _ = p.Insert(a, view)
	_, _ = p.Insert(b, view)

	assert.ElementsMatch(t, []uint32{3, 7}, p.Resident().ToArray())

	p.Remove(a.Ref.ID)
	assert.ElementsMatch(t, []uint32{7}, p.Resident().ToArray())
}

func testLRUStrictRecency(t *testing.T) {
	l := NewLRU(2, 0, nil)

	a := makeEntry(t, 0, 10)
	b := makeEntry(t, 1, 10)
	c := makeEntry(t, 2, 10)

	require.Empty(t, l.Insert(a))
	require.Empty(t, l.Insert(b))

	evicted := l.Insert(c)
	require.Len(t, evicted, 1)
	assert.Equal(t, a.Ref.ID, evicted[0].Ref.ID, "least-recently-used entry must be evicted")
	assert.Equal(t, 2, l.Len())
}

func testLRUByteBudget(t *testing.T) {
	l := NewLRU(0, 100, nil)

	require.Empty(t, l.Insert(makeEntry(t, 0, 60)))
	evicted := l.Insert(makeEntry(t, 1, 60))
	require.Len(t, evicted, 1)
	assert.LessOrEqual(t, l.TotalBytes(), int64(100))
}

func testLRUGetPromotesRecency(t *testing.T) {
	l := NewLRU(2, 0, nil)

	a := makeEntry(t, 0, 10)
	b := makeEntry(t, 1, 10)
	l.Insert(a)
	l.Insert(b)

	require.NotNil(t, l.Get(a.Ref.ID))

	evicted := l.Insert(makeEntry(t, 2, 10))
	require.Len(t, evicted, 1)
	assert.Equal(t, b.Ref.ID, evicted[0].Ref.ID, "touched entry must survive")
}

func testLRUTrimAndClear(t *testing.T) {
	l := NewLRU(8, 0, nil)
	for i := 0; i < 8; i++ {
		l.Insert(makeEntry(t, i, 10))
	}

	l.TrimTo(4)
	assert.Equal(t, 4, l.Len())

	l.Clear()
	assert.Zero(t, l.Len())
	assert.Zero(t, l.TotalBytes())
}

func testLRUSetLimits(t *testing.T) {
	l := NewLRU(8, 0, nil)
	for i := 0; i < 8; i++ {
		l.Insert(makeEntry(t, i, 10))
	}

	// Tightened bounds apply immediately, oldest-first.
	l.SetLimits(3, 0)
	assert.Equal(t, 3, l.Len())

	l.SetLimits(0, 20)
	assert.LessOrEqual(t, l.TotalBytes(), int64(20))

	// Both bounds zeroed disables the tier entirely.
	l.SetLimits(0, 0)
	assert.Zero(t, l.Len())
}

func testLRUDisabled(t *testing.T) {
	l := NewLRU(0, 0, nil)
	e := makeEntry(t, 0, 10)
	evicted := l.Insert(e)
	require.Len(t, evicted, 1)
	assert.Equal(t, e.Ref.ID, evicted[0].Ref.ID)
	assert.Zero(t, l.Len())
}
