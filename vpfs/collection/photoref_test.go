package collection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoRefs(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{"NewPhotoRefsAssignsOrdinals", testNewPhotoRefsAssignsOrdinals},
		{"StaticProviderRoundTrip", testStaticProviderRoundTrip},
		{"StaticProviderRejectsSparseOrdinals", testStaticProviderRejectsSparseOrdinals},
		{"StaticProviderCopies", testStaticProviderCopies},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func testNewPhotoRefsAssignsOrdinals(t *testing.T) {
	refs := NewPhotoRefs([]string{"/p/a.jpg", "/p/b.jpg", "/p/c.jpg"})
	require.Len(t, refs, 3)

	seen := make(map[string]bool)
	for i, ref := range refs {
		assert.Equal(t, i, ref.Ordinal)
		assert.False(t, seen[ref.ID.String()], "ids must be unique")
		seen[ref.ID.String()] = true
	}
	assert.Equal(t, "/p/b.jpg", refs[1].Locator)
}

func testStaticProviderRoundTrip(t *testing.T) {
	refs := NewPhotoRefs([]string{"/p/a.jpg", "/p/b.jpg"})
	p, err := NewStaticProvider(refs, true)
	require.NoError(t, err)

	listed, err := p.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, refs, listed)
	assert.True(t, p.Circular())
}

func testStaticProviderRejectsSparseOrdinals(t *testing.T) {
	refs := NewPhotoRefs([]string{"/p/a.jpg", "/p/b.jpg"})
	refs[1].Ordinal = 5

	_, err := NewStaticProvider(refs, false)
	require.Error(t, err)
}

func testStaticProviderCopies(t *testing.T) {
	refs := NewPhotoRefs([]string{"/p/a.jpg"})
	p, err := NewStaticProvider(refs, false)
	require.NoError(t, err)

	listed, err := p.List(context.Background())
	require.NoError(t, err)
	listed[0].Locator = "/mutated"

	again, err := p.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/p/a.jpg", again[0].Locator)
}
