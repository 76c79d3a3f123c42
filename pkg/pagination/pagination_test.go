package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(23, 10))
	assert.Equal(t, 2, TotalPages(20, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
}

func TestSlice(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	page3 := Slice(items, Params{Page: 3, Limit: 10})
	assert.Len(t, page3, 3)
	assert.Equal(t, []int{20, 21, 22}, page3)

	beyond := Slice(items, Params{Page: 4, Limit: 10})
	assert.Empty(t, beyond)

	meta := NewMeta(Params{Page: 4, Limit: 10}, 23)
	assert.Equal(t, int64(23), meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 4, meta.Page)
}

func TestNormalize(t *testing.T) {
	p := Params{Page: 0, Limit: 500}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)

	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
}

func TestNewPageNeverNil(t *testing.T) {
	page := NewPage[string](nil, Params{}, 0)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}
