package posts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makePosts(n int) []Post {
	items := make([]Post, n)
	for i := 0; i < n; i++ {
		items[i] = Post{
			ID:  fmt.Sprintf("post-%d", n-i),
			URL: fmt.Sprintf("https://example.com/p/%d", n-i),
		}
	}
	return items
}

func TestPaginateTwelvePostsPageSizeFive(t *testing.T) {
	items := makePosts(12)

	page0 := Paginate(items, 0, 5)
	assert.Len(t, page0.Posts, 5)
	assert.False(t, page0.HasPrevious)
	assert.True(t, page0.HasNext)
	assert.Equal(t, 3, page0.TotalPages)

	page1 := Paginate(items, 1, 5)
	assert.Len(t, page1.Posts, 5)
	assert.True(t, page1.HasPrevious)
	assert.True(t, page1.HasNext)

	page2 := Paginate(items, 2, 5)
	assert.Len(t, page2.Posts, 2)
	assert.True(t, page2.HasPrevious)
	assert.False(t, page2.HasNext)
}

func TestPaginatePreservesOrder(t *testing.T) {
	items := makePosts(7)

	var collected []Post
	for i := 0; i < 3; i++ {
		collected = append(collected, Paginate(items, i, 3).Posts...)
	}

	assert.Equal(t, items, collected)
}

func TestPaginateClampsOutOfRangeIndex(t *testing.T) {
	items := makePosts(12)

	beyond := Paginate(items, 99, 5)
	assert.Equal(t, 2, beyond.Index)
	assert.Len(t, beyond.Posts, 2)
	assert.True(t, beyond.HasPrevious)
	assert.False(t, beyond.HasNext)

	negative := Paginate(items, -3, 5)
	assert.Equal(t, 0, negative.Index)
	assert.False(t, negative.HasPrevious)
	assert.True(t, negative.HasNext)
}

func TestPaginateEmptyInput(t *testing.T) {
	page := Paginate(nil, 0, 5)

	assert.Empty(t, page.Posts)
	assert.Equal(t, 0, page.Index)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasPrevious)
	assert.False(t, page.HasNext)

	// Even a wild index clamps to the single empty page
	page = Paginate(nil, 42, 5)
	assert.Equal(t, 0, page.Index)
}

func TestPaginateDefaultsPageSize(t *testing.T) {
	items := makePosts(12)

	page := Paginate(items, 0, 0)
	assert.Len(t, page.Posts, DefaultPageSize)

	page = Paginate(items, 0, -1)
	assert.Len(t, page.Posts, DefaultPageSize)
}

func TestPaginatePageLengthInvariant(t *testing.T) {
	for _, total := range []int{0, 1, 4, 5, 6, 11, 25} {
		items := makePosts(total)
		page := Paginate(items, 0, 5)
		for i := 0; i < page.TotalPages; i++ {
			p := Paginate(items, i, 5)
			assert.LessOrEqual(t, len(p.Posts), 5)
			if i < page.TotalPages-1 {
				assert.Len(t, p.Posts, 5, "only the last page may be short (total=%d page=%d)", total, i)
			}
		}
	}
}
