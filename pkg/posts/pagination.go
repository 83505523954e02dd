package posts

// DefaultPageSize is used when a caller passes a non-positive page size
const DefaultPageSize = 5

// Page is a bounded, ordered view over a post sequence. Pages are
// computed on demand from a snapshot's posts and never persisted.
type Page struct {
	Posts       []Post
	Index       int
	TotalPages  int
	HasPrevious bool
	HasNext     bool
}

// Paginate slices an ordered post sequence into the page at the given
// index. An out-of-range index is clamped rather than rejected, so
// navigation buttons built from a stale page index can never request an
// invalid page. An empty sequence yields a single empty page with both
// navigation flags false.
func Paginate(items []Post, index, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}

	total := (len(items) + size - 1) / size
	if total == 0 {
		total = 1
	}

	if index < 0 {
		index = 0
	}
	if index > total-1 {
		index = total - 1
	}

	start := index * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page{
		Posts:       items[start:end],
		Index:       index,
		TotalPages:  total,
		HasPrevious: index > 0,
		HasNext:     (index+1)*size < len(items),
	}
}
