package repository

// Page is a 1-based page request.
type Page struct {
	Page int
	Size int
}

// NewPage clamps page to >= 1 and size to [1, max], using def when size is unset.
func NewPage(page, size, def, max int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = def
	}
	if size > max {
		size = max
	}
	return Page{Page: page, Size: size}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Size
}

func (p Page) TotalPages(total int64) int64 {
	if p.Size == 0 {
		return 0
	}
	return (total + int64(p.Size) - 1) / int64(p.Size)
}
