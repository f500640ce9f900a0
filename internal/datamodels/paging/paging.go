package paging

// Page 分页结果
type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int64
}

// Normalize 修正非法的页码与每页条数
func Normalize(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	return page, perPage
}

// Offset 计算 SQL 偏移量
func Offset(page, perPage int) int {
	page, perPage = Normalize(page, perPage)
	return (page - 1) * perPage
}

func New[T any](items []T, page, perPage int, total int64) Page[T] {
	page, perPage = Normalize(page, perPage)
	return Page[T]{Items: items, Page: page, PerPage: perPage, Total: total}
}

func (p Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool { return p.Page < p.Pages() }
func (p Page[T]) PrevNum() int  { return p.Page - 1 }
func (p Page[T]) NextNum() int  { return p.Page + 1 }
