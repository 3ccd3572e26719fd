package search

// DefaultPageSize replaces zero or negative page sizes.
const DefaultPageSize = 20

// PageSizeAll is the sentinel meaning "everything on one page".
const PageSizeAll = -1

// Page describes one clamped slice of a result sequence.
type Page struct {
	Number int // 1-indexed, clamped into [1, Last]
	Last   int // last page number, always >= 1
	Size   int // effective page size
	Offset int // start index into the sequence
	Limit  int // number of items on this page
}

// Paginate computes the slice bounds for a requested page over a sequence
// of length total. Out-of-range page numbers are clamped, never rejected.
// pageSize <= 0 (other than PageSizeAll) falls back to DefaultPageSize.
func Paginate(total, pageSize, page int) Page {
	if total < 0 {
		total = 0
	}
	if pageSize == PageSizeAll {
		return Page{Number: 1, Last: 1, Size: total, Offset: 0, Limit: total}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	last := (total + pageSize - 1) / pageSize
	if last < 1 {
		last = 1
	}
	if page < 1 {
		page = 1
	}
	if page > last {
		page = last
	}

	offset := (page - 1) * pageSize
	limit := pageSize
	if offset+limit > total {
		limit = total - offset
	}
	if limit < 0 {
		limit = 0
	}

	return Page{Number: page, Last: last, Size: pageSize, Offset: offset, Limit: limit}
}
