package search

import "testing"

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		pageSize   int
		page       int
		wantNumber int
		wantLast   int
		wantOffset int
		wantLimit  int
	}{
		{
			name:  "first page",
			total: 5, pageSize: 2, page: 1,
			wantNumber: 1, wantLast: 3, wantOffset: 0, wantLimit: 2,
		},
		{
			name:  "middle page",
			total: 5, pageSize: 2, page: 2,
			wantNumber: 2, wantLast: 3, wantOffset: 2, wantLimit: 2,
		},
		{
			name:  "last partial page",
			total: 5, pageSize: 2, page: 3,
			wantNumber: 3, wantLast: 3, wantOffset: 4, wantLimit: 1,
		},
		{
			name:  "out of range page clamps to last",
			total: 5, pageSize: 2, page: 10,
			wantNumber: 3, wantLast: 3, wantOffset: 4, wantLimit: 1,
		},
		{
			name:  "page below one clamps to first",
			total: 5, pageSize: 2, page: 0,
			wantNumber: 1, wantLast: 3, wantOffset: 0, wantLimit: 2,
		},
		{
			name:  "empty sequence",
			total: 0, pageSize: 2, page: 1,
			wantNumber: 1, wantLast: 1, wantOffset: 0, wantLimit: 0,
		},
		{
			name:  "all sentinel",
			total: 7, pageSize: PageSizeAll, page: 3,
			wantNumber: 1, wantLast: 1, wantOffset: 0, wantLimit: 7,
		},
		{
			name:  "invalid page size falls back to default",
			total: 45, pageSize: 0, page: 1,
			wantNumber: 1, wantLast: 3, wantOffset: 0, wantLimit: DefaultPageSize,
		},
		{
			name:  "negative page size falls back to default",
			total: 5, pageSize: -3, page: 1,
			wantNumber: 1, wantLast: 1, wantOffset: 0, wantLimit: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.total, tt.pageSize, tt.page)

			if p.Number != tt.wantNumber {
				t.Errorf("Number = %d, want %d", p.Number, tt.wantNumber)
			}
			if p.Last != tt.wantLast {
				t.Errorf("Last = %d, want %d", p.Last, tt.wantLast)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", p.Offset, tt.wantOffset)
			}
			if p.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", p.Limit, tt.wantLimit)
			}
		})
	}
}

// Concatenating every page in order must reproduce the sequence exactly once.
func TestPaginateCoversSequenceExactly(t *testing.T) {
	for _, total := range []int{0, 1, 5, 20, 41} {
		for _, pageSize := range []int{1, 3, 7, 20} {
			last := Paginate(total, pageSize, 1).Last

			covered := 0
			prevEnd := 0
			for page := 1; page <= last; page++ {
				p := Paginate(total, pageSize, page)
				if p.Offset != prevEnd {
					t.Fatalf("total=%d size=%d page=%d: offset %d, want %d", total, pageSize, page, p.Offset, prevEnd)
				}
				if p.Limit > pageSize {
					t.Fatalf("total=%d size=%d page=%d: limit %d exceeds page size", total, pageSize, page, p.Limit)
				}
				if p.Offset+p.Limit > total {
					t.Fatalf("total=%d size=%d page=%d: slice overruns sequence", total, pageSize, page)
				}
				prevEnd = p.Offset + p.Limit
				covered += p.Limit
			}
			if covered != total {
				t.Fatalf("total=%d size=%d: pages cover %d items", total, pageSize, covered)
			}
		}
	}
}
