package query

import (
	"math"

	"github.com/sakif/restaurant-guide/internal/model"
)

const (
	DefaultPageSize        = 12
	DefaultCommentPageSize = 10
	DefaultSimilarLimit    = 4
	MaxPageSize            = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage normalises raw request values: a page below 1 becomes 1, a size
// below 1 becomes defaultSize and sizes above MaxPageSize are capped. The
// page number is capped so that Skip never overflows.
func NewPage(number, size, defaultSize int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultSize
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if limit := math.MaxInt / size; number > limit {
		number = limit
	}
	return Page{Number: number, Size: size}
}

// Skip is the number of records before this page. It saturates at
// math.MaxInt instead of overflowing and is never negative.
func (p Page) Skip() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// TotalPages is ceil(total / size).
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// Window returns the [start, end) slice bounds of this page within n items,
// clamped to n. A page past the end yields an empty window.
func (p Page) Window(n int) (start, end int) {
	start = p.Skip()
	if start > n {
		start = n
	}
	end = n
	if p.Size >= 0 && p.Size < n-start {
		end = start + p.Size
	}
	return start, end
}

// RestaurantPage is one page of a restaurant listing.
type RestaurantPage struct {
	Restaurants []model.RestaurantView `json:"restaurants"`
	TotalCount  int64                  `json:"totalCount"`
	TotalPages  int                    `json:"totalPages"`
	CurrentPage int                    `json:"currentPage"`
}

// HasNextPage reports whether a later page exists.
func (rp *RestaurantPage) HasNextPage() bool {
	return rp.CurrentPage < rp.TotalPages
}

// EmptyRestaurantPage is the zero result for a page request, e.g. for an
// unknown neighborhood.
func EmptyRestaurantPage(p Page) *RestaurantPage {
	return &RestaurantPage{
		Restaurants: []model.RestaurantView{},
		CurrentPage: p.Number,
	}
}

// CommentPage is one page of a restaurant's comments, newest first.
type CommentPage struct {
	Comments    []model.Comment `json:"comments"`
	Total       int             `json:"total"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

// PaginateComments orders comments newest first and cuts out page p.
func PaginateComments(comments []model.Comment, p Page) *CommentPage {
	ordered := model.NewestFirst(comments)
	start, end := p.Window(len(ordered))
	out := make([]model.Comment, end-start)
	copy(out, ordered[start:end])
	return &CommentPage{
		Comments:    out,
		Total:       len(ordered),
		TotalPages:  p.TotalPages(int64(len(ordered))),
		CurrentPage: p.Number,
	}
}
