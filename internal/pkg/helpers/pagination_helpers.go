package helpers

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studentdesk/student-api/internal/app/models/dto"
)

const (
	DefaultPageSize = 20
	ChatPageSize    = 50
	MaxPageSize     = 100
	DefaultPage     = 0 // pages are 0-based

	// MaxPage keeps page*size well inside the bigint OFFSET range
	MaxPage = math.MaxInt32
)

// PageRequest is a 0-based page window with an optional sort order.
type PageRequest struct {
	Page      int
	Size      int
	SortField string
	SortDesc  bool
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() uint64 {
	return uint64(p.Page) * uint64(p.Size)
}

// Limit returns the page size as an unsigned row count.
func (p PageRequest) Limit() uint64 {
	return uint64(p.Size)
}

// NewPageRequest clamps page and size into the accepted range.
func NewPageRequest(page, size, defaultSize int) PageRequest {
	if page < 0 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

// ParsePageRequest reads page, size and sort query parameters. Sort takes
// the form "field" or "field,asc|desc"; with no sort the order defaults to
// id descending.
func ParsePageRequest(c *gin.Context, defaultSize int) PageRequest {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		page = DefaultPage
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultSize)))
	if err != nil {
		size = defaultSize
	}

	req := NewPageRequest(page, size, defaultSize)
	req.SortField, req.SortDesc = ParseSort(c.Query("sort"))
	return req
}

// ParseSort splits a "field,direction" sort expression.
func ParseSort(raw string) (field string, desc bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "id", true
	}
	parts := strings.SplitN(raw, ",", 2)
	field = strings.TrimSpace(parts[0])
	if field == "" {
		field = "id"
	}
	if len(parts) == 2 {
		desc = strings.EqualFold(strings.TrimSpace(parts[1]), "desc")
	}
	return field, desc
}

// NewPageMeta builds paging metadata for a 0-based page.
func NewPageMeta(totalElements int64, req PageRequest) dto.PageMeta {
	totalPages := 0
	if req.Size > 0 && totalElements > 0 {
		totalPages = int(math.Ceil(float64(totalElements) / float64(req.Size)))
	}

	return dto.PageMeta{
		Page:          req.Page,
		Size:          req.Size,
		TotalPages:    totalPages,
		TotalElements: totalElements,
		IsFirst:       req.Page == 0,
		IsLast:        req.Page+1 >= totalPages,
	}
}
