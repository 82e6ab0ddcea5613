package helpers

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePageRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  PageRequest
	}{
		{name: "defaults", query: "", want: PageRequest{Page: 0, Size: 20, SortField: "id", SortDesc: true}},
		{name: "explicit", query: "page=2&size=5&sort=name,asc", want: PageRequest{Page: 2, Size: 5, SortField: "name"}},
		{name: "negative page", query: "page=-1", want: PageRequest{Page: 0, Size: 20, SortField: "id", SortDesc: true}},
		{name: "huge page", query: "page=9000000000000000000&size=100", want: PageRequest{Page: MaxPage, Size: 100, SortField: "id", SortDesc: true}},
		{name: "oversized", query: "size=1000", want: PageRequest{Page: 0, Size: MaxPageSize, SortField: "id", SortDesc: true}},
		{name: "garbage", query: "page=x&size=y", want: PageRequest{Page: 0, Size: 20, SortField: "id", SortDesc: true}},
		{name: "sort desc", query: "sort=age,DESC", want: PageRequest{Page: 0, Size: 20, SortField: "age", SortDesc: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePageRequest(c, DefaultPageSize))
		})
	}
}

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(45, PageRequest{Page: 0, Size: 20})
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.IsFirst)
	assert.False(t, meta.IsLast)

	meta = NewPageMeta(45, PageRequest{Page: 2, Size: 20})
	assert.False(t, meta.IsFirst)
	assert.True(t, meta.IsLast)

	meta = NewPageMeta(0, PageRequest{Page: 0, Size: 20})
	assert.Equal(t, 0, meta.TotalPages)
	assert.True(t, meta.IsFirst)
	assert.True(t, meta.IsLast)
}

func TestPageRequest_Offset(t *testing.T) {
	assert.Equal(t, uint64(40), PageRequest{Page: 2, Size: 20}.Offset())
	assert.Equal(t, uint64(20), PageRequest{Page: 2, Size: 20}.Limit())

	huge := NewPageRequest(1<<62, MaxPageSize, DefaultPageSize)
	assert.LessOrEqual(t, huge.Offset(), uint64(math.MaxInt64))
}
