package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePagination_DefaultsAndBounds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var gotPage, gotSize int

	r.GET("/test", func(c *gin.Context) {
		gotPage, gotSize = ParsePagination(c, 1, 20, 100)
		c.Status(http.StatusOK)
	})

	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, 20},
		{"?page=abc&page_size=-5", 1, 20},
		{"?page=3&page_size=50", 3, 50},
		{"?page=2&page_size=5000", 2, 100},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil))
		assert.Equal(t, tt.wantPage, gotPage, tt.query)
		assert.Equal(t, tt.wantSize, gotSize, tt.query)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, p := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, page)
	assert.Equal(t, Pagination{Page: 2, PageSize: 2, Total: 5, TotalPages: 3}, p)

	page, _ = Paginate(items, 3, 2)
	assert.Equal(t, []int{5}, page)

	page, p = Paginate(items, 9, 2)
	assert.Empty(t, page)
	assert.Equal(t, 5, p.Total)

	page, p = Paginate([]int{}, 1, 10)
	assert.Empty(t, page)
	assert.Equal(t, 0, p.TotalPages)
}
