package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		wantPage      int
		wantSize      int
		wantSizeGiven bool
	}{
		{"defaults", "http://test/emails", 1, 0, false},
		{"page and allowed size", "http://test/emails?page=3&page_size=50", 3, 50, true},
		{"disallowed size ignored", "http://test/emails?page=2&page_size=33", 2, 0, false},
		{"zero size ignored", "http://test/emails?page_size=0", 1, 0, false},
		{"negative page ignored", "http://test/emails?page=-4", 1, 0, false},
		{"garbage ignored", "http://test/emails?page=abc&page_size=xyz", 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			p, sizeGiven := ParsePagination(r)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.Equal(t, tt.wantSizeGiven, sizeGiven)
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(1, 25, 95)
	assert.Equal(t, 95, meta.Total)
	assert.Equal(t, 4, meta.Window.TotalPages)
	assert.Equal(t, 1, meta.Window.StartItem)
	assert.Equal(t, 25, meta.Window.EndItem)
	assert.False(t, meta.Window.CanGoPrevious)
	assert.True(t, meta.Window.CanGoNext)

	empty := NewPaginationMeta(1, 25, 0)
	assert.Equal(t, 1, empty.Window.TotalPages)
	assert.Zero(t, empty.Window.StartItem)
	assert.Zero(t, empty.Window.EndItem)
}
