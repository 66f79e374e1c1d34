package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theleywin/talent-nest-network/src/store"
)

func TestPageSkip(t *testing.T) {
	tests := []struct {
		page store.Page
		want int
	}{
		{store.Page{Page: 0, Limit: 20}, 0},
		{store.Page{Page: 1, Limit: 20}, 0},
		{store.Page{Page: 3, Limit: 20}, 40},
		{store.Page{Page: 5, Limit: 0}, 0},
		{store.Page{Page: 1 << 62, Limit: 100}, store.MaxSkip},
		{store.Page{Page: store.MaxSkip/100 + 2, Limit: 100}, store.MaxSkip},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.page.Skip(), "%+v", tt.page)
	}
}
