package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(5, 2))
	assert.Equal(t, 1, PageCount(2, 2))
	assert.Equal(t, 0, PageCount(0, 12))
	assert.Equal(t, 0, PageCount(5, 0))
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, PerPage: 12}.Offset())
	assert.Equal(t, 24, PageRequest{Page: 3, PerPage: 12}.Offset())
	assert.Equal(t, 0, PageRequest{Page: 0, PerPage: 12}.Offset())
}

func TestClampRating(t *testing.T) {
	assert.Equal(t, 0.0, ClampRating(-1))
	assert.Equal(t, 5.0, ClampRating(7.2))
	assert.Equal(t, 3.5, ClampRating(3.5))
}

func TestIsValidOrderStatus(t *testing.T) {
	st, ok := IsValidOrderStatus(" Confirmed ")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusConfirmed, st)

	_, ok = IsValidOrderStatus("shipped")
	assert.False(t, ok)
}

func TestCanBeModifiedBy(t *testing.T) {
	p := &Product{SellerID: "seller"}
	assert.True(t, p.CanBeModifiedBy(&User{ID: "seller"}))
	assert.True(t, p.CanBeModifiedBy(&User{ID: "other", IsAdmin: true}))
	assert.False(t, p.CanBeModifiedBy(&User{ID: "other"}))
	assert.False(t, p.CanBeModifiedBy(nil))
}
