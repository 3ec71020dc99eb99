package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFailedProductPatch_Apply(t *testing.T) {
	start := time.Date(2013, 4, 1, 0, 0, 0, 0, time.UTC)
	product := &FailedProduct{
		ID:        "p-1",
		Name:      "Google Glass",
		Category:  "Wearables",
		Upvotes:   3,
		CreatedBy: "admin-1",
	}

	name := "Google Glass Explorer Edition"
	patch := FailedProductPatch{Name: &name, StartDate: &start}
	assert.False(t, patch.IsEmpty())

	patch.Apply(product)

	assert.Equal(t, name, product.Name)
	assert.Equal(t, start, product.StartDate)
	assert.Equal(t, "Wearables", product.Category)
	assert.Equal(t, 3, product.Upvotes)
	assert.Equal(t, "admin-1", product.CreatedBy)
}

func TestFailedProductPatch_IsEmpty(t *testing.T) {
	assert.True(t, FailedProductPatch{}.IsEmpty())
}

func TestUser_HasVotedOn(t *testing.T) {
	u := &User{Votes: []Vote{{ProductID: "a", VoteType: VoteUp}, {ProductID: "b", VoteType: VoteDown}}}

	assert.True(t, u.HasVotedOn("a"))
	assert.True(t, u.HasVotedOn("b"))
	assert.False(t, u.HasVotedOn("c"))
}
