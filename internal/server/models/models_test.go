package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasPendingReset(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	token := "tok"
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.False(t, (&User{}).HasPendingReset(now))
	assert.True(t, (&User{ResetToken: &token, TokenExpiration: &future}).HasPendingReset(now))
	assert.True(t, (&User{ResetToken: &token, TokenExpiration: &now}).HasPendingReset(now))
	assert.False(t, (&User{ResetToken: &token, TokenExpiration: &past}).HasPendingReset(now))
}

func TestProduct_ResourceOwnerID(t *testing.T) {
	assert.Equal(t, "u-1", (&Product{OwnerID: "u-1"}).ResourceOwnerID())
}
