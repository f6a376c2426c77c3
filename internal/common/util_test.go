package common

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandURLSafeString(t *testing.T) {
	s, err := MakeRandURLSafeString(32)
	require.NoError(t, err)

	assert.Len(t, s, 43)
	assert.NotContains(t, s, "+")
	assert.NotContains(t, s, "/")
	assert.NotContains(t, s, "=")

	raw, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestMakeRandURLSafeString_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		s, err := MakeRandURLSafeString(32)
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "duplicate token %q", s)
		seen[s] = struct{}{}
	}
}
