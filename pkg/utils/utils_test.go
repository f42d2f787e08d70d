package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	h, err := HashPassword("123456789")
	require.NoError(t, err)
	assert.NotEqual(t, "123456789", h)
	assert.True(t, CheckPassword("123456789", h))
	assert.False(t, CheckPassword("12345678", h))
	assert.False(t, CheckPassword("123456789", "not-a-hash"))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), a)
	assert.NotEqual(t, a, b)
}
