package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 3.14, RoundFloat(3.14159, 2))
	assert.Equal(t, 3.142, RoundFloat(3.14159, 3))
	assert.Equal(t, -2.5, RoundFloat(-2.499, 1))
	assert.Equal(t, 7.0, RoundFloat(7.0, 2))
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 50.0, PercentChange(150, 100))
	assert.Equal(t, -25.0, PercentChange(75, 100))
	assert.Equal(t, 0.0, PercentChange(100, 100))
	assert.Equal(t, 0.0, PercentChange(500, 0), "zero baseline reports zero, not infinity")
	assert.Equal(t, 33.33, PercentChange(400, 300))
}
