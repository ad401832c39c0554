package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Supermercado", SanitizeText("  Supermercado  "))
	assert.Equal(t, "café y pan", SanitizeText("café y pan"))
	assert.Equal(t, "abc", SanitizeText("a\x00b\x07c"))
	assert.Equal(t, "", SanitizeText("   "))
}

func TestStripUnprintableKeepsCommonWhitespace(t *testing.T) {
	assert.Equal(t, "line1\nline2\ttabbed", StripUnprintable("line1\nline2\ttabbed"))
}

func TestIsLikelyEmail(t *testing.T) {
	assert.True(t, IsLikelyEmail("user@example.com"))
	assert.False(t, IsLikelyEmail("user@localhost"))
	assert.False(t, IsLikelyEmail("no-at-sign.com"))
	assert.False(t, IsLikelyEmail(""))
}
