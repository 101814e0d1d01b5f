package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "compsci220", normalizeCode("COMP SCI 220"))
	assert.Equal(t, "compsci220", normalizeCode("comp sci 220"))
	assert.Equal(t, "compsci220", normalizeCode("compsci220"))
	assert.Equal(t, "math221", normalizeCode(" MATH  221 "))
	assert.Equal(t, "", normalizeCode("   "))
}

func TestNumericSuffix(t *testing.T) {
	assert.Equal(t, 220, numericSuffix("COMP SCI 220"))
	assert.Equal(t, 7, numericSuffix("MATH 7"))
	assert.Equal(t, 101, numericSuffix("BIO101"))

	// Codes without a trailing number sort last.
	assert.Greater(t, numericSuffix("SEMINAR"), 1<<29)
}

func TestSplitLetterDigit(t *testing.T) {
	assert.Equal(t, "cs 220", splitLetterDigit("cs220"))
	assert.Equal(t, "math 221", splitLetterDigit("math221"))
	assert.Equal(t, "cs 220", splitLetterDigit("cs 220"))
	assert.Equal(t, "220", splitLetterDigit("220"))
	assert.Equal(t, "biology", splitLetterDigit("biology"))
}

func TestExpandQuery(t *testing.T) {
	assert.Equal(t, "computer science 220", expandQuery("CS220"))
	assert.Equal(t, "computer science 220", expandQuery("cs 220"))
	assert.Equal(t, "biology", expandQuery("BIO"))
	assert.Equal(t, "intro to psychology", expandQuery("intro to psych"))
	assert.Equal(t, "neuroscience", expandQuery("  neuroscience  "))
}
