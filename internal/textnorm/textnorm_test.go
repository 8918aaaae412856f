package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNewlines(t *testing.T) {
	input := "a\r\nb\rc\nd"
	result := NormalizeNewlines(input)

	assert.Equal(t, "a\nb\nc\nd", result)
}

func TestCollapseSpaces(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"spaces", "a    b", "a b"},
		{"tabs", "a\t\tb", "a b"},
		{"mixed", "a \t b", "a b"},
		{"already single", "a b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollapseSpaces(tt.input))
		})
	}
}

func TestStripControl(t *testing.T) {
	input := "a\x00b\x1Fc\x7Fd"
	result := StripControl(input)

	assert.Equal(t, "abcd", result)
}

func TestStripControl_KeepsNewlineAndTab(t *testing.T) {
	input := "a\nb\tc"
	assert.Equal(t, input, StripControl(input))
}

func TestCollapseBlankLines(t *testing.T) {
	input := "a\n\n\n\n\nb"
	result := CollapseBlankLines(input)

	assert.Equal(t, "a\n\nb", result)
}
