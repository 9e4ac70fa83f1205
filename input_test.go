package concierge_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/concierge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"under limit", concierge.DefaultMaxInputSize - 1, false},
		{"exact limit", concierge.DefaultMaxInputSize, false},
		{"over limit", concierge.DefaultMaxInputSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := concierge.SanitizeInput(strings.Repeat("a", tt.size), 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, concierge.ErrInputTooLarge)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSanitizeInput_Cleaning(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"normal text", "Flights to Kish?", "Flights to Kish?"},
		{"safe controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ansi code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"null byte", "Null\x00Byte", "NullByte"},
		{"surrounding space", "  hi \n", "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := concierge.SanitizeInput(tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_Rejects(t *testing.T) {
	_, err := concierge.SanitizeInput("\x00\x07  ", 0)
	assert.ErrorIs(t, err, concierge.ErrEmptyInput)

	_, err = concierge.SanitizeInput("bad \xff byte", 0)
	assert.ErrorIs(t, err, concierge.ErrInvalidUTF8)

	_, err = concierge.SanitizeInput("hello", 3)
	assert.ErrorIs(t, err, concierge.ErrInputTooLarge)
}

func TestIsInputError(t *testing.T) {
	assert.True(t, concierge.IsInputError(concierge.ErrEmptyInput))
	assert.True(t, concierge.IsInputError(fmt.Errorf("wrapped: %w", concierge.ErrInputTooLarge)))
	assert.False(t, concierge.IsInputError(fmt.Errorf("boom")))
}
