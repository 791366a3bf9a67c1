package token_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-app/api/internal/token"
)

func TestNew_Format(t *testing.T) {
	tok, err := token.New()
	require.NoError(t, err)

	assert.Len(t, tok, token.Length)
	assert.True(t, token.WellFormed(tok))

	decoded, err := hex.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, decoded, 16)
}

func TestNew_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for range 64 {
		tok, err := token.New()
		require.NoError(t, err)
		require.False(t, seen[tok], "duplicate token %q", tok)
		seen[tok] = true
	}
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid", "0123456789abcdef0123456789abcdef", true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"too long", "0123456789abcdef0123456789abcdef00", false},
		{"uppercase hex", "0123456789ABCDEF0123456789ABCDEF", false},
		{"non-hex", "0123456789abcdef0123456789abcdeg", false},
		{"path traversal", "../../../../etc/passwd-aaaaaaaaa", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, token.WellFormed(tt.in))
		})
	}
}
