package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("StrongP@ss1")
	require.NoError(t, err)
	assert.NotEqual(t, "StrongP@ss1", hash)

	assert.True(t, CheckPassword(hash, "StrongP@ss1"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		want bool
	}{
		{"ok", "Abc12!", true},
		{"ok long", "Str0ng#Passw0rd", true},
		{"too short", "Ab1!x", false},
		{"no upper", "abc123!x", false},
		{"no lower", "ABC123!X", false},
		{"no digit", "Abcdef!x", false},
		{"no symbol", "Abcdef12", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPassword(tt.pw))
		})
	}
}
