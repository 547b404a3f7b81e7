package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Run("generates ID with prefix", func(t *testing.T) {
		id := NewID("plt")
		assert.True(t, strings.HasPrefix(id, "plt_"))
		assert.Len(t, id, len("plt_")+26)
	})

	t.Run("lowercases and trims prefix", func(t *testing.T) {
		id := NewID("  TK  ")
		assert.True(t, strings.HasPrefix(id, "tk_"))
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := NewID("lnc")
			assert.False(t, seen[id], "duplicate ID generated: %s", id)
			seen[id] = true
		}
	})

	t.Run("panics on empty prefix", func(t *testing.T) {
		assert.Panics(t, func() { NewID("") })
		assert.Panics(t, func() { NewID("   ") })
	})
}

func TestIsValidULID(t *testing.T) {
	t.Run("accepts generated IDs", func(t *testing.T) {
		assert.True(t, IsValidULID(NewID("plt")))
		assert.True(t, IsValidULID(NewID("lst")))
	})

	t.Run("rejects invalid formats", func(t *testing.T) {
		invalid := []string{
			"",
			"noprefix",
			"plt_",
			"_01G0EZ1XTM37C5X11SQTDNCTM1",
			"plt_tooshort",
			"PLT_01G0EZ1XTM37C5X11SQTDNCTM1",
			"plt_01G0EZ1XTM37C5X11SQTDNCTMI", // contains I
			"plt_01G0EZ1XTM37C5X11SQTDNCTM1_extra",
		}
		for _, id := range invalid {
			assert.False(t, IsValidULID(id), "expected invalid: %q", id)
		}
	})
}

func TestNewStateToken(t *testing.T) {
	t.Run("generates token with prefix", func(t *testing.T) {
		token, err := NewStateToken("state")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(token, "state_"))
		// 32 bytes base64-encoded is 44 characters
		assert.Len(t, token, len("state_")+44)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		first, err := NewStateToken("state")
		require.NoError(t, err)
		second, err := NewStateToken("state")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}
