package shipmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameTokens(t *testing.T) {
	t.Run("Two Part Name", func(t *testing.T) {
		tokens := NameTokens("John Doe")
		assert.Equal(t, []string{"JDOE", "JODO", "JOHD"}, tokens)
	})

	t.Run("All Tokens Are Four Letters", func(t *testing.T) {
		for _, name := range []string{"John Doe", "Ama Mensah", "Li Wu", "Cher", "Jean-Pierre van Damme"} {
			for _, token := range NameTokens(name) {
				assert.Len(t, []rune(token), 4, "name %q token %q", name, token)
			}
		}
	})

	t.Run("Single Part Name Pads By Repetition", func(t *testing.T) {
		tokens := NameTokens("Cher")
		require.NotEmpty(t, tokens)
		// k=1: C + CHE, k=2: CH + CH, k=3: CHE + C
		assert.Equal(t, []string{"CCHE", "CHCH", "CHEC"}, tokens)
	})

	t.Run("Short Parts Pad By Repetition", func(t *testing.T) {
		tokens := NameTokens("Li Wu")
		// k=1: L + WUW, k=2: LI + WU, k=3: LIL + W
		assert.Equal(t, []string{"LWUW", "LIWU", "LILW"}, tokens)
	})

	t.Run("Middle Names Ignored", func(t *testing.T) {
		assert.Equal(t, NameTokens("John Doe"), NameTokens("John Kwame Doe"))
	})

	t.Run("Uppercased", func(t *testing.T) {
		assert.Equal(t, NameTokens("JOHN DOE"), NameTokens("john doe"))
	})

	t.Run("Duplicates Removed Preserving Order", func(t *testing.T) {
		tokens := NameTokens("Aa Aa")
		seen := make(map[string]bool)
		for _, token := range tokens {
			assert.False(t, seen[token], "duplicate token %q", token)
			seen[token] = true
		}
	})

	t.Run("Empty Name Yields No Tokens", func(t *testing.T) {
		assert.Empty(t, NameTokens(""))
		assert.Empty(t, NameTokens("   "))
	})

	t.Run("Deterministic Ordering", func(t *testing.T) {
		first := NameTokens("Kofi Asante")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, NameTokens("Kofi Asante"))
		}
	})
}
