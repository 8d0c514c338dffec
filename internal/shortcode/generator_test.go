package shortcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	taken map[string]bool
	calls int
}

func (f *fakeIndex) Exists(code string) bool {
	f.calls++
	return f.taken[code]
}

func TestGenerator_Generate(t *testing.T) {
	const alphabet = "abc123"

	t.Run("draws from the alphabet at the configured length", func(t *testing.T) {
		gen := NewGenerator(alphabet, 6, &fakeIndex{})

		for i := 0; i < 100; i++ {
			code, err := gen.Generate()

			require.NoError(t, err)
			assert.Len(t, code, 6)
			for _, r := range code {
				assert.Contains(t, alphabet, string(r))
			}
		}
	})

	t.Run("retries on collision", func(t *testing.T) {
		// With a single-character code space of two, some draws must collide.
		idx := &fakeIndex{taken: map[string]bool{"a": true}}
		gen := NewGenerator("ab", 1, idx)

		for i := 0; i < 20; i++ {
			code, err := gen.Generate()

			require.NoError(t, err)
			assert.Equal(t, "b", code)
		}
		assert.GreaterOrEqual(t, idx.calls, 20)
	})

	t.Run("rejects an invalid configuration", func(t *testing.T) {
		gen := NewGenerator("", 6, &fakeIndex{})

		_, err := gen.Generate()

		require.Error(t, err)
	})

	t.Run("distinct codes in bulk", func(t *testing.T) {
		gen := NewGenerator("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz", 8, &fakeIndex{})

		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			code, err := gen.Generate()
			require.NoError(t, err)
			require.False(t, seen[code], "duplicate code %s", code)
			seen[code] = true
		}
		assert.Len(t, seen, 1000)
	})
}
