package proof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableStringifySortsKeys(t *testing.T) {
	first, err := StableStringify(map[string]any{"b": 2, "a": 1, "c": 3}, false)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, first)
}

func TestCanonicalizeInvariantUnderKeyOrder(t *testing.T) {
	// Maps built in different insertion orders must serialize identically.
	left := map[string]any{
		"outer": map[string]any{"z": 26, "a": 1},
		"list":  []any{"first", "second"},
	}
	right := map[string]any{
		"list":  []any{"first", "second"},
		"outer": map[string]any{"a": 1, "z": 26},
	}

	leftJSON, err := StableStringify(left, false)
	require.NoError(t, err)
	rightJSON, err := StableStringify(right, false)
	require.NoError(t, err)
	assert.Equal(t, leftJSON, rightJSON)
}

func TestCanonicalizeDropsNullKeys(t *testing.T) {
	serialized, err := StableStringify(map[string]any{"keep": "x", "drop": nil}, false)
	require.NoError(t, err)
	assert.Equal(t, `{"keep":"x"}`, serialized)
}

func TestCanonicalizePreservesArrayOrder(t *testing.T) {
	serialized, err := StableStringify([]any{"c", "a", "b"}, false)
	require.NoError(t, err)
	assert.Equal(t, `["c","a","b"]`, serialized)
}

func TestStableStringifyPrettyDiffersButHashInputDoesNot(t *testing.T) {
	value := map[string]any{"a": 1, "b": 2}

	compact, err := StableStringify(value, false)
	require.NoError(t, err)
	pretty, err := StableStringify(value, true)
	require.NoError(t, err)

	assert.NotEqual(t, compact, pretty)
	assert.NotContains(t, compact, "\n")
	assert.Contains(t, pretty, "\n")
}

func TestSHA256Hex(t *testing.T) {
	// Known vector for the empty input.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(nil))

	digest := SHA256Hex([]byte("tracklock"))
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, SHA256Hex([]byte("tracklock")))
}
