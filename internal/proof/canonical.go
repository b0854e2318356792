// Package proof produces the canonical serializations and SHA-256 digests
// that anchor split and manifest data for dispute resolution. Two
// structurally equal values must always canonicalize to the same bytes, no
// matter how their keys or rows were ordered when they were built.
package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Canonicalize rewrites value into its canonical form: object keys become
// lexicographically ordered, keys holding null are dropped, and array
// element order is preserved. The value is passed through JSON, so any
// JSON-serializable input is accepted.
func Canonicalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return stripNulls(decoded), nil
}

func stripNulls(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			if v == nil {
				continue
			}
			out[key] = stripNulls(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = stripNulls(v)
		}
		return out
	default:
		return value
	}
}

// StableStringify serializes the canonical form of value. The pretty flag is
// for human display only; hashes are always computed over the compact form.
func StableStringify(value any, pretty bool) (string, error) {
	canonical, err := Canonicalize(value)
	if err != nil {
		return "", err
	}

	var raw []byte
	if pretty {
		raw, err = json.MarshalIndent(canonical, "", "  ")
	} else {
		raw, err = json.Marshal(canonical)
	}
	if err != nil {
		return "", fmt.Errorf("stable stringify: %w", err)
	}
	return string(raw), nil
}

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
