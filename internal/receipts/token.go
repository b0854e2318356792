// Package receipts mints and verifies the bearer tokens that let anonymous
// buyers reach purchased content without an account.
package receipts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultTokenBytes is the entropy of a minted token before hex encoding.
const DefaultTokenBytes = 32

// MintToken returns a random lowercase-hex secret with byteLen bytes of
// entropy.
func MintToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		byteLen = DefaultTokenBytes
	}
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating receipt token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
