package receipts

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/tracklock/tracklock-backend/pkg/db/models"
	"github.com/tracklock/tracklock-backend/pkg/types"
)

const (
	// TokenHeader carries the receipt token on content-access requests.
	TokenHeader = "X-Receipt-Token"
	// TokenQueryParam is the fallback for clients that cannot set headers,
	// e.g. direct download links.
	TokenQueryParam = "receipt_token"
)

// ReadTokenFromRequest extracts the presented receipt token. A repeated
// header contributes only its first value; the query parameter is consulted
// only when no header value is present.
func ReadTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := types.HeaderValueFrom(r.Header.Values(TokenHeader))
	if !header.IsEmpty() {
		return header.First()
	}
	return r.URL.Query().Get(TokenQueryParam)
}

// TimingSafeTokenEqual compares two receipt tokens without leaking match
// position through timing. Both sides are lowercased first. Values that are
// empty or not hex are rejected outright; a length mismatch is rejected
// before the constant-time comparison, since token length is not secret.
func TimingSafeTokenEqual(expected, actual string) bool {
	expected = strings.ToLower(expected)
	actual = strings.ToLower(actual)
	if !isHexToken(expected) || !isHexToken(actual) {
		return false
	}
	if len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

// AuthorizeIntentByToken reports whether the request may access the content
// purchased through intent. It never returns an error: every failure mode is
// the same boolean so the access gate can answer with one generic denial.
func AuthorizeIntentByToken(r *http.Request, intent *models.PaymentIntent, now time.Time) bool {
	if intent == nil || intent.ReceiptToken == nil {
		return false
	}
	presented := ReadTokenFromRequest(r)
	if presented == "" {
		return false
	}
	if !TimingSafeTokenEqual(*intent.ReceiptToken, presented) {
		return false
	}
	if intent.ReceiptTokenExpiresAt != nil && !now.Before(*intent.ReceiptTokenExpiresAt) {
		return false
	}
	return true
}

func isHexToken(value string) bool {
	if value == "" {
		return false
	}
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
