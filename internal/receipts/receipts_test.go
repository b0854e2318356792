package receipts

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklock/tracklock-backend/pkg/db/models"
)

func strptr(s string) *string { return &s }

func TestMintToken(t *testing.T) {
	token, err := MintToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.True(t, isHexToken(token))

	other, err := MintToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	fallback, err := MintToken(0)
	require.NoError(t, err)
	assert.Len(t, fallback, DefaultTokenBytes*2)
}

func TestReadTokenFromRequestHeaderWins(t *testing.T) {
	r := httptest.NewRequest("GET", "/content?receipt_token=fromquery", nil)
	r.Header.Add(TokenHeader, "fromheader")
	r.Header.Add(TokenHeader, "ignored")

	assert.Equal(t, "fromheader", ReadTokenFromRequest(r))
}

func TestReadTokenFromRequestQueryFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/content?receipt_token=fromquery", nil)
	assert.Equal(t, "fromquery", ReadTokenFromRequest(r))
}

func TestReadTokenFromRequestAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/content", nil)
	assert.Equal(t, "", ReadTokenFromRequest(r))
}

func TestTimingSafeTokenEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{name: "match", expected: "abcd1234", actual: "abcd1234", want: true},
		{name: "case insensitive", expected: "ABCD1234", actual: "abcd1234", want: true},
		{name: "mismatch", expected: "abcd1234", actual: "abcd1235", want: false},
		{name: "length mismatch", expected: "abcd1234", actual: "abcd12345", want: false},
		{name: "non-hex same length", expected: "abcd1234", actual: "zzzz1234", want: false},
		{name: "empty expected", expected: "", actual: "abcd1234", want: false},
		{name: "empty actual", expected: "abcd1234", actual: "", want: false},
		{name: "both empty", expected: "", actual: "", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TimingSafeTokenEqual(tc.expected, tc.actual))
		})
	}
}

func TestAuthorizeIntentByToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	token := "abcdef0123456789"

	tests := []struct {
		name      string
		presented string
		intent    *models.PaymentIntent
		want      bool
	}{
		{
			name:      "valid token with future expiry",
			presented: token,
			intent:    &models.PaymentIntent{ReceiptToken: strptr(token), ReceiptTokenExpiresAt: &future},
			want:      true,
		},
		{
			name:      "valid token without expiry",
			presented: token,
			intent:    &models.PaymentIntent{ReceiptToken: strptr(token)},
			want:      true,
		},
		{
			name:      "expired token rejected even on exact match",
			presented: token,
			intent:    &models.PaymentIntent{ReceiptToken: strptr(token), ReceiptTokenExpiresAt: &past},
			want:      false,
		},
		{
			name:      "expiry boundary is exclusive",
			presented: token,
			intent:    &models.PaymentIntent{ReceiptToken: strptr(token), ReceiptTokenExpiresAt: &now},
			want:      false,
		},
		{
			name:      "wrong token",
			presented: "abcdef0123456780",
			intent:    &models.PaymentIntent{ReceiptToken: strptr(token), ReceiptTokenExpiresAt: &future},
			want:      false,
		},
		{
			name:      "no token presented",
			presented: "",
			intent:    &models.PaymentIntent{ReceiptToken: strptr(token), ReceiptTokenExpiresAt: &future},
			want:      false,
		},
		{
			name:      "no token stored",
			presented: token,
			intent:    &models.PaymentIntent{ReceiptTokenExpiresAt: &future},
			want:      false,
		},
		{
			name:      "nil intent",
			presented: token,
			intent:    nil,
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/content", nil)
			if tc.presented != "" {
				r.Header.Set(TokenHeader, tc.presented)
			}
			assert.Equal(t, tc.want, AuthorizeIntentByToken(r, tc.intent, now))
		})
	}
}
