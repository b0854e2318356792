package proof

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tracklock/tracklock-backend/pkg/db/models"
)

// NormalizedSplit is one participant's entry in the proof payload. Percent
// is fixed-point text so the serialized form never depends on float
// formatting.
type NormalizedSplit struct {
	ParticipantID    *string `json:"participantId"`
	ParticipantEmail *string `json:"participantEmail"`
	Role             string  `json:"role"`
	Percent          string  `json:"percent"`
}

// NormalizePercentString rounds a numeric percent to three decimal places
// and formats it as fixed-point text. Non-finite input normalizes to
// "0.000" instead of raising; upstream corruption surfaces in the hash, not
// as a crash mid-settlement.
func NormalizePercentString(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0.000"
	}
	return decimal.NewFromFloat(value).Round(3).StringFixed(3)
}

// SplitsForProof converts locked split participants into proof form, with
// percent derived from basis points, already in canonical order.
func SplitsForProof(participants []models.SplitParticipant) []NormalizedSplit {
	splits := make([]NormalizedSplit, len(participants))
	for i, p := range participants {
		splits[i] = NormalizedSplit{
			ParticipantID:    copyString(p.ParticipantID),
			ParticipantEmail: copyString(p.ParticipantEmail),
			Role:             string(p.Role),
			Percent:          NormalizePercentString(float64(p.Bps) / 100),
		}
	}
	return NormalizeSplitsForProof(splits)
}

// NormalizeSplitsForProof re-normalizes percent text and sorts entries into
// the canonical (email, participant id, role) order, both case-insensitive,
// so the resulting hash is independent of storage or retrieval order. The
// function is idempotent.
func NormalizeSplitsForProof(splits []NormalizedSplit) []NormalizedSplit {
	normalized := make([]NormalizedSplit, len(splits))
	for i, split := range splits {
		normalized[i] = NormalizedSplit{
			ParticipantID:    copyString(split.ParticipantID),
			ParticipantEmail: copyString(split.ParticipantEmail),
			Role:             split.Role,
			Percent:          normalizePercentText(split.Percent),
		}
	}

	sort.SliceStable(normalized, func(a, b int) bool {
		left, right := normalized[a], normalized[b]
		if le, re := sortKey(left.ParticipantEmail), sortKey(right.ParticipantEmail); le != re {
			return le < re
		}
		if li, ri := sortKey(left.ParticipantID), sortKey(right.ParticipantID); li != ri {
			return li < ri
		}
		return left.Role < right.Role
	})

	return normalized
}

func normalizePercentText(value string) string {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return "0.000"
	}
	return parsed.Round(3).StringFixed(3)
}

func sortKey(value *string) string {
	if value == nil {
		return ""
	}
	return strings.ToLower(*value)
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
