package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tracklock/tracklock-backend/api/responses"
	"github.com/tracklock/tracklock-backend/internal/settlement"
	"github.com/tracklock/tracklock-backend/pkg/db/models"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
	"github.com/tracklock/tracklock-backend/pkg/logger"
)

type allocationResponse struct {
	ParticipantRef string `json:"participant_ref"`
	Bps            int    `json:"bps"`
	AmountSats     int64  `json:"amount_sats"`
}

type finalizeResponse struct {
	SettlementID          string               `json:"settlement_id"`
	IntentID              string               `json:"intent_id"`
	ContentID             string               `json:"content_id"`
	SplitVersionID        string               `json:"split_version_id"`
	AmountSats            int64                `json:"amount_sats"`
	ProofHash             string               `json:"proof_hash"`
	Allocations           []allocationResponse `json:"allocations"`
	ReceiptToken          *string              `json:"receipt_token,omitempty"`
	ReceiptTokenExpiresAt *time.Time           `json:"receipt_token_expires_at,omitempty"`
	Replayed              bool                 `json:"replayed"`
}

// FinalizeSettlement settles a paid intent. Payment-rail integrations call
// it at least once per confirmation, so a replayed result is a success.
func FinalizeSettlement(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intentID, err := uuid.Parse(chi.URLParam(r, "intentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "intent id must be a uuid"))
			return
		}

		result, err := svc.FinalizePurchase(r.Context(), intentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, buildFinalizeResponse(result))
	}
}

func buildFinalizeResponse(result *settlement.FinalizeResult) finalizeResponse {
	resp := finalizeResponse{
		SettlementID:          result.Settlement.ID.String(),
		IntentID:              result.Settlement.IntentID.String(),
		ContentID:             result.Settlement.ContentID.String(),
		SplitVersionID:        result.Settlement.SplitVersionID.String(),
		AmountSats:            result.Settlement.AmountSats,
		ProofHash:             result.Settlement.ProofHash,
		Allocations:           buildAllocations(result.Settlement.Allocations),
		ReceiptToken:          result.ReceiptToken,
		ReceiptTokenExpiresAt: result.ReceiptTokenExpiresAt,
		Replayed:              result.Replayed,
	}
	return resp
}

func buildAllocations(allocations []models.SettlementAllocation) []allocationResponse {
	out := make([]allocationResponse, len(allocations))
	for i, alloc := range allocations {
		out[i] = allocationResponse{
			ParticipantRef: alloc.ParticipantRef,
			Bps:            alloc.Bps,
			AmountSats:     alloc.AmountSats,
		}
	}
	return out
}
