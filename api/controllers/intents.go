package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tracklock/tracklock-backend/api/responses"
	"github.com/tracklock/tracklock-backend/api/validators"
	"github.com/tracklock/tracklock-backend/internal/intents"
	"github.com/tracklock/tracklock-backend/pkg/db/models"
	"github.com/tracklock/tracklock-backend/pkg/enums"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
	"github.com/tracklock/tracklock-backend/pkg/logger"
)

type createIntentRequest struct {
	BuyerID      *string `json:"buyer_id" validate:"omitempty,uuid"`
	ContentID    string  `json:"content_id" validate:"required,uuid"`
	AmountSats   int64   `json:"amount_sats" validate:"required,min=1"`
	Purpose      string  `json:"purpose" validate:"omitempty,oneof=content_purchase tip"`
	ManifestHash string  `json:"manifest_hash" validate:"required,hexadecimal,len=64"`
}

type intentResponse struct {
	ID           string    `json:"id"`
	BuyerID      *string   `json:"buyer_id,omitempty"`
	ContentID    string    `json:"content_id"`
	AmountSats   int64     `json:"amount_sats"`
	Status       string    `json:"status"`
	Purpose      string    `json:"purpose"`
	ManifestHash string    `json:"manifest_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateIntent registers a pending payment intent. The payment-rail
// integrations own the status transitions from there.
func CreateIntent(repo intents.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purpose := enums.PaymentPurposeContentPurchase
		if req.Purpose != "" {
			parsed, err := enums.ParsePaymentPurpose(req.Purpose)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purpose"))
				return
			}
			purpose = parsed
		}

		intent := &models.PaymentIntent{
			ContentID:    uuid.MustParse(req.ContentID),
			AmountSats:   req.AmountSats,
			Status:       enums.PaymentStatusPending,
			Purpose:      purpose,
			ManifestHash: req.ManifestHash,
		}
		if req.BuyerID != nil {
			buyerID := uuid.MustParse(*req.BuyerID)
			intent.BuyerID = &buyerID
		}

		if err := repo.Create(r.Context(), intent); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create intent"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, buildIntentResponse(intent))
	}
}

func buildIntentResponse(intent *models.PaymentIntent) intentResponse {
	resp := intentResponse{
		ID:           intent.ID.String(),
		ContentID:    intent.ContentID.String(),
		AmountSats:   intent.AmountSats,
		Status:       intent.Status.String(),
		Purpose:      intent.Purpose.String(),
		ManifestHash: intent.ManifestHash,
		CreatedAt:    intent.CreatedAt,
	}
	if intent.BuyerID != nil {
		buyerID := intent.BuyerID.String()
		resp.BuyerID = &buyerID
	}
	return resp
}
