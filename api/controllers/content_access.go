package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tracklock/tracklock-backend/api/responses"
	"github.com/tracklock/tracklock-backend/internal/intents"
	"github.com/tracklock/tracklock-backend/internal/receipts"
	"github.com/tracklock/tracklock-backend/internal/settlement"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
	"github.com/tracklock/tracklock-backend/pkg/logger"
)

const buyerIDHeader = "X-Buyer-Id"

type accessResponse struct {
	Access    string `json:"access"`
	ContentID string `json:"content_id"`
}

// ContentAccess gates downloads. Authenticated buyers are admitted on an
// entitlement; anonymous buyers present the receipt token minted at
// settlement. Every denial is the same generic 401 so the endpoint cannot
// be used as an oracle for which check failed.
func ContentAccess(intentsRepo intents.Repository, repo settlement.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentID, err := uuid.Parse(chi.URLParam(r, "contentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "content id must be a uuid"))
			return
		}

		if buyerID := r.Header.Get(buyerIDHeader); buyerID != "" {
			admitBuyer(w, r, repo, logg, buyerID, contentID)
			return
		}
		admitReceipt(w, r, intentsRepo, logg, contentID)
	}
}

func admitBuyer(w http.ResponseWriter, r *http.Request, repo settlement.Repository, logg *logger.Logger, buyerID string, contentID uuid.UUID) {
	if _, err := uuid.Parse(buyerID); err != nil {
		writeAccessDenied(w, r, logg)
		return
	}
	entitled, err := repo.HasEntitlement(r.Context(), buyerID, contentID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check entitlement"))
		return
	}
	if !entitled {
		writeAccessDenied(w, r, logg)
		return
	}
	responses.WriteSuccess(w, accessResponse{Access: "granted", ContentID: contentID.String()})
}

func admitReceipt(w http.ResponseWriter, r *http.Request, intentsRepo intents.Repository, logg *logger.Logger, contentID uuid.UUID) {
	intentID, err := uuid.Parse(r.URL.Query().Get("intent_id"))
	if err != nil {
		writeAccessDenied(w, r, logg)
		return
	}

	intent, err := intentsRepo.FindByID(r.Context(), intentID)
	if err != nil || intent.ContentID != contentID {
		writeAccessDenied(w, r, logg)
		return
	}

	if !receipts.AuthorizeIntentByToken(r, intent, time.Now().UTC()) {
		writeAccessDenied(w, r, logg)
		return
	}
	responses.WriteSuccess(w, accessResponse{Access: "granted", ContentID: contentID.String()})
}

func writeAccessDenied(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authorized"))
}
