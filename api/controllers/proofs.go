package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tracklock/tracklock-backend/api/responses"
	"github.com/tracklock/tracklock-backend/internal/settlement"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
	"github.com/tracklock/tracklock-backend/pkg/logger"
)

type proofResponse struct {
	ProofHash      string          `json:"proof_hash"`
	ContentID      string          `json:"content_id"`
	SplitVersionID string          `json:"split_version_id"`
	SplitsHash     string          `json:"splits_hash"`
	ManifestHash   string          `json:"manifest_hash"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ProofDetail serves the stored canonical payload so external verifiers can
// recompute the hash themselves.
func ProofDetail(repo settlement.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proofHash := chi.URLParam(r, "proofHash")
		if len(proofHash) != 64 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "proof hash must be 64 hex characters"))
			return
		}

		record, err := repo.FindProofByHash(r.Context(), proofHash)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof"))
			return
		}
		if record == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found"))
			return
		}

		responses.WriteSuccess(w, proofResponse{
			ProofHash:      record.ProofHash,
			ContentID:      record.ContentID.String(),
			SplitVersionID: record.SplitVersionID.String(),
			SplitsHash:     record.SplitsHash,
			ManifestHash:   record.ManifestHash,
			Payload:        json.RawMessage(record.PayloadJSON),
			CreatedAt:      record.CreatedAt,
		})
	}
}
