package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tracklock/tracklock-backend/api/responses"
	"github.com/tracklock/tracklock-backend/api/validators"
	"github.com/tracklock/tracklock-backend/internal/splits"
	"github.com/tracklock/tracklock-backend/pkg/db/models"
	"github.com/tracklock/tracklock-backend/pkg/enums"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
	"github.com/tracklock/tracklock-backend/pkg/logger"
)

type splitParticipantRequest struct {
	ParticipantID    *string `json:"participant_id" validate:"omitempty,min=1"`
	ParticipantEmail *string `json:"participant_email" validate:"omitempty,email"`
	Role             string  `json:"role" validate:"required,oneof=artist producer songwriter label"`
	Bps              int     `json:"bps" validate:"required,min=1,max=10000"`
}

type createSplitRequest struct {
	ContentID    string                    `json:"content_id" validate:"required,uuid"`
	Version      int                       `json:"version" validate:"required,min=1"`
	CreatorID    *string                   `json:"creator_id" validate:"omitempty,min=1"`
	Participants []splitParticipantRequest `json:"participants" validate:"required,min=1,dive"`
}

type splitParticipantResponse struct {
	ParticipantID    *string `json:"participant_id,omitempty"`
	ParticipantEmail *string `json:"participant_email,omitempty"`
	Role             string  `json:"role"`
	Bps              int     `json:"bps"`
}

type splitResponse struct {
	ID           string                     `json:"id"`
	ContentID    string                     `json:"content_id"`
	Version      int                        `json:"version"`
	CreatorID    *string                    `json:"creator_id,omitempty"`
	LockedAt     *time.Time                 `json:"locked_at,omitempty"`
	Participants []splitParticipantResponse `json:"participants"`
}

// CreateSplit registers a draft split version. Bps totals are validated at
// lock time, not here, so drafts can be assembled incrementally.
func CreateSplit(repo splits.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSplitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		version := &models.SplitVersion{
			ContentID: uuid.MustParse(req.ContentID),
			Version:   req.Version,
			CreatorID: req.CreatorID,
		}
		for _, p := range req.Participants {
			role, err := enums.ParseParticipantRole(p.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			version.Participants = append(version.Participants, models.SplitParticipant{
				ParticipantID:    p.ParticipantID,
				ParticipantEmail: p.ParticipantEmail,
				Role:             role,
				Bps:              p.Bps,
			})
		}

		if err := repo.Create(r.Context(), version); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create split"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, buildSplitResponse(version))
	}
}

// LockSplit finalizes a draft. After this the version is immutable and
// eligible for settlement.
func LockSplit(repo splits.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versionID, err := uuid.Parse(chi.URLParam(r, "versionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "version id must be a uuid"))
			return
		}

		if err := repo.Lock(r.Context(), versionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "locked", "version_id": versionID.String()})
	}
}

func buildSplitResponse(version *models.SplitVersion) splitResponse {
	resp := splitResponse{
		ID:           version.ID.String(),
		ContentID:    version.ContentID.String(),
		Version:      version.Version,
		CreatorID:    version.CreatorID,
		LockedAt:     version.LockedAt,
		Participants: make([]splitParticipantResponse, len(version.Participants)),
	}
	for i, p := range version.Participants {
		resp.Participants[i] = splitParticipantResponse{
			ParticipantID:    p.ParticipantID,
			ParticipantEmail: p.ParticipantEmail,
			Role:             p.Role.String(),
			Bps:              p.Bps,
		}
	}
	return resp
}
