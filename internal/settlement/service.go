// Package settlement finalizes paid purchases: it allocates the sats across
// the locked split, writes the audit proof, grants the entitlement, and
// mints the receipt token for anonymous buyers. The whole operation is
// idempotent; callers are expected to retry it freely.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklock/tracklock-backend/internal/allocation"
	"github.com/tracklock/tracklock-backend/internal/intents"
	"github.com/tracklock/tracklock-backend/internal/proof"
	"github.com/tracklock/tracklock-backend/internal/receipts"
	"github.com/tracklock/tracklock-backend/internal/splits"
	"github.com/tracklock/tracklock-backend/pkg/db"
	"github.com/tracklock/tracklock-backend/pkg/db/models"
	"github.com/tracklock/tracklock-backend/pkg/enums"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
	"github.com/tracklock/tracklock-backend/pkg/logger"
	"github.com/tracklock/tracklock-backend/pkg/metrics"
)

// Sentinel failures for the finalize preconditions. They compare with
// errors.Is and carry the coded metadata the HTTP layer maps to statuses.
var (
	ErrInvalidPurpose    = pkgerrors.New(pkgerrors.CodeStateConflict, "intent purpose cannot be settled")
	ErrNotPaid           = pkgerrors.New(pkgerrors.CodeStateConflict, "intent is not paid")
	ErrNoSplitConfigured = pkgerrors.New(pkgerrors.CodeNotFound, "no locked split configured for content")
)

// settingReceiptTokenTTL is the kvstore key that overrides the configured
// receipt token lifetime at runtime.
const settingReceiptTokenTTL = "receipt_token_ttl"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SettingsStore is the runtime settings surface the finalizer consults.
type SettingsStore interface {
	Get(key string) (string, bool)
}

// FinalizeResult is the composed outcome of a finalize call. Replayed marks
// results answered from an existing settlement.
type FinalizeResult struct {
	Settlement            *models.Settlement
	Entitlement           *models.Entitlement
	ReceiptToken          *string
	ReceiptTokenExpiresAt *time.Time
	Replayed              bool
}

// Service finalizes paid purchases.
type Service interface {
	FinalizePurchase(ctx context.Context, intentID uuid.UUID) (*FinalizeResult, error)
}

// ServiceParams wires the finalizer's collaborators.
type ServiceParams struct {
	TxRunner         txRunner
	IntentsRepo      intents.Repository
	SplitsRepo       splits.Repository
	SettlementsRepo  Repository
	Settings         SettingsStore
	Metrics          *metrics.SettlementMetrics
	Logger           *logger.Logger
	ReceiptTokenTTL  time.Duration
	ReceiptTokenLen  int
	nowFunc          func() time.Time
	mintFunc         func(int) (string, error)
}

type service struct {
	tx          txRunner
	intents     intents.Repository
	splits      splits.Repository
	repo        Repository
	settings    SettingsStore
	metrics     *metrics.SettlementMetrics
	logg        *logger.Logger
	tokenTTL    time.Duration
	tokenBytes  int
	now         func() time.Time
	mint        func(int) (string, error)
}

// NewService builds the settlement finalizer.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.IntentsRepo == nil {
		return nil, fmt.Errorf("intents repository required")
	}
	if params.SplitsRepo == nil {
		return nil, fmt.Errorf("splits repository required")
	}
	if params.SettlementsRepo == nil {
		return nil, fmt.Errorf("settlements repository required")
	}
	if params.ReceiptTokenTTL <= 0 {
		params.ReceiptTokenTTL = 720 * time.Hour
	}
	if params.ReceiptTokenLen <= 0 {
		params.ReceiptTokenLen = receipts.DefaultTokenBytes
	}
	if params.nowFunc == nil {
		params.nowFunc = func() time.Time { return time.Now().UTC() }
	}
	if params.mintFunc == nil {
		params.mintFunc = receipts.MintToken
	}
	return &service{
		tx:         params.TxRunner,
		intents:    params.IntentsRepo,
		splits:     params.SplitsRepo,
		repo:       params.SettlementsRepo,
		settings:   params.Settings,
		metrics:    params.Metrics,
		logg:       params.Logger,
		tokenTTL:   params.ReceiptTokenTTL,
		tokenBytes: params.ReceiptTokenLen,
		now:        params.nowFunc,
		mint:       params.mintFunc,
	}, nil
}

// FinalizePurchase turns a paid content-purchase intent into a settlement,
// an entitlement, and (for anonymous buyers) a receipt token, exactly once.
// Retries and concurrent calls converge on the first writer's result.
func (s *service) FinalizePurchase(ctx context.Context, intentID uuid.UUID) (*FinalizeResult, error) {
	if intentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent id required")
	}
	if s.logg != nil {
		ctx = s.logg.WithIntentID(ctx, intentID.String())
	}

	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Purpose != enums.PaymentPurposeContentPurchase {
		s.metrics.IncFailed("invalid_purpose")
		return nil, ErrInvalidPurpose
	}
	if intent.Status != enums.PaymentStatusPaid {
		s.metrics.IncFailed("not_paid")
		return nil, ErrNotPaid
	}

	// Fast idempotency path: a settlement already on file answers the call.
	if existing, err := s.repo.FindByIntentID(ctx, intentID); err != nil {
		return nil, err
	} else if existing != nil {
		return s.replay(ctx, intent, existing)
	}

	split, err := s.splits.FindLockedByContentID(ctx, intent.ContentID)
	if err != nil {
		return nil, err
	}
	if split == nil {
		s.metrics.IncFailed("no_split")
		return nil, ErrNoSplitConfigured
	}

	shares, items, err := s.allocate(intent, split)
	if err != nil {
		return nil, err
	}

	payloadJSON, proofHash, splitsHash, err := s.buildProof(intent, split)
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		intentsRepo := s.intents.WithTx(tx)

		settlement := &models.Settlement{
			IntentID:       intent.ID,
			ContentID:      intent.ContentID,
			SplitVersionID: split.ID,
			AmountSats:     intent.AmountSats,
			ProofHash:      proofHash,
		}
		for i, share := range shares {
			settlement.Allocations = append(settlement.Allocations, models.SettlementAllocation{
				ParticipantRef: share.ID,
				Bps:            items[i].Bps,
				AmountSats:     share.AmountSats,
			})
		}
		if err := repo.CreateSettlement(ctx, settlement); err != nil {
			return err
		}

		if err := repo.CreateProofIfAbsent(ctx, &models.ProofRecord{
			ContentID:      intent.ContentID,
			SplitVersionID: split.ID,
			ProofHash:      proofHash,
			SplitsHash:     splitsHash,
			ManifestHash:   intent.ManifestHash,
			PayloadJSON:    payloadJSON,
		}); err != nil {
			return err
		}

		entitlement, err := repo.CreateEntitlementIfAbsent(ctx, &models.Entitlement{
			BuyerRef:     buyerRef(intent),
			ContentID:    intent.ContentID,
			ManifestHash: intent.ManifestHash,
		})
		if err != nil {
			return err
		}

		result.Settlement = settlement
		result.Entitlement = entitlement

		if intent.IsAnonymous() {
			token, err := s.mint(s.tokenBytes)
			if err != nil {
				return err
			}
			expiresAt := s.now().Add(s.receiptTTL(ctx))
			if err := intentsRepo.AttachReceiptToken(ctx, intent.ID, token, expiresAt); err != nil {
				return err
			}
			result.ReceiptToken = &token
			result.ReceiptTokenExpiresAt = &expiresAt
		}
		return nil
	})
	if err != nil {
		// A concurrent finalize won the insert race; the constraint is the
		// lock. Re-fetch and return the winner's result.
		if db.IsUniqueViolation(err, "idx_settlements_intent_id") {
			winner, findErr := s.repo.FindByIntentID(ctx, intentID)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				return s.replay(ctx, intent, winner)
			}
		}
		return nil, err
	}

	s.metrics.IncFinalized()
	s.metrics.ObserveParticipants(len(result.Settlement.Allocations))
	if s.logg != nil {
		s.logg.Info(ctx, "settlement.finalized")
	}
	return result, nil
}

// replay rebuilds the original result from durable state. The stored token
// lives on the intent, so a re-read keeps the response identical across
// retries.
func (s *service) replay(ctx context.Context, intent *models.PaymentIntent, settlement *models.Settlement) (*FinalizeResult, error) {
	entitlement, err := s.repo.FindEntitlement(ctx, buyerRef(intent), intent.ContentID, intent.ManifestHash)
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{
		Settlement:  settlement,
		Entitlement: entitlement,
		Replayed:    true,
	}
	if intent.IsAnonymous() {
		// The first finalize may have attached the token after our caller
		// loaded the intent; re-read to pick it up.
		fresh, err := s.intents.FindByID(ctx, intent.ID)
		if err != nil {
			return nil, err
		}
		result.ReceiptToken = fresh.ReceiptToken
		result.ReceiptTokenExpiresAt = fresh.ReceiptTokenExpiresAt
	}

	s.metrics.IncReplayed()
	if s.logg != nil {
		s.logg.Info(ctx, "settlement.replayed")
	}
	return result, nil
}

func (s *service) allocate(intent *models.PaymentIntent, split *models.SplitVersion) ([]allocation.Share, []allocation.Item, error) {
	items := make([]allocation.Item, len(split.Participants))
	for i, p := range split.Participants {
		items[i] = allocation.Item{ID: p.Ref(), Bps: p.Bps}
	}
	shares, err := allocation.AllocateByBps(intent.AmountSats, items)
	if err != nil {
		return nil, nil, err
	}
	return shares, items, nil
}

func (s *service) buildProof(intent *models.PaymentIntent, split *models.SplitVersion) (payloadJSON, proofHash, splitsHash string, err error) {
	normalized := proof.SplitsForProof(split.Participants)

	splitsHash, err = proof.ComputeSplitsHash(normalized)
	if err != nil {
		return "", "", "", err
	}

	payload := proof.NewPayload(
		intent.ContentID.String(),
		split.Version,
		intent.ManifestHash,
		normalized,
		split.CreatorID,
	)
	proofHash, err = proof.ComputeProofHash(payload)
	if err != nil {
		return "", "", "", err
	}
	payloadJSON, err = proof.StableStringify(payload, false)
	if err != nil {
		return "", "", "", err
	}
	return payloadJSON, proofHash, splitsHash, nil
}

// receiptTTL resolves the token lifetime, preferring the runtime settings
// store over the static configuration.
func (s *service) receiptTTL(ctx context.Context) time.Duration {
	if s.settings == nil {
		return s.tokenTTL
	}
	raw, ok := s.settings.Get(settingReceiptTokenTTL)
	if !ok {
		return s.tokenTTL
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		if s.logg != nil {
			s.logg.Warn(ctx, "ignoring invalid receipt_token_ttl setting")
		}
		return s.tokenTTL
	}
	return ttl
}

// buyerRef keys entitlements. Anonymous buyers are keyed by their intent so
// each anonymous purchase is its own grant.
func buyerRef(intent *models.PaymentIntent) string {
	if intent.BuyerID != nil {
		return intent.BuyerID.String()
	}
	return "receipt:" + intent.ID.String()
}
