package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tracklock/tracklock-backend/pkg/db/models"
)

// Repository manages persistence for settlements, entitlements, and proof
// records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	FindByIntentID(ctx context.Context, intentID uuid.UUID) (*models.Settlement, error)
	CreateEntitlementIfAbsent(ctx context.Context, entitlement *models.Entitlement) (*models.Entitlement, error)
	FindEntitlement(ctx context.Context, buyerRef string, contentID uuid.UUID, manifestHash string) (*models.Entitlement, error)
	HasEntitlement(ctx context.Context, buyerRef string, contentID uuid.UUID) (bool, error)
	CreateProofIfAbsent(ctx context.Context, record *models.ProofRecord) error
	FindProofByHash(ctx context.Context, proofHash string) (*models.ProofRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided
// database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateSettlement inserts the settlement and its allocation rows. A unique
// violation on the intent index propagates untouched so the service can
// reinterpret the race.
func (r *repository) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == uuid.Nil {
		settlement.ID = uuid.New()
	}
	for i := range settlement.Allocations {
		if settlement.Allocations[i].ID == uuid.Nil {
			settlement.Allocations[i].ID = uuid.New()
		}
		settlement.Allocations[i].SettlementID = settlement.ID
	}
	return r.db.WithContext(ctx).Create(settlement).Error
}

// FindByIntentID returns the settlement for an intent with allocations
// preloaded in a stable order, or nil when the intent has not been settled.
func (r *repository) FindByIntentID(ctx context.Context, intentID uuid.UUID) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Preload("Allocations", func(conn *gorm.DB) *gorm.DB {
			return conn.Order("participant_ref ASC")
		}).
		First(&settlement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// CreateEntitlementIfAbsent inserts the entitlement, treating a duplicate of
// the (buyer, content, manifest) key as success and returning the existing
// row. The insert uses ON CONFLICT DO NOTHING so a duplicate does not abort
// the surrounding transaction.
func (r *repository) CreateEntitlementIfAbsent(ctx context.Context, entitlement *models.Entitlement) (*models.Entitlement, error) {
	if entitlement.ID == uuid.Nil {
		entitlement.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "buyer_ref"}, {Name: "content_id"}, {Name: "manifest_hash"}},
		DoNothing: true,
	}).Create(entitlement)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return r.FindEntitlement(ctx, entitlement.BuyerRef, entitlement.ContentID, entitlement.ManifestHash)
	}
	return entitlement, nil
}

func (r *repository) FindEntitlement(ctx context.Context, buyerRef string, contentID uuid.UUID, manifestHash string) (*models.Entitlement, error) {
	var entitlement models.Entitlement
	err := r.db.WithContext(ctx).
		Where("buyer_ref = ? AND content_id = ? AND manifest_hash = ?", buyerRef, contentID, manifestHash).
		First(&entitlement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entitlement, nil
}

// HasEntitlement reports whether the buyer holds any grant for the content,
// regardless of manifest revision.
func (r *repository) HasEntitlement(ctx context.Context, buyerRef string, contentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("buyer_ref = ? AND content_id = ?", buyerRef, contentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateProofIfAbsent inserts the proof record, treating a duplicate proof
// hash as success: the identical payload is already on file.
func (r *repository) CreateProofIfAbsent(ctx context.Context, record *models.ProofRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "proof_hash"}},
		DoNothing: true,
	}).Create(record).Error
}

func (r *repository) FindProofByHash(ctx context.Context, proofHash string) (*models.ProofRecord, error) {
	var record models.ProofRecord
	err := r.db.WithContext(ctx).
		Where("proof_hash = ?", proofHash).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
