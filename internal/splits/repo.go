// Package splits persists the locked revenue agreements that settlement
// allocates against.
package splits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklock/tracklock-backend/internal/allocation"
	"github.com/tracklock/tracklock-backend/pkg/db/models"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
)

// Repository manages persistence for split versions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, version *models.SplitVersion) error
	Lock(ctx context.Context, versionID uuid.UUID) error
	FindLockedByContentID(ctx context.Context, contentID uuid.UUID) (*models.SplitVersion, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a splits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, version *models.SplitVersion) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	for i := range version.Participants {
		if version.Participants[i].ID == uuid.Nil {
			version.Participants[i].ID = uuid.New()
		}
		version.Participants[i].SplitVersionID = version.ID
	}
	return r.db.WithContext(ctx).Create(version).Error
}

// Lock finalizes a split version. The 10000 bps total is enforced here, at
// the agreement boundary, so downstream allocation never has to revalidate
// it.
func (r *repository) Lock(ctx context.Context, versionID uuid.UUID) error {
	var version models.SplitVersion
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&version, "id = ?", versionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "split version not found")
	}
	if err != nil {
		return err
	}
	if version.IsLocked() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "split version already locked")
	}

	items := make([]allocation.Item, len(version.Participants))
	for i, p := range version.Participants {
		items[i] = allocation.Item{ID: p.Ref(), Bps: p.Bps}
	}
	if total := allocation.SumBps(items); total != allocation.BpsDenominator {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("split participants must total %d bps, got %d", allocation.BpsDenominator, total))
	}

	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.SplitVersion{}).
		Where("id = ? AND locked_at IS NULL", versionID).
		Update("locked_at", now).Error
}

// FindLockedByContentID returns the most recent locked split version for the
// content, with participants preloaded in a stable order, or nil when the
// content has no locked agreement.
func (r *repository) FindLockedByContentID(ctx context.Context, contentID uuid.UUID) (*models.SplitVersion, error) {
	var version models.SplitVersion
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND locked_at IS NOT NULL", contentID).
		Order("version DESC").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}
