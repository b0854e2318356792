// Package intents persists payment intents. Status transitions into
// paid/failed/expired belong to the rail watchers; this repository registers
// intents, reads them, and attaches receipt tokens after settlement.
package intents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklock/tracklock-backend/pkg/db/models"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
)

// Repository manages persistence for payment intents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, intent *models.PaymentIntent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error)
	AttachReceiptToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an intents repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *repository) AttachReceiptToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"receipt_token":            token,
			"receipt_token_expires_at": expiresAt,
		}).Error
}
