package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tracklock/tracklock-backend/pkg/enums"
)

// PaymentIntent tracks a single expected payment for a content item. Rail
// watchers move it to paid/failed/expired; the settlement core only ever
// attaches the receipt token.
type PaymentIntent struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID               *uuid.UUID           `gorm:"column:buyer_id;type:uuid"`
	ContentID             uuid.UUID            `gorm:"column:content_id;type:uuid;not null;index"`
	AmountSats            int64                `gorm:"column:amount_sats;not null"`
	Status                enums.PaymentStatus  `gorm:"column:status;not null;default:'pending'"`
	Purpose               enums.PaymentPurpose `gorm:"column:purpose;not null;default:'content_purchase'"`
	ManifestHash          string               `gorm:"column:manifest_hash;not null"`
	ReceiptToken          *string              `gorm:"column:receipt_token"`
	ReceiptTokenExpiresAt *time.Time           `gorm:"column:receipt_token_expires_at"`
	PaidAt                *time.Time           `gorm:"column:paid_at"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// IsAnonymous reports whether the intent has no authenticated buyer attached.
func (p *PaymentIntent) IsAnonymous() bool {
	return p.BuyerID == nil
}
