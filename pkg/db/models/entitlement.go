package models

import (
	"time"

	"github.com/google/uuid"
)

// Entitlement grants one buyer access to one content item at a specific
// manifest. The composite unique index makes duplicate grants a no-op.
type Entitlement struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BuyerRef     string    `gorm:"column:buyer_ref;not null;uniqueIndex:idx_entitlements_buyer_content_manifest"`
	ContentID    uuid.UUID `gorm:"column:content_id;type:uuid;not null;uniqueIndex:idx_entitlements_buyer_content_manifest"`
	ManifestHash string    `gorm:"column:manifest_hash;not null;uniqueIndex:idx_entitlements_buyer_content_manifest"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
