package models

import (
	"time"

	"github.com/google/uuid"
)

// ProofRecord is the immutable audit row written during finalization.
// External verifiers recompute ProofHash from PayloadJSON to detect
// after-the-fact tampering with split or manifest data.
type ProofRecord struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ContentID      uuid.UUID `gorm:"column:content_id;type:uuid;not null;index"`
	SplitVersionID uuid.UUID `gorm:"column:split_version_id;type:uuid;not null"`
	ProofHash      string    `gorm:"column:proof_hash;not null;uniqueIndex:idx_proof_records_proof_hash"`
	SplitsHash     string    `gorm:"column:splits_hash;not null"`
	ManifestHash   string    `gorm:"column:manifest_hash;not null"`
	PayloadJSON    string    `gorm:"column:payload_json;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
