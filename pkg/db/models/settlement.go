package models

import (
	"time"

	"github.com/google/uuid"
)

// Settlement records how one paid intent's sats were divided. The unique
// index on IntentID is the idempotency anchor for the whole finalizer.
type Settlement struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	IntentID       uuid.UUID              `gorm:"column:intent_id;type:uuid;not null;uniqueIndex:idx_settlements_intent_id"`
	ContentID      uuid.UUID              `gorm:"column:content_id;type:uuid;not null;index"`
	SplitVersionID uuid.UUID              `gorm:"column:split_version_id;type:uuid;not null"`
	AmountSats     int64                  `gorm:"column:amount_sats;not null"`
	ProofHash      string                 `gorm:"column:proof_hash;not null"`
	Allocations    []SettlementAllocation `gorm:"foreignKey:SettlementID"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
}

// SettlementAllocation is one participant's exact share of a settlement.
type SettlementAllocation struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SettlementID   uuid.UUID `gorm:"column:settlement_id;type:uuid;not null;index"`
	ParticipantRef string    `gorm:"column:participant_ref;not null"`
	Bps            int       `gorm:"column:bps;not null"`
	AmountSats     int64     `gorm:"column:amount_sats;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
