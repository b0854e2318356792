package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tracklock/tracklock-backend/pkg/enums"
)

// SplitVersion is one revision of the revenue agreement for a content item.
// Once LockedAt is set the version and its participants are immutable.
type SplitVersion struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ContentID    uuid.UUID          `gorm:"column:content_id;type:uuid;not null;index"`
	Version      int                `gorm:"column:version;not null"`
	CreatorID    *string            `gorm:"column:creator_id"`
	LockedAt     *time.Time         `gorm:"column:locked_at"`
	Participants []SplitParticipant `gorm:"foreignKey:SplitVersionID"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// IsLocked reports whether the agreement has been finalized.
func (s *SplitVersion) IsLocked() bool {
	return s.LockedAt != nil
}

// SplitParticipant is one rights-holder's share inside a split version,
// expressed in basis points.
type SplitParticipant struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SplitVersionID   uuid.UUID             `gorm:"column:split_version_id;type:uuid;not null;index"`
	ParticipantID    *string               `gorm:"column:participant_id"`
	ParticipantEmail *string               `gorm:"column:participant_email"`
	Role             enums.ParticipantRole `gorm:"column:role;not null"`
	Bps              int                   `gorm:"column:bps;not null"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// Ref returns the most specific stable identifier for the participant.
func (p *SplitParticipant) Ref() string {
	if p.ParticipantID != nil && *p.ParticipantID != "" {
		return *p.ParticipantID
	}
	if p.ParticipantEmail != nil && *p.ParticipantEmail != "" {
		return *p.ParticipantEmail
	}
	return p.ID.String()
}
