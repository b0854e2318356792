package enums

import "fmt"

// ParticipantRole classifies a rights-holder inside a split agreement.
type ParticipantRole string

const (
	ParticipantRoleArtist     ParticipantRole = "artist"
	ParticipantRoleProducer   ParticipantRole = "producer"
	ParticipantRoleSongwriter ParticipantRole = "songwriter"
	ParticipantRoleLabel      ParticipantRole = "label"
)

var validParticipantRoles = []ParticipantRole{
	ParticipantRoleArtist,
	ParticipantRoleProducer,
	ParticipantRoleSongwriter,
	ParticipantRoleLabel,
}

// String implements fmt.Stringer.
func (r ParticipantRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ParticipantRole.
func (r ParticipantRole) IsValid() bool {
	for _, candidate := range validParticipantRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseParticipantRole converts raw input into a ParticipantRole.
func ParseParticipantRole(value string) (ParticipantRole, error) {
	for _, candidate := range validParticipantRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid participant role %q", value)
}
