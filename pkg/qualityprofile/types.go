package qualityprofile

import (
	"errors"
	"time"
)

// ErrRulesProfileNotFound is returned when a registered built-in profile has no
// persisted rules profile. The server is then in an inconsistent state.
var ErrRulesProfileNotFound = errors.New("Rules profile not found") //nolint:staticcheck

// RulesProfile holds the rules of a profile, shared by every organization using it
type RulesProfile struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Language  string `json:"language"`
	IsBuiltIn bool   `json:"is_built_in"`
}

// OrgProfile is a quality profile owned by an organization
type OrgProfile struct {
	UUID             string    `json:"uuid"`
	OrganizationUUID string    `json:"organization_uuid"`
	RulesProfileUUID string    `json:"rules_profile_uuid"`
	ParentUUID       *string   `json:"parent_uuid,omitempty"`
	Name             string    `json:"name"`
	Language         string    `json:"language"`
	IsDefault        bool      `json:"is_default"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
