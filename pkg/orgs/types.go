package orgs

import (
	"time"
)

// Subscription represents the billing plan of an organization
type Subscription string

// SubscriptionFree is the subscription every new organization starts with
const SubscriptionFree Subscription = "FREE"

// Organization represents a persisted organization
type Organization struct {
	UUID              string       `json:"uuid"`
	Key               string       `json:"key"`
	Name              string       `json:"name"`
	Description       *string      `json:"description,omitempty"`
	URL               *string      `json:"url,omitempty"`
	Avatar            *string      `json:"avatar,omitempty"`
	Subscription      Subscription `json:"subscription"`
	NewProjectPrivate bool         `json:"new_project_private"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewOrganization describes an organization to be created. Key and Name are required.
type NewOrganization struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
}

// User is the user acting on an organization
type User struct {
	UUID  string `json:"uuid"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// DefaultTemplates references the permission templates applied to new projects and
// applications of an organization. ApplicationsUUID is nil when applications share
// the project template.
type DefaultTemplates struct {
	ProjectUUID      string  `json:"project_uuid"`
	ApplicationsUUID *string `json:"applications_uuid,omitempty"`
}

// DefaultPublicVisibilityKey is the setting that controls the visibility of new projects
const DefaultPublicVisibilityKey = "organizations.default_public_visibility"
