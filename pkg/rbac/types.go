package rbac

import (
	"time"
)

// Global permissions, granted to a group for the whole organization
const (
	PermissionAdmin               = "admin"
	PermissionQualityGateAdmin    = "gateadmin"
	PermissionQualityProfileAdmin = "profileadmin"
	PermissionProvisioning        = "provisioning"
	PermissionScan                = "scan"
)

// GlobalPermissions returns every global permission
func GlobalPermissions() []string {
	return []string{
		PermissionAdmin,
		PermissionQualityGateAdmin,
		PermissionQualityProfileAdmin,
		PermissionProvisioning,
		PermissionScan,
	}
}

// Project permissions, granted through permission templates
const (
	RoleUser                 = "user"
	RoleAdmin                = "admin"
	RoleCodeViewer           = "codeviewer"
	RoleIssueAdmin           = "issueadmin"
	RoleSecurityHotspotAdmin = "securityhotspotadmin"
	RoleScan                 = "scan"
)

// Names and descriptions of the groups every organization starts with
const (
	OwnersGroupName         = "Owners"
	OwnersGroupDescription  = "Owners of organization"
	MembersGroupName        = "Members"
	MembersGroupDescription = "All members of the organization"
)

// DefaultTemplateName is the name of the permission template created with an organization
const DefaultTemplateName = "Default template"

// DefaultTemplateDescription returns the description of the default template of an organization
func DefaultTemplateDescription(organizationName string) string {
	return "Default permission template of organization " + organizationName
}

// OwnersTemplatePermissions are granted to the Owners group by the default template
func OwnersTemplatePermissions() []string {
	return []string{RoleAdmin, RoleScan}
}

// DefaultGroupTemplatePermissions are granted to the default group by the default template
func DefaultGroupTemplatePermissions() []string {
	return []string{RoleUser, RoleCodeViewer, RoleIssueAdmin, RoleSecurityHotspotAdmin}
}

// Group represents a group of users owned by an organization
type Group struct {
	UUID             string    `json:"uuid"`
	OrganizationUUID string    `json:"organization_uuid"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GroupPermission grants a global permission to a group
type GroupPermission struct {
	UUID             string `json:"uuid"`
	OrganizationUUID string `json:"organization_uuid"`
	GroupUUID        string `json:"group_uuid"`
	Role             string `json:"role"`
}

// PermissionTemplate is applied to new projects of an organization
type PermissionTemplate struct {
	UUID             string    `json:"uuid"`
	OrganizationUUID string    `json:"organization_uuid"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TemplateGroupPermission grants a project permission to a group through a template
type TemplateGroupPermission struct {
	UUID         string    `json:"uuid"`
	TemplateUUID string    `json:"template_uuid"`
	GroupUUID    string    `json:"group_uuid"`
	Permission   string    `json:"permission"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
