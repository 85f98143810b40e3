package rbac

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/orgforge/pkg/clock"
	"github.com/platinummonkey/orgforge/pkg/ids"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// Provisioner creates the groups and the permission template every new organization starts with
type Provisioner struct {
	groups    *GroupStore
	templates *TemplateStore
	uuids     ids.UUIDFactory
	clock     clock.Clock
	log       *logrus.Logger
}

// NewProvisioner creates a new Provisioner
func NewProvisioner(uuids ids.UUIDFactory, clk clock.Clock, log *logrus.Logger) *Provisioner {
	if log == nil {
		log = logrus.New()
	}
	return &Provisioner{
		groups:    NewGroupStore(),
		templates: NewTemplateStore(),
		uuids:     uuids,
		clock:     clk,
		log:       log,
	}
}

// Groups returns the underlying group store
func (p *Provisioner) Groups() *GroupStore {
	return p.groups
}

// Templates returns the underlying template store
func (p *Provisioner) Templates() *TemplateStore {
	return p.templates
}

// CreateOwnersGroup creates the "Owners" group, grants it every global permission
// and adds the user to it.
func (p *Provisioner) CreateOwnersGroup(ctx context.Context, q postgres.Querier, organizationUUID, userUUID string) (*Group, error) {
	group, err := p.insertGroup(ctx, q, organizationUUID, OwnersGroupName, OwnersGroupDescription)
	if err != nil {
		return nil, err
	}

	for _, permission := range GlobalPermissions() {
		err := p.groups.InsertPermission(ctx, q, &GroupPermission{
			UUID:             p.uuids.Create(),
			OrganizationUUID: organizationUUID,
			GroupUUID:        group.UUID,
			Role:             permission,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := p.groups.AddMember(ctx, q, group.UUID, userUUID); err != nil {
		return nil, err
	}

	p.log.Debugf("Created group %q for organization %s", group.Name, organizationUUID)
	return group, nil
}

// CreateDefaultGroup creates the "Members" group. It holds no global permission.
func (p *Provisioner) CreateDefaultGroup(ctx context.Context, q postgres.Querier, organizationUUID string) (*Group, error) {
	group, err := p.insertGroup(ctx, q, organizationUUID, MembersGroupName, MembersGroupDescription)
	if err != nil {
		return nil, err
	}

	p.log.Debugf("Created default group %q for organization %s", group.Name, organizationUUID)
	return group, nil
}

// AddMember adds a user to a group
func (p *Provisioner) AddMember(ctx context.Context, q postgres.Querier, groupUUID, userUUID string) error {
	return p.groups.AddMember(ctx, q, groupUUID, userUUID)
}

// CreateDefaultTemplate creates the "Default template" of an organization.
// Owners get admin and scan, the default group gets the browsing and triage permissions.
func (p *Provisioner) CreateDefaultTemplate(ctx context.Context, q postgres.Querier, organizationUUID, organizationName string, owners, defaultGroup *Group) (*PermissionTemplate, error) {
	if owners == nil || defaultGroup == nil {
		return nil, fmt.Errorf("owners and default groups are required to create the default template")
	}

	now := p.clock.Now()
	template := &PermissionTemplate{
		UUID:             p.uuids.Create(),
		OrganizationUUID: organizationUUID,
		Name:             DefaultTemplateName,
		Description:      DefaultTemplateDescription(organizationName),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.templates.Insert(ctx, q, template); err != nil {
		return nil, err
	}

	grants := []struct {
		group       *Group
		permissions []string
	}{
		{owners, OwnersTemplatePermissions()},
		{defaultGroup, DefaultGroupTemplatePermissions()},
	}
	for _, grant := range grants {
		for _, permission := range grant.permissions {
			err := p.templates.InsertGroupPermission(ctx, q, &TemplateGroupPermission{
				UUID:         p.uuids.Create(),
				TemplateUUID: template.UUID,
				GroupUUID:    grant.group.UUID,
				Permission:   permission,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	p.log.Debugf("Created permission template %q for organization %s", template.Name, organizationUUID)
	return template, nil
}

func (p *Provisioner) insertGroup(ctx context.Context, q postgres.Querier, organizationUUID, name, description string) (*Group, error) {
	now := p.clock.Now()
	group := &Group{
		UUID:             p.uuids.Create(),
		OrganizationUUID: organizationUUID,
		Name:             name,
		Description:      description,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.groups.Insert(ctx, q, group); err != nil {
		return nil, err
	}
	return group, nil
}
