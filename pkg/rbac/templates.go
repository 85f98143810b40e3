package rbac

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// TemplateStore handles persistence of permission templates and their group grants
type TemplateStore struct{}

// NewTemplateStore creates a new TemplateStore
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{}
}

// Insert creates a new permission template
func (s *TemplateStore) Insert(ctx context.Context, q postgres.Querier, template *PermissionTemplate) error {
	query := `
		INSERT INTO perm_templates (uuid, organization_uuid, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		template.UUID,
		template.OrganizationUUID,
		template.Name,
		nullString(template.Description),
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create permission template: %w", err)
	}
	return nil
}

// SelectByName retrieves a template of an organization. Names are compared case-insensitively.
func (s *TemplateStore) SelectByName(ctx context.Context, q postgres.Querier, organizationUUID, name string) (*PermissionTemplate, error) {
	query := `
		SELECT uuid, organization_uuid, name, description, created_at, updated_at
		FROM perm_templates
		WHERE organization_uuid = $1 AND LOWER(name) = LOWER($2)
	`

	var template PermissionTemplate
	var description sql.NullString
	err := q.QueryRowContext(ctx, query, organizationUUID, name).Scan(
		&template.UUID,
		&template.OrganizationUUID,
		&template.Name,
		&description,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("permission template %q: %w", name, postgres.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission template: %w", err)
	}

	template.Description = description.String
	return &template, nil
}

// InsertGroupPermission grants a project permission to a group through a template
func (s *TemplateStore) InsertGroupPermission(ctx context.Context, q postgres.Querier, permission *TemplateGroupPermission) error {
	query := `
		INSERT INTO perm_templates_groups (uuid, template_uuid, group_uuid, permission_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		permission.UUID,
		permission.TemplateUUID,
		permission.GroupUUID,
		permission.Permission,
		permission.CreatedAt,
		permission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add permission %q to template: %w", permission.Permission, err)
	}
	return nil
}

// SelectGroupPermissions lists the group grants of a template
func (s *TemplateStore) SelectGroupPermissions(ctx context.Context, q postgres.Querier, templateUUID string) ([]TemplateGroupPermission, error) {
	query := `
		SELECT uuid, template_uuid, group_uuid, permission_reference, created_at, updated_at
		FROM perm_templates_groups
		WHERE template_uuid = $1
		ORDER BY group_uuid ASC, permission_reference ASC
	`
	rows, err := q.QueryContext(ctx, query, templateUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list template permissions: %w", err)
	}
	defer rows.Close()

	var permissions []TemplateGroupPermission
	for rows.Next() {
		var p TemplateGroupPermission
		var groupUUID sql.NullString
		if err := rows.Scan(&p.UUID, &p.TemplateUUID, &groupUUID, &p.Permission, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template permission: %w", err)
		}
		p.GroupUUID = groupUUID.String
		permissions = append(permissions, p)
	}

	return permissions, rows.Err()
}
