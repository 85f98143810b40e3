package rbac

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// GroupStore handles persistence of groups, their members and their global permissions
type GroupStore struct{}

// NewGroupStore creates a new GroupStore
func NewGroupStore() *GroupStore {
	return &GroupStore{}
}

// Insert creates a new group
func (s *GroupStore) Insert(ctx context.Context, q postgres.Querier, group *Group) error {
	query := `
		INSERT INTO groups (uuid, organization_uuid, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		group.UUID,
		group.OrganizationUUID,
		group.Name,
		nullString(group.Description),
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group %q: %w", group.Name, err)
	}
	return nil
}

// SelectByName retrieves a group of an organization by its name
func (s *GroupStore) SelectByName(ctx context.Context, q postgres.Querier, organizationUUID, name string) (*Group, error) {
	query := `
		SELECT uuid, organization_uuid, name, description, created_at, updated_at
		FROM groups
		WHERE organization_uuid = $1 AND name = $2
	`

	var group Group
	var description sql.NullString
	err := q.QueryRowContext(ctx, query, organizationUUID, name).Scan(
		&group.UUID,
		&group.OrganizationUUID,
		&group.Name,
		&description,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %q: %w", name, postgres.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.Description = description.String
	return &group, nil
}

// AddMember adds a user to a group
func (s *GroupStore) AddMember(ctx context.Context, q postgres.Querier, groupUUID, userUUID string) error {
	query := `
		INSERT INTO groups_users (group_uuid, user_uuid)
		VALUES ($1, $2)
		ON CONFLICT (group_uuid, user_uuid) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, query, groupUUID, userUUID); err != nil {
		return fmt.Errorf("failed to add member to group: %w", err)
	}
	return nil
}

// SelectMemberLogins returns the logins of the members of a group, sorted
func (s *GroupStore) SelectMemberLogins(ctx context.Context, q postgres.Querier, groupUUID string) ([]string, error) {
	query := `
		SELECT u.login
		FROM groups_users gu
		JOIN users u ON u.uuid = gu.user_uuid
		WHERE gu.group_uuid = $1
		ORDER BY u.login ASC
	`
	rows, err := q.QueryContext(ctx, query, groupUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var logins []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		logins = append(logins, login)
	}

	return logins, rows.Err()
}

// InsertPermission grants a global permission to a group
func (s *GroupStore) InsertPermission(ctx context.Context, q postgres.Querier, permission *GroupPermission) error {
	query := `
		INSERT INTO group_roles (uuid, organization_uuid, group_uuid, role)
		VALUES ($1, $2, $3, $4)
	`
	_, err := q.ExecContext(ctx, query,
		permission.UUID,
		permission.OrganizationUUID,
		permission.GroupUUID,
		permission.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to grant permission %q: %w", permission.Role, err)
	}
	return nil
}

// SelectGlobalPermissions returns the global permissions granted to a group, sorted
func (s *GroupStore) SelectGlobalPermissions(ctx context.Context, q postgres.Querier, organizationUUID, groupUUID string) ([]string, error) {
	query := `
		SELECT role
		FROM group_roles
		WHERE organization_uuid = $1 AND group_uuid = $2
		ORDER BY role ASC
	`
	rows, err := q.QueryContext(ctx, query, organizationUUID, groupUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group permissions: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan group permission: %w", err)
		}
		permissions = append(permissions, role)
	}

	return permissions, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
