package orgs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

const organizationKeyConstraint = "organizations_kee_key"

const organizationColumns = `uuid, kee, name, description, url, avatar_url, subscription,
		       new_project_private, created_at, updated_at`

// PostgresStore persists organizations and their members
type PostgresStore struct{}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore() *PostgresStore {
	return &PostgresStore{}
}

// Insert creates a new organization. A key already used by another organization
// yields a *KeyConflictError.
func (s *PostgresStore) Insert(ctx context.Context, q postgres.Querier, org *Organization) error {
	query := `
		INSERT INTO organizations (uuid, kee, name, description, url, avatar_url, subscription,
		                           new_project_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.ExecContext(ctx, query,
		org.UUID, org.Key, org.Name, org.Description, org.URL, org.Avatar,
		string(org.Subscription), org.NewProjectPrivate, org.CreatedAt, org.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err, organizationKeyConstraint) {
		return &KeyConflictError{Key: org.Key}
	}
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// SelectByKey retrieves an organization by its key
func (s *PostgresStore) SelectByKey(ctx context.Context, q postgres.Querier, key string) (*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE kee = $1`
	org, err := scanOrganization(q.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization with key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// SelectByUUID retrieves an organization by its identifier
func (s *PostgresStore) SelectByUUID(ctx context.Context, q postgres.Querier, uuid string) (*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE uuid = $1`
	org, err := scanOrganization(q.QueryRowContext(ctx, query, uuid))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization %s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// KeyExists checks whether an organization uses the key
func (s *PostgresStore) KeyExists(ctx context.Context, q postgres.Querier, key string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM organizations WHERE kee = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check organization key: %w", err)
	}
	return exists, nil
}

// UpdateKey changes the key of an organization
func (s *PostgresStore) UpdateKey(ctx context.Context, q postgres.Querier, uuid, key string, updatedAt time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE organizations SET kee = $1, updated_at = $2 WHERE uuid = $3`,
		key, updatedAt, uuid)
	if postgres.IsUniqueViolation(err, organizationKeyConstraint) {
		return keyAlreadyExists(key)
	}
	if err != nil {
		return fmt.Errorf("failed to update organization key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update organization key: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("organization %s: %w", uuid, ErrNotFound)
	}
	return nil
}

// SetDefaultGroupUUID records the group every member of the organization belongs to
func (s *PostgresStore) SetDefaultGroupUUID(ctx context.Context, q postgres.Querier, organizationUUID, groupUUID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE organizations SET default_group_uuid = $1 WHERE uuid = $2`,
		groupUUID, organizationUUID)
	if err != nil {
		return fmt.Errorf("failed to set default group: %w", err)
	}
	return nil
}

// GetDefaultGroupUUID returns the default group of an organization
func (s *PostgresStore) GetDefaultGroupUUID(ctx context.Context, q postgres.Querier, organizationUUID string) (string, error) {
	var groupUUID sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT default_group_uuid FROM organizations WHERE uuid = $1`,
		organizationUUID).Scan(&groupUUID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("organization %s: %w", organizationUUID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get default group: %w", err)
	}
	if !groupUUID.Valid {
		return "", fmt.Errorf("default group of organization %s: %w", organizationUUID, ErrNotFound)
	}
	return groupUUID.String, nil
}

// SetDefaultTemplates records the permission templates applied to new projects and applications
func (s *PostgresStore) SetDefaultTemplates(ctx context.Context, q postgres.Querier, organizationUUID string, templates DefaultTemplates) error {
	_, err := q.ExecContext(ctx,
		`UPDATE organizations SET default_perm_template_project = $1, default_perm_template_app = $2 WHERE uuid = $3`,
		templates.ProjectUUID, templates.ApplicationsUUID, organizationUUID)
	if err != nil {
		return fmt.Errorf("failed to set default templates: %w", err)
	}
	return nil
}

// GetDefaultTemplates returns the default permission templates of an organization
func (s *PostgresStore) GetDefaultTemplates(ctx context.Context, q postgres.Querier, organizationUUID string) (*DefaultTemplates, error) {
	var project, applications sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT default_perm_template_project, default_perm_template_app FROM organizations WHERE uuid = $1`,
		organizationUUID).Scan(&project, &applications)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization %s: %w", organizationUUID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default templates: %w", err)
	}
	if !project.Valid {
		return nil, fmt.Errorf("default templates of organization %s: %w", organizationUUID, ErrNotFound)
	}

	templates := &DefaultTemplates{ProjectUUID: project.String}
	if applications.Valid {
		templates.ApplicationsUUID = &applications.String
	}
	return templates, nil
}

// GetNewProjectPrivate returns whether new projects of the organization are private
func (s *PostgresStore) GetNewProjectPrivate(ctx context.Context, q postgres.Querier, organizationUUID string) (bool, error) {
	var private bool
	err := q.QueryRowContext(ctx,
		`SELECT new_project_private FROM organizations WHERE uuid = $1`,
		organizationUUID).Scan(&private)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("organization %s: %w", organizationUUID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to get project visibility: %w", err)
	}
	return private, nil
}

func scanOrganization(row *sql.Row) (*Organization, error) {
	org := &Organization{}
	var description, url, avatar sql.NullString
	var subscription string
	err := row.Scan(
		&org.UUID, &org.Key, &org.Name, &description, &url, &avatar, &subscription,
		&org.NewProjectPrivate, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	org.Subscription = Subscription(subscription)
	org.Description = stringPtr(description)
	org.URL = stringPtr(url)
	org.Avatar = stringPtr(avatar)
	return org, nil
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func keyAlreadyExists(key string) error {
	return &StateConflictError{
		Message: fmt.Sprintf("Can't create organization with key '%s' because an organization with this key already exists", key),
	}
}
