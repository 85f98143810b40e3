package orgs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// InsertMember adds a user to the members of an organization
func (s *PostgresStore) InsertMember(ctx context.Context, q postgres.Querier, organizationUUID, userUUID string) error {
	query := `
		INSERT INTO organization_members (organization_uuid, user_uuid)
		VALUES ($1, $2)
		ON CONFLICT (organization_uuid, user_uuid) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, query, organizationUUID, userUUID); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// SelectMember retrieves a member of an organization
func (s *PostgresStore) SelectMember(ctx context.Context, q postgres.Querier, organizationUUID, userUUID string) (*User, error) {
	query := `
		SELECT u.uuid, u.login, u.name, u.email
		FROM organization_members m
		JOIN users u ON u.uuid = m.user_uuid
		WHERE m.organization_uuid = $1 AND m.user_uuid = $2
	`
	user := &User{}
	var name, email sql.NullString
	err := q.QueryRowContext(ctx, query, organizationUUID, userUUID).Scan(&user.UUID, &user.Login, &name, &email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s: %w", userUUID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	if name.Valid {
		user.Name = name.String
	}
	if email.Valid {
		user.Email = email.String
	}
	return user, nil
}

// ListMembers retrieves all members of an organization, sorted by login
func (s *PostgresStore) ListMembers(ctx context.Context, q postgres.Querier, organizationUUID string) ([]*User, error) {
	query := `
		SELECT u.uuid, u.login, u.name, u.email
		FROM organization_members m
		JOIN users u ON u.uuid = m.user_uuid
		WHERE m.organization_uuid = $1
		ORDER BY u.login ASC
	`
	rows, err := q.QueryContext(ctx, query, organizationUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*User
	for rows.Next() {
		user := &User{}
		var name, email sql.NullString
		if err := rows.Scan(&user.UUID, &user.Login, &name, &email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if name.Valid {
			user.Name = name.String
		}
		if email.Valid {
			user.Email = email.String
		}
		members = append(members, user)
	}

	return members, rows.Err()
}

// SelectUserByLogin retrieves a user by login
func (s *PostgresStore) SelectUserByLogin(ctx context.Context, q postgres.Querier, login string) (*User, error) {
	user := &User{}
	var name, email sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT uuid, login, name, email FROM users WHERE login = $1`,
		login).Scan(&user.UUID, &user.Login, &name, &email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", login, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Name = name.String
	user.Email = email.String
	return user, nil
}
