package qualityprofile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// Store handles persistence of rules profiles and organization profiles
type Store struct{}

// NewStore creates a new Store
func NewStore() *Store {
	return &Store{}
}

// SelectBuiltInRulesProfile retrieves the built-in rules profile of a language by name
func (s *Store) SelectBuiltInRulesProfile(ctx context.Context, q postgres.Querier, language, name string) (*RulesProfile, error) {
	query := `
		SELECT uuid, name, language, is_built_in
		FROM rules_profiles
		WHERE language = $1 AND name = $2 AND is_built_in = TRUE
	`
	rp := &RulesProfile{}
	err := q.QueryRowContext(ctx, query, language, name).Scan(&rp.UUID, &rp.Name, &rp.Language, &rp.IsBuiltIn)
	if err == sql.ErrNoRows {
		return nil, ErrRulesProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rules profile: %w", err)
	}
	return rp, nil
}

// InsertRulesProfile creates a rules profile
func (s *Store) InsertRulesProfile(ctx context.Context, q postgres.Querier, rp *RulesProfile) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO rules_profiles (uuid, name, language, is_built_in) VALUES ($1, $2, $3, $4)`,
		rp.UUID, rp.Name, rp.Language, rp.IsBuiltIn)
	if err != nil {
		return fmt.Errorf("failed to create rules profile: %w", err)
	}
	return nil
}

// InsertOrgProfile creates a quality profile of an organization
func (s *Store) InsertOrgProfile(ctx context.Context, q postgres.Querier, profile *OrgProfile) error {
	query := `
		INSERT INTO org_qprofiles (uuid, organization_uuid, rules_profile_uuid, parent_uuid, user_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		profile.UUID,
		profile.OrganizationUUID,
		profile.RulesProfileUUID,
		profile.ParentUUID,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quality profile: %w", err)
	}
	return nil
}

// InsertDefault marks a profile as the default of its language in the organization
func (s *Store) InsertDefault(ctx context.Context, q postgres.Querier, organizationUUID, language, profileUUID string, now time.Time) error {
	query := `
		INSERT INTO default_qprofiles (organization_uuid, language, qprofile_uuid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	if _, err := q.ExecContext(ctx, query, organizationUUID, language, profileUUID, now); err != nil {
		return fmt.Errorf("failed to set default quality profile: %w", err)
	}
	return nil
}

const orgProfileSelect = `
		SELECT oqp.uuid, oqp.organization_uuid, oqp.rules_profile_uuid, oqp.parent_uuid,
		       rp.name, rp.language, dqp.qprofile_uuid IS NOT NULL, oqp.created_at, oqp.updated_at
		FROM org_qprofiles oqp
		JOIN rules_profiles rp ON rp.uuid = oqp.rules_profile_uuid
		LEFT JOIN default_qprofiles dqp ON dqp.qprofile_uuid = oqp.uuid
	`

// SelectByOrganization lists the profiles of an organization ordered by language and name
func (s *Store) SelectByOrganization(ctx context.Context, q postgres.Querier, organizationUUID string) ([]OrgProfile, error) {
	query := orgProfileSelect + `
		WHERE oqp.organization_uuid = $1
		ORDER BY rp.language ASC, rp.name ASC
	`
	rows, err := q.QueryContext(ctx, query, organizationUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality profiles: %w", err)
	}
	defer rows.Close()

	var profiles []OrgProfile
	for rows.Next() {
		profile, err := scanOrgProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quality profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	return profiles, rows.Err()
}

// SelectDefault retrieves the default profile of a language in an organization
func (s *Store) SelectDefault(ctx context.Context, q postgres.Querier, organizationUUID, language string) (*OrgProfile, error) {
	query := orgProfileSelect + `
		WHERE dqp.organization_uuid = $1 AND dqp.language = $2
	`
	profile, err := scanOrgProfile(q.QueryRowContext(ctx, query, organizationUUID, language))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("default %s profile: %w", language, postgres.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default quality profile: %w", err)
	}
	return profile, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrgProfile(row scanner) (*OrgProfile, error) {
	profile := &OrgProfile{}
	var parent sql.NullString
	err := row.Scan(
		&profile.UUID,
		&profile.OrganizationUUID,
		&profile.RulesProfileUUID,
		&parent,
		&profile.Name,
		&profile.Language,
		&profile.IsDefault,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		profile.ParentUUID = &parent.String
	}
	return profile, nil
}
