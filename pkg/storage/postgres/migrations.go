package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in the order they must be applied
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users and organizations tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					uuid VARCHAR(40) PRIMARY KEY,
					login VARCHAR(255) NOT NULL UNIQUE,
					name VARCHAR(200),
					email VARCHAR(100),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS organizations (
					uuid VARCHAR(40) PRIMARY KEY,
					kee VARCHAR(255) NOT NULL,
					name VARCHAR(255) NOT NULL,
					description VARCHAR(256),
					url VARCHAR(256),
					avatar_url VARCHAR(256),
					subscription VARCHAR(40) NOT NULL DEFAULT 'FREE',
					new_project_private BOOLEAN NOT NULL DEFAULT FALSE,
					default_group_uuid VARCHAR(40),
					default_perm_template_project VARCHAR(40),
					default_perm_template_app VARCHAR(40),
					default_quality_gate_uuid VARCHAR(40),
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL,
					CONSTRAINT organizations_kee_key UNIQUE (kee)
				);

				CREATE TABLE IF NOT EXISTS organization_members (
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					user_uuid VARCHAR(40) NOT NULL REFERENCES users(uuid) ON DELETE CASCADE,
					PRIMARY KEY (organization_uuid, user_uuid)
				);
			`,
		},
		{
			Version:     2,
			Description: "Create groups and group permissions tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS groups (
					uuid VARCHAR(40) PRIMARY KEY,
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					name VARCHAR(500) NOT NULL,
					description VARCHAR(200),
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL,
					UNIQUE (organization_uuid, name)
				);

				CREATE TABLE IF NOT EXISTS groups_users (
					group_uuid VARCHAR(40) NOT NULL REFERENCES groups(uuid) ON DELETE CASCADE,
					user_uuid VARCHAR(40) NOT NULL REFERENCES users(uuid) ON DELETE CASCADE,
					PRIMARY KEY (group_uuid, user_uuid)
				);

				CREATE TABLE IF NOT EXISTS group_roles (
					uuid VARCHAR(40) PRIMARY KEY,
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					group_uuid VARCHAR(40) REFERENCES groups(uuid) ON DELETE CASCADE,
					role VARCHAR(64) NOT NULL,
					UNIQUE (organization_uuid, group_uuid, role)
				);

				CREATE INDEX IF NOT EXISTS idx_group_roles_group_uuid ON group_roles(group_uuid);
			`,
		},
		{
			Version:     3,
			Description: "Create permission templates tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS perm_templates (
					uuid VARCHAR(40) PRIMARY KEY,
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					name VARCHAR(100) NOT NULL,
					description VARCHAR(4000),
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_perm_templates_org_name ON perm_templates(organization_uuid, LOWER(name));

				CREATE TABLE IF NOT EXISTS perm_templates_groups (
					uuid VARCHAR(40) PRIMARY KEY,
					template_uuid VARCHAR(40) NOT NULL REFERENCES perm_templates(uuid) ON DELETE CASCADE,
					group_uuid VARCHAR(40) REFERENCES groups(uuid) ON DELETE CASCADE,
					permission_reference VARCHAR(64) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				);
			`,
		},
		{
			Version:     4,
			Description: "Create quality profiles and quality gates tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS rules_profiles (
					uuid VARCHAR(40) PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					language VARCHAR(20) NOT NULL,
					is_built_in BOOLEAN NOT NULL DEFAULT FALSE
				);

				CREATE TABLE IF NOT EXISTS org_qprofiles (
					uuid VARCHAR(255) PRIMARY KEY,
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					rules_profile_uuid VARCHAR(255) NOT NULL REFERENCES rules_profiles(uuid),
					parent_uuid VARCHAR(255),
					user_updated_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				);

				CREATE TABLE IF NOT EXISTS default_qprofiles (
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					language VARCHAR(20) NOT NULL,
					qprofile_uuid VARCHAR(255) NOT NULL REFERENCES org_qprofiles(uuid) ON DELETE CASCADE,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL,
					PRIMARY KEY (organization_uuid, language)
				);

				CREATE TABLE IF NOT EXISTS quality_gates (
					uuid VARCHAR(40) PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					is_built_in BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS org_quality_gates (
					uuid VARCHAR(40) PRIMARY KEY,
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					quality_gate_uuid VARCHAR(40) NOT NULL REFERENCES quality_gates(uuid) ON DELETE CASCADE,
					UNIQUE (organization_uuid, quality_gate_uuid)
				);
			`,
		},
		{
			Version:     5,
			Description: "Create properties and user search index tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS properties (
					prop_key VARCHAR(512) PRIMARY KEY,
					text_value TEXT,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS user_search_index (
					user_uuid VARCHAR(40) NOT NULL REFERENCES users(uuid) ON DELETE CASCADE,
					organization_uuid VARCHAR(40) NOT NULL REFERENCES organizations(uuid) ON DELETE CASCADE,
					login VARCHAR(255) NOT NULL,
					name VARCHAR(200),
					email VARCHAR(100),
					search_vector TSVECTOR NOT NULL,
					indexed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_uuid, organization_uuid)
				);

				CREATE INDEX IF NOT EXISTS idx_user_search_index_vector ON user_search_index USING GIN(search_vector);
			`,
		},
	}
}

// Migrate applies every migration that has not been recorded in schema_migrations yet.
// Each migration runs in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, log *logrus.Logger) (int, error) {
	if log == nil {
		log = logrus.New()
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	runner := NewTxRunner(db)
	applied := 0
	for _, m := range GetMigrations() {
		if m.Version <= current {
			continue
		}

		err := runner.WithTx(ctx, func(q Querier) error {
			if _, err := q.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
				m.Version, m.Description)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Description, err)
		}

		log.Infof("Applied migration %d: %s", m.Version, m.Description)
		applied++
	}

	return applied, nil
}
