package search

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

var indexerTracer = otel.Tracer("orgforge/search/indexer")

// UserDocument is the searchable view of a user
type UserDocument struct {
	UserUUID string
	Login    string
	Name     string
	Email    string
}

// UserIndexer maintains the per-organization user search index
type UserIndexer struct{}

// NewUserIndexer creates a new UserIndexer
func NewUserIndexer() *UserIndexer {
	return &UserIndexer{}
}

// IndexForOrganization makes a user searchable among the members of an organization.
// Indexing an already indexed user refreshes its document.
func (i *UserIndexer) IndexForOrganization(ctx context.Context, q postgres.Querier, organizationUUID string, doc UserDocument) error {
	ctx, span := indexerTracer.Start(ctx, "IndexForOrganization",
		trace.WithAttributes(
			attribute.String("organization_uuid", organizationUUID),
			attribute.String("user_uuid", doc.UserUUID),
		),
	)
	defer span.End()

	query := `
		INSERT INTO user_search_index (user_uuid, organization_uuid, login, name, email, search_vector, indexed_at)
		VALUES ($1, $2, $3, $4, $5,
		        setweight(to_tsvector('simple', $3), 'A') ||
		        setweight(to_tsvector('simple', COALESCE($4, '')), 'B') ||
		        setweight(to_tsvector('simple', COALESCE($5, '')), 'C'),
		        NOW())
		ON CONFLICT (user_uuid, organization_uuid) DO UPDATE SET
			login = EXCLUDED.login,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			search_vector = EXCLUDED.search_vector,
			indexed_at = EXCLUDED.indexed_at
	`
	_, err := q.ExecContext(ctx, query,
		doc.UserUUID, organizationUUID, doc.Login, nullable(doc.Name), nullable(doc.Email))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to index user")
		return fmt.Errorf("failed to index user %s: %w", doc.Login, err)
	}

	span.SetStatus(codes.Ok, "user indexed")
	return nil
}

// RemoveFromOrganization drops a user from the index of an organization
func (i *UserIndexer) RemoveFromOrganization(ctx context.Context, q postgres.Querier, organizationUUID, userUUID string) error {
	ctx, span := indexerTracer.Start(ctx, "RemoveFromOrganization",
		trace.WithAttributes(attribute.String("organization_uuid", organizationUUID)),
	)
	defer span.End()

	_, err := q.ExecContext(ctx,
		`DELETE FROM user_search_index WHERE organization_uuid = $1 AND user_uuid = $2`,
		organizationUUID, userUUID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove user from index")
		return fmt.Errorf("failed to remove user from index: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
