package search

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

var searchTracer = otel.Tracer("orgforge/search/service")

const (
	defaultLimit = 50
	maxLimit     = 500
)

// SearchRequest is a search among the members of an organization
type SearchRequest struct {
	OrganizationUUID string
	Query            string
	Limit            int
	Offset           int
}

// UserHit is a matching user
type UserHit struct {
	UserUUID string  `json:"user_uuid"`
	Login    string  `json:"login"`
	Name     string  `json:"name,omitempty"`
	Email    string  `json:"email,omitempty"`
	Rank     float64 `json:"rank"`
}

// SearchResponse holds a page of results and the total number of matches
type SearchResponse struct {
	Results    []UserHit `json:"results"`
	TotalCount int       `json:"total_count"`
	Query      string    `json:"query"`
}

// Service searches the user index
type Service struct {
	q      postgres.Querier
	parser *QueryParser
}

// NewService creates a new search service
func NewService(q postgres.Querier) *Service {
	return &Service{q: q, parser: NewQueryParser()}
}

// Search returns the members of an organization matching the query, best match first.
// An empty query lists every indexed member by login.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	ctx, span := searchTracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("organization_uuid", req.OrganizationUUID),
			attribute.String("query", req.Query),
			attribute.Int("limit", req.Limit),
		),
	)
	defer span.End()

	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	parsed, err := s.parser.Parse(req.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse query")
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	where, args, rank := searchConditions(req, parsed)
	query, pageArgs := buildSearchQuery(where, args, rank, req)
	rows, err := s.q.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search query failed")
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	response := &SearchResponse{Results: make([]UserHit, 0), Query: req.Query}
	for rows.Next() {
		var hit UserHit
		var name, email *string
		if err := rows.Scan(&hit.UserUUID, &hit.Login, &name, &email, &hit.Rank, &response.TotalCount); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if name != nil {
			hit.Name = *name
		}
		if email != nil {
			hit.Email = *email
		}
		response.Results = append(response.Results, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	// a page past the last match carries no window count
	if len(response.Results) == 0 && req.Offset > 0 {
		countQuery := "SELECT COUNT(*) FROM user_search_index WHERE " + where
		if err := s.q.QueryRowContext(ctx, countQuery, args...).Scan(&response.TotalCount); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "count query failed")
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
	}

	span.SetAttributes(attribute.Int("total_count", response.TotalCount))
	span.SetStatus(codes.Ok, fmt.Sprintf("found %d users", response.TotalCount))
	return response, nil
}

// searchConditions returns the WHERE clause shared by the page and count queries,
// its arguments and the rank expression
func searchConditions(req SearchRequest, parsed *ParsedQuery) (string, []any, string) {
	args := []any{req.OrganizationUUID}
	conditions := []string{"organization_uuid = $1"}
	rank := "0::float8"

	if tsQuery := parsed.ToTsQuery(); tsQuery != "" {
		args = append(args, tsQuery)
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("search_vector @@ to_tsquery('simple', $%d)", n))
		rank = fmt.Sprintf("ts_rank(search_vector, to_tsquery('simple', $%d))::float8", n)
	}
	if parsed.Login != "" {
		args = append(args, parsed.Login)
		conditions = append(conditions, fmt.Sprintf("login = $%d", len(args)))
	}
	if parsed.Email != "" {
		args = append(args, "%"+strings.ToLower(parsed.Email)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(email) LIKE $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args, rank
}

func buildSearchQuery(where string, args []any, rank string, req SearchRequest) (string, []any) {
	pageArgs := append(append([]any{}, args...), req.Limit, req.Offset)
	query := fmt.Sprintf(`
		SELECT user_uuid, login, name, email, %s AS rank, COUNT(*) OVER () AS total_count
		FROM user_search_index
		WHERE %s
		ORDER BY rank DESC, login ASC
		LIMIT $%d OFFSET $%d
	`, rank, where, len(pageArgs)-1, len(pageArgs))

	return query, pageArgs
}
