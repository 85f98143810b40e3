package search

import (
	"fmt"
	"regexp"
	"strings"
)

// ParsedQuery is a user search query split into free text and field filters
type ParsedQuery struct {
	Terms     []string
	Operators []string
	Login     string
	Email     string
	Raw       string
}

// QueryParser parses queries such as `ali OR bob email:"corp.io"`
type QueryParser struct {
	filterPattern *regexp.Regexp
}

// NewQueryParser creates a new query parser
func NewQueryParser() *QueryParser {
	return &QueryParser{
		filterPattern: regexp.MustCompile(`([\w-]+):("([^"]+)"|(\S+))`),
	}
}

// Parse parses a search query string into a ParsedQuery
func (p *QueryParser) Parse(queryStr string) (*ParsedQuery, error) {
	query := &ParsedQuery{
		Terms:     make([]string, 0),
		Operators: make([]string, 0),
		Raw:       queryStr,
	}

	for _, match := range p.filterPattern.FindAllStringSubmatch(queryStr, -1) {
		key := match[1]
		value := match[3]
		if value == "" {
			value = match[4]
		}
		if err := p.parseFilter(query, key, value); err != nil {
			return nil, err
		}
	}

	cleanQuery := strings.TrimSpace(p.filterPattern.ReplaceAllString(queryStr, ""))
	for _, term := range strings.Fields(cleanQuery) {
		upper := strings.ToUpper(term)
		if upper == "AND" || upper == "OR" || upper == "NOT" {
			query.Operators = append(query.Operators, upper)
		} else {
			query.Terms = append(query.Terms, term)
		}
	}

	return query, nil
}

func (p *QueryParser) parseFilter(query *ParsedQuery, key, value string) error {
	switch strings.ToLower(key) {
	case "login":
		query.Login = value
	case "email":
		query.Email = value
	case "name":
		// name is what the free text matches on already
		query.Terms = append(query.Terms, value)
	default:
		return fmt.Errorf("invalid filter: %s (must be one of: login, email, name)", key)
	}
	return nil
}

// ToTsQuery converts the free-text terms to a PostgreSQL tsquery with prefix matching
func (q *ParsedQuery) ToTsQuery() string {
	parts := make([]string, 0, len(q.Terms)*2)
	opIndex := 0
	for _, term := range q.Terms {
		sanitized := sanitizeTsQueryTerm(term)
		if sanitized == "" {
			continue
		}
		if len(parts) > 0 {
			op := "&"
			if opIndex < len(q.Operators) {
				switch q.Operators[opIndex] {
				case "OR":
					op = "|"
				case "NOT":
					op = "& !"
				}
			}
			opIndex++
			parts = append(parts, op)
		}
		parts = append(parts, sanitized)
	}
	return strings.Join(parts, " ")
}

// HasFilters returns true if the query has any field filter
func (q *ParsedQuery) HasFilters() bool {
	return q.Login != "" || q.Email != ""
}

var tsQuerySpecial = regexp.MustCompile(`[&|!():*<>'\\]`)

func sanitizeTsQueryTerm(term string) string {
	term = tsQuerySpecial.ReplaceAllString(strings.TrimSpace(term), "")
	if term == "" {
		return ""
	}
	return term + ":*"
}
