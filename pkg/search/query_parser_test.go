package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryParser_Parse(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		terms     []string
		operators []string
		login     string
		email     string
	}{
		{
			name:      "free text",
			query:     "ada lovelace",
			terms:     []string{"ada", "lovelace"},
			operators: []string{},
		},
		{
			name:      "login filter",
			query:     "login:ada",
			terms:     []string{},
			operators: []string{},
			login:     "ada",
		},
		{
			name:      "quoted email filter and text",
			query:     `ada email:"corp.io"`,
			terms:     []string{"ada"},
			operators: []string{},
			email:     "corp.io",
		},
		{
			name:      "operators",
			query:     "ada OR grace",
			terms:     []string{"ada", "grace"},
			operators: []string{"OR"},
		},
		{
			name:      "name filter adds a term",
			query:     "name:hopper",
			terms:     []string{"hopper"},
			operators: []string{},
		},
	}

	parser := NewQueryParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.terms, parsed.Terms)
			assert.Equal(t, tt.operators, parsed.Operators)
			assert.Equal(t, tt.login, parsed.Login)
			assert.Equal(t, tt.email, parsed.Email)
			assert.Equal(t, tt.query, parsed.Raw)
		})
	}
}

func TestQueryParser_UnknownFilter(t *testing.T) {
	_, err := NewQueryParser().Parse("group:owners")
	assert.ErrorContains(t, err, "invalid filter: group")
}

func TestParsedQuery_ToTsQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    ParsedQuery
		expected string
	}{
		{name: "empty", query: ParsedQuery{}, expected: ""},
		{name: "single term", query: ParsedQuery{Terms: []string{"ada"}}, expected: "ada:*"},
		{name: "implicit and", query: ParsedQuery{Terms: []string{"ada", "love"}}, expected: "ada:* & love:*"},
		{name: "or", query: ParsedQuery{Terms: []string{"ada", "grace"}, Operators: []string{"OR"}}, expected: "ada:* | grace:*"},
		{name: "not", query: ParsedQuery{Terms: []string{"ada", "bot"}, Operators: []string{"NOT"}}, expected: "ada:* & ! bot:*"},
		{name: "special characters removed", query: ParsedQuery{Terms: []string{"o'brien", "&"}}, expected: "obrien:*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.query.ToTsQuery())
		})
	}
}

func TestParsedQuery_HasFilters(t *testing.T) {
	assert.False(t, (&ParsedQuery{Terms: []string{"ada"}}).HasFilters())
	assert.True(t, (&ParsedQuery{Login: "ada"}).HasFilters())
	assert.True(t, (&ParsedQuery{Email: "corp.io"}).HasFilters())
}
