package settings

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/orgforge/pkg/observability"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

const cacheType = "settings"

// Source reads raw setting values
type Source interface {
	// Get returns the stored value and whether the key is set
	Get(ctx context.Context, key string) (string, bool, error)
}

// PostgresSource reads settings from the properties table
type PostgresSource struct {
	q postgres.Querier
}

// NewPostgresSource creates a new PostgresSource
func NewPostgresSource(q postgres.Querier) *PostgresSource {
	return &PostgresSource{q: q}
}

// Get reads a property
func (s *PostgresSource) Get(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := s.q.QueryRowContext(ctx, `SELECT text_value FROM properties WHERE prop_key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read property %q: %w", key, err)
	}
	return value.String, value.Valid, nil
}

// Set writes a property
func (s *PostgresSource) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO properties (prop_key, text_value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (prop_key) DO UPDATE SET text_value = EXCLUDED.text_value, updated_at = NOW()
	`
	if _, err := s.q.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write property %q: %w", key, err)
	}
	return nil
}

// Config holds the cache configuration of a Provider
type Config struct {
	CacheSize int
	CacheTTL  time.Duration
	// Defaults apply to keys the source does not hold
	Defaults map[string]string
}

// DefaultConfig returns the default provider configuration
func DefaultConfig() Config {
	return Config{
		CacheSize: 128,
		CacheTTL:  time.Minute,
	}
}

type entry struct {
	value string
	found bool
}

// Provider resolves settings through a Source, falling back to configured defaults,
// and caches every lookup for Config.CacheTTL.
type Provider struct {
	source   Source
	defaults map[string]string
	cache    *lru.LRU[string, entry]
	metrics  *observability.Metrics
	log      *logrus.Logger
}

// NewProvider creates a new Provider. metrics may be nil.
func NewProvider(source Source, cfg Config, metrics *observability.Metrics, log *logrus.Logger) *Provider {
	if log == nil {
		log = logrus.New()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}

	return &Provider{
		source:   source,
		defaults: cfg.Defaults,
		cache:    lru.NewLRU[string, entry](cfg.CacheSize, nil, cfg.CacheTTL),
		metrics:  metrics,
		log:      log,
	}
}

// GetString returns the value of a setting and whether it is set
func (p *Provider) GetString(ctx context.Context, key string) (string, bool, error) {
	if cached, ok := p.cache.Get(key); ok {
		p.metrics.RecordCacheHit(cacheType)
		return cached.value, cached.found, nil
	}
	p.metrics.RecordCacheMiss(cacheType)

	value, found, err := p.source.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if !found {
		value, found = p.defaults[key]
	}

	p.cache.Add(key, entry{value: value, found: found})
	return value, found, nil
}

// GetBool returns a boolean setting. Unset or unparsable values yield fallback.
func (p *Provider) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	value, found, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		p.log.Warnf("Setting %s has a non boolean value %q, using %t", key, value, fallback)
		return fallback, nil
	}
	return parsed, nil
}

// Invalidate drops the cached value of a key
func (p *Provider) Invalidate(key string) {
	p.cache.Remove(key)
}
