package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/orgforge/pkg/clock"
	"github.com/platinummonkey/orgforge/pkg/config"
	"github.com/platinummonkey/orgforge/pkg/ids"
	"github.com/platinummonkey/orgforge/pkg/observability"
	"github.com/platinummonkey/orgforge/pkg/orgs"
	"github.com/platinummonkey/orgforge/pkg/qualitygate"
	"github.com/platinummonkey/orgforge/pkg/qualityprofile"
	"github.com/platinummonkey/orgforge/pkg/rbac"
	"github.com/platinummonkey/orgforge/pkg/search"
	"github.com/platinummonkey/orgforge/pkg/settings"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// Env holds what every command needs
type Env struct {
	Config   *config.Config
	Log      *logrus.Logger
	Out      io.Writer
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Profiles qualityprofile.Registry
	UUIDs    ids.UUIDFactory
	Clock    clock.Clock

	// OpenDB connects to the database. Defaults to postgres.Open with Config.Postgres.
	OpenDB func(ctx context.Context) (*sql.DB, error)
}

// NewEnv creates the environment of a run. The built-in profiles are read from the
// configured YAML file, or taken from qualityprofile.DefaultRegistry.
func NewEnv(cfg *config.Config, log *logrus.Logger) (*Env, error) {
	env := &Env{
		Config: cfg,
		Log:    log,
		Out:    os.Stdout,
		UUIDs:  ids.NewRandomUUIDFactory(),
		Clock:  clock.System{},
		OpenDB: func(ctx context.Context) (*sql.DB, error) {
			return postgres.Open(ctx, cfg.Postgres)
		},
	}

	if cfg.Observability.MetricsEnabled {
		env.Registry = prometheus.NewRegistry()
		env.Metrics = observability.NewMetrics(env.Registry)
	}

	if path := cfg.Provisioning.BuiltInProfilesFile; path != "" {
		registry, err := qualityprofile.LoadRegistry(path)
		if err != nil {
			return nil, err
		}
		env.Profiles = registry
	} else {
		env.Profiles = qualityprofile.DefaultRegistry()
	}

	return env, nil
}

// withDB opens the database for the duration of fn, then publishes the metrics of the run
func (e *Env) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := e.OpenDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	runErr := fn(db)

	e.Metrics.UpdateDBStats(db.Stats())
	if path := e.Config.Observability.MetricsTextfile; path != "" && e.Registry != nil {
		if err := observability.WriteTextfile(path, e.Registry); err != nil {
			e.Log.WithError(err).Warnf("Failed to write metrics to %s", path)
		}
	}

	return runErr
}

// updater wires the organization workflow on db
func (e *Env) updater(db *sql.DB) *orgs.Updater {
	provisioner := rbac.NewProvisioner(e.UUIDs, e.Clock, e.Log)

	return orgs.NewUpdater(orgs.Dependencies{
		Tx:         postgres.NewTxRunner(db),
		Store:      orgs.NewPostgresStore(),
		Groups:     provisioner,
		Templates:  provisioner,
		Indexer:    search.NewUserIndexer(),
		Profiles:   e.cloner(),
		Gates:      e.linker(),
		Settings:   settings.NewProvider(settings.NewPostgresSource(db), e.Config.SettingsConfig(), e.Metrics, e.Log),
		Validation: orgs.NewValidator(),
		UUIDs:      e.UUIDs,
		Clock:      e.Clock,
		Metrics:    e.Metrics,
		Logger:     e.Log,
	})
}

func (e *Env) cloner() *qualityprofile.Cloner {
	return qualityprofile.NewCloner(e.Profiles, qualityprofile.NewStore(), e.UUIDs, e.Clock, e.Log)
}

func (e *Env) linker() *qualitygate.Linker {
	return qualitygate.NewLinker(qualitygate.NewStore(), e.UUIDs, e.Clock, e.Log)
}

func (e *Env) printJSON(v any) error {
	encoder := json.NewEncoder(e.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
