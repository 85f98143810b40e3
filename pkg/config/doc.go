// Package config loads the orgadmin configuration from environment variables.
//
// Database:
//
//	ORGFORGE_POSTGRES_URL="postgres://localhost/orgforge?sslmode=disable"  # required
//	ORGFORGE_POSTGRES_MAX_CONNS="25"
//	ORGFORGE_POSTGRES_MIN_CONNS="5"
//	ORGFORGE_POSTGRES_TIMEOUT="5s"
//
// Provisioning:
//
//	ORGFORGE_DEFAULT_PUBLIC_VISIBILITY="false"   # used when the database holds no value
//	ORGFORGE_BUILTIN_PROFILES="/etc/orgforge/profiles.yaml"
//	ORGFORGE_SETTINGS_CACHE_SIZE="128"
//	ORGFORGE_SETTINGS_CACHE_TTL="1m"
//
// Observability:
//
//	ORGFORGE_LOG_LEVEL="info"
//	ORGFORGE_METRICS_ENABLED="true"
//	ORGFORGE_METRICS_TEXTFILE="/var/lib/node_exporter/orgforge.prom"
//	ORGFORGE_OTEL_ENABLED="false"
//	ORGFORGE_OTEL_ENDPOINT="localhost:4317"
//	ORGFORGE_OTEL_SERVICE_NAME="orgforge"
//	ORGFORGE_OTEL_INSECURE="true"
//
// Usage:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
