// Package config loads lexicon's configuration from LEXICON_* environment
// variables, optionally seeded from a .env file.
//
// Server settings:
//
//	LEXICON_HOST="0.0.0.0"
//	LEXICON_PORT="8080"
//	LEXICON_HEALTH_PORT="9090"
//	LEXICON_SHUTDOWN_TIMEOUT="30s"
//
// Database settings:
//
//	LEXICON_DB_DRIVER="postgres"  # postgres, mysql, sqlite3
//	LEXICON_DB_DSN="postgres://localhost/lexicon?sslmode=disable"
//	LEXICON_DB_REPLICA_DSNS="postgres://replica-1/lexicon,postgres://replica-2/lexicon"
//	LEXICON_DB_FULLTEXT="true"
//
// Cache settings:
//
//	LEXICON_CACHE_BACKENDS="redis,memory"  # tried in order at startup
//	LEXICON_CACHE_REDIS_URL="redis://localhost:6379/0"
//	LEXICON_CACHE_EXPORT_TTL="10m"
//
// Observability settings:
//
//	LEXICON_LOG_LEVEL="info"  # debug, info, warn, error
//	LEXICON_METRICS_ENABLED="true"
//	LEXICON_OTEL_ENABLED="true"
//	LEXICON_OTEL_ENDPOINT="otel-collector:4317"
//
// LEXICON_ENV_FILE names the env file to load. Without it a .env file in
// the working directory is loaded when present. Variables already set in
// the environment win over the file.
package config
