package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// BulkMutationLimit is the hard cap the record store enforces on one bulk
// mutation call. Batch sizes above it are clamped.
const BulkMutationLimit = 10000

// Server captures process-level configuration for the reclassification service.
type Server struct {
	Addr string

	// PostgresURL points at the record store holding organization and
	// individual records.
	PostgresURL string

	// Redis backs the single-flight run lock. Optional; when unset the lock
	// falls back to an in-process implementation.
	Redis RedisConfig

	// Kafka brokers for the audit trail. Optional; when unset audit events
	// stay in the in-memory store only.
	KafkaBrokers []string
	KafkaTopic   string

	// Pipeline tuning.
	BatchSize   int
	EvalWorkers int

	// SourceClassification names the classification whose records are
	// candidates for conversion; TargetClassification is the one assigned to
	// eligible organizations. Both resolve to ids against the store at
	// startup.
	SourceClassification string
	TargetClassification string

	// MultiCurrency toggles the currency-match rule. Mirrors the feature
	// detection the record store exposes for the currency attribute.
	MultiCurrency bool

	JWTSigningKey string

	// AdminTokenHash is a bcrypt hash of the static admin token accepted as a
	// fallback credential on the trigger endpoint.
	AdminTokenHash string
}

// RedisConfig carries connection tuning for the run lock client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                 getenv("RECLASS_ADDR", ":8080"),
		PostgresURL:          os.Getenv("RECLASS_POSTGRES_URL"),
		KafkaTopic:           getenv("RECLASS_KAFKA_TOPIC", "reclass.audit"),
		BatchSize:            getenvInt("RECLASS_BATCH_SIZE", 2000),
		EvalWorkers:          getenvInt("RECLASS_EVAL_WORKERS", 4),
		SourceClassification: getenv("RECLASS_SOURCE_CLASSIFICATION", "business"),
		TargetClassification: getenv("RECLASS_TARGET_CLASSIFICATION", "individual-linked"),
		MultiCurrency:        os.Getenv("RECLASS_MULTI_CURRENCY") == "true",
		JWTSigningKey:        getenv("RECLASS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminTokenHash:       os.Getenv("RECLASS_ADMIN_TOKEN_HASH"),
		Redis: RedisConfig{
			URL:          os.Getenv("RECLASS_REDIS_URL"),
			PoolSize:     getenvInt("RECLASS_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("RECLASS_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if brokers := os.Getenv("RECLASS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitCommaList(brokers)
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 2000
	}
	if cfg.BatchSize > BulkMutationLimit {
		cfg.BatchSize = BulkMutationLimit
	}
	if cfg.EvalWorkers <= 0 {
		cfg.EvalWorkers = 1
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
