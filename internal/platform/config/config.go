package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures all process-level configuration so main stays lean and no
// service reads the environment directly.
type Config struct {
	Addr          string
	JWTSigningKey string

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig

	Advisory  AdvisoryConfig
	Registry  RegistryConfig
	Screening ScreeningConfig

	// LiveCacheTTL bounds how long a resolved conflict result is served
	// without re-consulting the advisory service. FallbackCacheTTL is the
	// longer-lived safety net used when the service is down.
	LiveCacheTTL     time.Duration
	FallbackCacheTTL time.Duration

	// ScreeningCacheTTL bounds reuse of a passing screening result.
	ScreeningCacheTTL time.Duration

	SyncSweepInterval  time.Duration
	GraceSweepInterval time.Duration
}

// RedisConfig configures the shared cache store. Empty URL means the
// in-process fallback cache serves alone.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event stream. Empty brokers disables the
// kafka publisher; audit entries still persist to the store.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// AdvisoryConfig points at the remote conflict-resolution classifier.
type AdvisoryConfig struct {
	BaseURL             string
	Timeout             time.Duration
	ConfidenceThreshold float64
}

// ScreeningConfig names the sanctions screening vendors in fallback order.
// Unconfigured vendors are skipped; the static list provider always runs
// last.
type ScreeningConfig struct {
	PrimaryURL      string
	PrimaryAPIKey   string
	SecondaryURL    string
	SecondaryAPIKey string
	Timeout         time.Duration
	ListVersion     string
}

// RegistryConfig points at the on-chain compliance registry.
type RegistryConfig struct {
	RPCURL          string
	ChainID         int64
	ContractAddress string
	SigningWallet   string
	MaxBatchSize    int
	ConfirmTimeout  time.Duration
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	return Config{
		Addr:          envOr("TOKENGATE_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "tokengate.audit"),
		},
		Advisory: AdvisoryConfig{
			BaseURL:             envOr("ADVISORY_BASE_URL", "http://localhost:8090"),
			Timeout:             envDuration("ADVISORY_TIMEOUT", 10*time.Second),
			ConfidenceThreshold: 0.70,
		},
		Screening: ScreeningConfig{
			PrimaryURL:      os.Getenv("SCREENING_PRIMARY_URL"),
			PrimaryAPIKey:   os.Getenv("SCREENING_PRIMARY_API_KEY"),
			SecondaryURL:    os.Getenv("SCREENING_SECONDARY_URL"),
			SecondaryAPIKey: os.Getenv("SCREENING_SECONDARY_API_KEY"),
			Timeout:         envDuration("SCREENING_TIMEOUT", 10*time.Second),
			ListVersion:     envOr("SCREENING_LIST_VERSION", "ofac-2026-01"),
		},
		Registry: RegistryConfig{
			RPCURL:          os.Getenv("REGISTRY_RPC_URL"),
			ChainID:         int64(envInt("REGISTRY_CHAIN_ID", 1)),
			ContractAddress: os.Getenv("REGISTRY_CONTRACT_ADDRESS"),
			SigningWallet:   os.Getenv("REGISTRY_SIGNING_WALLET"),
			MaxBatchSize:    envInt("REGISTRY_MAX_BATCH", 50),
			ConfirmTimeout:  envDuration("REGISTRY_CONFIRM_TIMEOUT", 2*time.Minute),
		},
		LiveCacheTTL:       envDuration("LIVE_CACHE_TTL", time.Hour),
		FallbackCacheTTL:   envDuration("FALLBACK_CACHE_TTL", 7*24*time.Hour),
		ScreeningCacheTTL:  envDuration("SCREENING_CACHE_TTL", 24*time.Hour),
		SyncSweepInterval:  envDuration("SYNC_SWEEP_INTERVAL", 5*time.Minute),
		GraceSweepInterval: envDuration("GRACE_SWEEP_INTERVAL", time.Hour),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
