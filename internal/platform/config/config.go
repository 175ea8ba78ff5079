package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "reserveguard/pkg/platform/strings"
)

// Backend selects where state documents are persisted.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendS3       Backend = "s3"
)

// IsValid checks if the backend is one of the supported values.
func (b Backend) IsValid() bool {
	switch b {
	case BackendFile, BackendPostgres, BackendRedis, BackendS3:
		return true
	}
	return false
}

// Config captures process-level configuration. Policy thresholds are not here:
// they live in the policy document so they can be reloaded and audited.
type Config struct {
	Backend    Backend
	StateDir   string
	PolicyPath string

	Postgres PostgresConfig
	Redis    RedisConfig
	S3       S3Config
	Kafka    KafkaConfig
	Prover   ProverConfig

	PushgatewayURL string
	HTTPAddr       string
	JWTSigningKey  string

	LogLevel  string
	LogFormat string
}

// PostgresConfig configures the document database.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	URL          string
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// S3Config configures the object-store backend.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// KafkaConfig configures the optional action-log stream.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ProverConfig selects the verifiable-computation engine adapter.
type ProverConfig struct {
	// Mode is "local" (in-process reference), "exec" (external command) or
	// "none" (skip proving).
	Mode    string
	Command []string
	Timeout time.Duration
}

// FromEnv builds a Config from RESERVEGUARD_* environment variables so main
// stays lean.
func FromEnv() Config {
	return Config{
		Backend:    Backend(getenv("RESERVEGUARD_BACKEND", string(BackendFile))),
		StateDir:   getenv("RESERVEGUARD_STATE_DIR", "."),
		PolicyPath: getenv("RESERVEGUARD_POLICY", "policy.toml"),
		Postgres: PostgresConfig{
			DSN:             os.Getenv("RESERVEGUARD_POSTGRES_DSN"),
			MaxOpenConns:    getint("RESERVEGUARD_POSTGRES_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getint("RESERVEGUARD_POSTGRES_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getduration("RESERVEGUARD_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("RESERVEGUARD_REDIS_URL"),
			KeyPrefix:    getenv("RESERVEGUARD_REDIS_KEY_PREFIX", "reserveguard:doc:"),
			PoolSize:     getint("RESERVEGUARD_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("RESERVEGUARD_REDIS_MIN_IDLE_CONNS", 1),
			DialTimeout:  getduration("RESERVEGUARD_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("RESERVEGUARD_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("RESERVEGUARD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		S3: S3Config{
			Endpoint:  os.Getenv("RESERVEGUARD_S3_ENDPOINT"),
			AccessKey: os.Getenv("RESERVEGUARD_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("RESERVEGUARD_S3_SECRET_KEY"),
			Bucket:    getenv("RESERVEGUARD_S3_BUCKET", "reserveguard"),
			Prefix:    os.Getenv("RESERVEGUARD_S3_PREFIX"),
			UseSSL:    os.Getenv("RESERVEGUARD_S3_USE_SSL") == "true",
		},
		Kafka: KafkaConfig{
			Brokers: getlist("RESERVEGUARD_KAFKA_BROKERS"),
			Topic:   getenv("RESERVEGUARD_KAFKA_TOPIC", "reserveguard.action-logs"),
		},
		Prover: ProverConfig{
			Mode:    getenv("RESERVEGUARD_PROVER", "local"),
			Command: strings.Fields(os.Getenv("RESERVEGUARD_PROVER_COMMAND")),
			Timeout: getduration("RESERVEGUARD_PROVER_TIMEOUT", 10*time.Minute),
		},
		PushgatewayURL: os.Getenv("RESERVEGUARD_PUSHGATEWAY_URL"),
		HTTPAddr:       getenv("RESERVEGUARD_ADDR", ":8080"),
		// No default: admin routes refuse every token when the key is empty.
		JWTSigningKey: os.Getenv("RESERVEGUARD_JWT_SIGNING_KEY"),
		LogLevel:      getenv("RESERVEGUARD_LOG_LEVEL", "info"),
		LogFormat:     getenv("RESERVEGUARD_LOG_FORMAT", "text"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getlist(key string) []string {
	return pstrings.SplitList(os.Getenv(key), ",")
}
