package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Ticketing  TicketingConfig
	Completion CompletionConfig
	Locking    LockingConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	MaxUploadBytes        int
	AuditQueueSize        int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	// StaffAccounts maps usernames to bcrypt hashes. Empty disables authentication.
	StaffAccounts map[string]string
}

// Enabled reports whether staff login is required.
func (a AuthConfig) Enabled() bool {
	return len(a.StaffAccounts) > 0
}

// TicketingConfig points at the ticketing REST API.
type TicketingConfig struct {
	URL                string
	Token              string
	InsecureSkipVerify bool
	TimeoutSeconds     int
	SupportAddress     string
	DefaultGroup       string
}

// Timeout returns the per-call timeout.
func (t TicketingConfig) Timeout() time.Duration {
	return secondsOrDefault(t.TimeoutSeconds, 30)
}

// CompletionConfig configures generative-text providers.
type CompletionConfig struct {
	EdenAPIKey       string
	EdenBaseURL      string
	ProvidersFile    string
	DefaultModel     string
	ResponseLanguage string
	TimeoutSeconds   int
}

// Timeout returns the per-call timeout for providers.
func (c CompletionConfig) Timeout() time.Duration {
	return secondsOrDefault(c.TimeoutSeconds, 90)
}

// LockingConfig bounds the find-or-create serialization locks.
type LockingConfig struct {
	TTLSeconds  int
	WaitSeconds int
}

// TTL returns how long a lock is held at most.
func (l LockingConfig) TTL() time.Duration {
	return secondsOrDefault(l.TTLSeconds, 30)
}

// Wait returns how long to wait for a contended lock.
func (l LockingConfig) Wait() time.Duration {
	return secondsOrDefault(l.WaitSeconds, 10)
}

// Load reads configuration from environment variables, applying defaults where possible.
// Extra env files are loaded before the default .env.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	staff, err := ParseStaffAccounts(os.Getenv("AUTH_STAFF_ACCOUNTS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-assistant"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 120),
			MaxUploadBytes:        getEnvAsInt("HTTP_MAX_UPLOAD_BYTES", 10*1024*1024),
			AuditQueueSize:        getEnvAsInt("AUDIT_QUEUE_SIZE", 256),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			StaffAccounts:         staff,
		},
		Ticketing: TicketingConfig{
			URL:                strings.TrimRight(os.Getenv("ZAMMAD_API_URL"), "/"),
			Token:              os.Getenv("ZAMMAD_API_TOKEN"),
			InsecureSkipVerify: getEnvAsBool("ZAMMAD_TLS_INSECURE", true),
			TimeoutSeconds:     getEnvAsInt("ZAMMAD_TIMEOUT_SECONDS", 30),
			SupportAddress:     getEnv("ZAMMAD_SUPPORT_ADDRESS", "support@example.com"),
			DefaultGroup:       getEnv("ZAMMAD_DEFAULT_GROUP", "Support"),
		},
		Completion: CompletionConfig{
			EdenAPIKey:       os.Getenv("EDEN_AI_API_KEY"),
			EdenBaseURL:      getEnv("EDEN_AI_BASE_URL", "https://api.edenai.run/v2"),
			ProvidersFile:    os.Getenv("COMPLETION_PROVIDERS_FILE"),
			DefaultModel:     getEnv("COMPLETION_DEFAULT_MODEL", "openai"),
			ResponseLanguage: getEnv("COMPLETION_RESPONSE_LANGUAGE", "German"),
			TimeoutSeconds:   getEnvAsInt("COMPLETION_TIMEOUT_SECONDS", 90),
		},
		Locking: LockingConfig{
			TTLSeconds:  getEnvAsInt("LOCK_TTL_SECONDS", 30),
			WaitSeconds: getEnvAsInt("LOCK_WAIT_SECONDS", 10),
		},
	}

	return cfg, nil
}

// ParseStaffAccounts parses "user:bcrypt-hash;user2:hash" pairs.
func ParseStaffAccounts(raw string) (map[string]string, error) {
	accounts := map[string]string{}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, hash, ok := strings.Cut(entry, ":")
		user = strings.TrimSpace(user)
		hash = strings.TrimSpace(hash)
		if !ok || user == "" || hash == "" {
			return nil, fmt.Errorf("invalid AUTH_STAFF_ACCOUNTS entry %q", entry)
		}
		accounts[user] = hash
	}
	return accounts, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
