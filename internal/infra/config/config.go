package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Auth      AuthSettings      `mapstructure:"auth"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Import    ImportSettings    `mapstructure:"import"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// DSN renders the connection string. The guest-import dedupe set is scoped by
// a hash of this value, so two environments with different DSNs never share
// import state.
func (s PostgresSettings) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User,
		s.Password,
		s.Host,
		s.Port,
		s.Database,
		s.SSLMode,
	)
}

// RedisSettings configures Redis connection, TLS and key prefixes
type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
	DedupePrefix    string `mapstructure:"dedupe_prefix"`
}

// KafkaSettings configures the Kafka producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// AuthSettings configures bearer-token verification. Token issuance happens
// elsewhere; this service only validates.
type AuthSettings struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitSettings configures fixed-window quotas per guarded action
type RateLimitSettings struct {
	ChatMaxRequests int           `mapstructure:"chat_max_requests"`
	ChatWindow      time.Duration `mapstructure:"chat_window"`
	RSVPMaxAttempts int           `mapstructure:"rsvp_max_attempts"`
	RSVPWindow      time.Duration `mapstructure:"rsvp_window"`
}

// ImportSettings configures the guest-import CLI defaults
type ImportSettings struct {
	Delimiter string `mapstructure:"delimiter"`
	Trim      bool   `mapstructure:"trim"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("WEDDING")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.rate_limit_prefix",
		"redis.dedupe_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"auth.jwt_secret",
		"rate_limit.chat_max_requests",
		"rate_limit.chat_window",
		"rate_limit.rsvp_max_attempts",
		"rate_limit.rsvp_window",
		"import.delimiter",
		"import.trim",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wedding-platform-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "wedding")
	v.SetDefault("postgres.password", "wedding_password")
	v.SetDefault("postgres.database", "wedding")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.rate_limit_prefix", "wedding:rate-limit")
	v.SetDefault("redis.dedupe_prefix", "wedding:guest-import")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "wedding")
	v.SetDefault("kafka.async", true)

	v.SetDefault("auth.jwt_secret", "")

	// The chatbot quota mirrors the site's per-user hourly allowance.
	v.SetDefault("rate_limit.chat_max_requests", 20)
	v.SetDefault("rate_limit.chat_window", "1h")
	v.SetDefault("rate_limit.rsvp_max_attempts", 10)
	v.SetDefault("rate_limit.rsvp_window", "1m")

	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.trim", true)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "WEDDING_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
