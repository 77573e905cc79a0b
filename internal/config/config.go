package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Auth      AuthConfig
	OAuth     OAuthConfig
	Slack     SlackConfig
	RateLimit RateLimitConfig
	Link      LinkConfig
	Track     TrackConfig
}

type AppConfig struct {
	Env       string
	Port      string
	PublicURL string
	// Extra hostnames (beyond PublicURL's own) treated as our domain
	// by the loop-protection check.
	DomainAliases []string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	BasicUser     string
	BasicPassword string
}

type OAuthConfig struct {
	HackClubClientID     string
	HackClubClientSecret string
	GitHubClientID       string
	GitHubClientSecret   string
}

type SlackConfig struct {
	WebhookURL string
}

type RateLimitConfig struct {
	Requests int
	Duration time.Duration
}

type LinkConfig struct {
	ShortCodeLength int
	CacheTTL        time.Duration
}

type TrackConfig struct {
	GeoBaseURL string
	GeoTimeout time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file (optional, env vars take precedence)
	_ = viper.ReadInConfig()

	cfg := &Config{
		App: AppConfig{
			Env:           viper.GetString("APP_ENV"),
			Port:          viper.GetString("APP_PORT"),
			PublicURL:     viper.GetString("PUBLIC_URL"),
			DomainAliases: viper.GetStringSlice("DOMAIN_ALIASES"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetString("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			MaxConns: viper.GetInt("POSTGRES_MAX_CONNS"),
			MinConns: viper.GetInt("POSTGRES_MIN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
		},
		Auth: AuthConfig{
			SessionSecret: viper.GetString("SESSION_SECRET"),
			SessionTTL:    viper.GetDuration("SESSION_TTL"),
			BasicUser:     viper.GetString("AUTH_BASIC_USER"),
			BasicPassword: viper.GetString("AUTH_BASIC_PASSWORD"),
		},
		OAuth: OAuthConfig{
			HackClubClientID:     viper.GetString("HACKCLUB_CLIENT_ID"),
			HackClubClientSecret: viper.GetString("HACKCLUB_CLIENT_SECRET"),
			GitHubClientID:       viper.GetString("GITHUB_CLIENT_ID"),
			GitHubClientSecret:   viper.GetString("GITHUB_CLIENT_SECRET"),
		},
		Slack: SlackConfig{
			WebhookURL: viper.GetString("SLACK_WEBHOOK_URL"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetDuration("RATE_LIMIT_DURATION"),
		},
		Link: LinkConfig{
			ShortCodeLength: viper.GetInt("SHORT_CODE_LENGTH"),
			CacheTTL:        viper.GetDuration("LINK_CACHE_TTL"),
		},
		Track: TrackConfig{
			GeoBaseURL: viper.GetString("GEO_BASE_URL"),
			GeoTimeout: viper.GetDuration("GEO_TIMEOUT"),
		},
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("PUBLIC_URL", "https://shawty.app")
	viper.SetDefault("DOMAIN_ALIASES", []string{"shawty.app", "www.shawty.app"})

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("POSTGRES_USER", "shawty")
	viper.SetDefault("POSTGRES_PASSWORD", "shawty")
	viper.SetDefault("POSTGRES_DB", "shawty")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 25)
	viper.SetDefault("POSTGRES_MIN_CONNS", 5)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 10)

	viper.SetDefault("SESSION_SECRET", "")
	viper.SetDefault("SESSION_TTL", "720h") // 30 days

	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", "1m")

	viper.SetDefault("SHORT_CODE_LENGTH", 6)
	viper.SetDefault("LINK_CACHE_TTL", "30s")

	viper.SetDefault("GEO_BASE_URL", "https://ipapi.co")
	viper.SetDefault("GEO_TIMEOUT", "1s")
}

func (c *PostgresConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}
