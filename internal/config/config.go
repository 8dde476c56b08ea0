package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                    string   `mapstructure:"PORT"`
	Env                     string   `mapstructure:"ENV"`
	DatabaseURL             string   `mapstructure:"DATABASE_URL"`
	DBMaxConns              int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns              int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL                string   `mapstructure:"REDIS_URL"`
	RecommenderURL          string   `mapstructure:"RECOMMENDER_URL"`
	RecommenderAPIKey       string   `mapstructure:"RECOMMENDER_API_KEY"`
	RecommenderTimeoutMS    int      `mapstructure:"RECOMMENDER_TIMEOUT_MS"`
	MessagingWebhookURL     string   `mapstructure:"MESSAGING_WEBHOOK_URL"`
	MessagingWebhookSecret  string   `mapstructure:"MESSAGING_WEBHOOK_SECRET"`
	JWTSigningKey           string   `mapstructure:"JWT_SIGNING_KEY"`
	ClinicName              string   `mapstructure:"CLINIC_NAME"`
	CORSOrigins             []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS            float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst          int      `mapstructure:"RATE_LIMIT_BURST"`
	TemplateCacheTTLSeconds int      `mapstructure:"TEMPLATE_CACHE_TTL_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("RECOMMENDER_TIMEOUT_MS", 5000)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("TEMPLATE_CACHE_TTL_SECONDS", 300)
	v.SetDefault("CLINIC_NAME", "CareNote Clinic")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("RECOMMENDER_URL")
	v.BindEnv("RECOMMENDER_API_KEY")
	v.BindEnv("RECOMMENDER_TIMEOUT_MS")
	v.BindEnv("MESSAGING_WEBHOOK_URL")
	v.BindEnv("MESSAGING_WEBHOOK_SECRET")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("CLINIC_NAME")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TEMPLATE_CACHE_TTL_SECONDS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get provider access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT signing key must be present so real authentication is enforced, and
// the share pipeline needs a messaging webhook secret whenever a webhook URL
// is configured.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required when ENV is not development")
	}
	if c.MessagingWebhookURL != "" && c.MessagingWebhookSecret == "" {
		return fmt.Errorf("MESSAGING_WEBHOOK_SECRET is required when MESSAGING_WEBHOOK_URL is set")
	}
	if c.RecommenderTimeoutMS <= 0 {
		return fmt.Errorf("RECOMMENDER_TIMEOUT_MS must be positive, got %d", c.RecommenderTimeoutMS)
	}
	return nil
}
