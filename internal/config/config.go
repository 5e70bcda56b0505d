package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	MarketDataBaseURL string        `env:"MARKET_DATA_BASE_URL" envDefault:"http://dev.markitondemand.com/MODApis/Api/v2"`
	MarketDataTimeout time.Duration `env:"MARKET_DATA_TIMEOUT" envDefault:"5s"`
	MarketDataRPS     float64       `env:"MARKET_DATA_RPS" envDefault:"5"`
	QuoteCacheTTL     time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"15s"`
	LookupCacheTTL    time.Duration `env:"LOOKUP_CACHE_TTL" envDefault:"10m"`

	RecallWindow      time.Duration `env:"RECALL_WINDOW" envDefault:"24h"`
	LookupRetention   time.Duration `env:"LOOKUP_RETENTION" envDefault:"720h"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"1h"`

	SenderRateLimitPerMinute int           `env:"SENDER_RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	SenderLockTTL            time.Duration `env:"SENDER_LOCK_TTL" envDefault:"10s"`

	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioWebhookURL string `env:"TWILIO_WEBHOOK_URL"`

	JWTSecret     string `env:"JWT_SECRET"`
	JWTTTLMinutes int    `env:"JWT_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

var (
	ErrInvalidRecallWindow = errors.New("recall window must be positive")
	ErrInvalidRetention    = errors.New("lookup retention must be zero or at least the recall window")
	ErrInvalidTimeout      = errors.New("market data timeout must be positive")
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones de valores que env no puede expresar.
func (c *Config) Validate() error {
	if c.RecallWindow <= 0 {
		return ErrInvalidRecallWindow
	}
	if c.LookupRetention != 0 && c.LookupRetention < c.RecallWindow {
		return ErrInvalidRetention
	}
	if c.MarketDataTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
