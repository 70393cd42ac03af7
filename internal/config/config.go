package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUrl      string `env:"DB_URL"`
	RedisURL   string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	JWTSecret  string `env:"JWT_SECRET"`
	AppEnv     string `env:"APP_ENV" envDefault:"production"`
	EnableDocs bool   `env:"ENABLE_API_DOCS" envDefault:"false"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// PublicURL is the origin meeting links are built on.
	PublicURL   string `env:"VITE_API_URL" envDefault:"http://localhost:5173"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaOrderTopic string   `env:"KAFKA_ORDER_TOPIC" envDefault:"freakyfit.orders"`

	DBPool   DBPoolConfig
	Zego     ZegoConfig
	Razorpay RazorpayConfig
	Google   GoogleConfig
}

// DBPoolConfig sizes the Postgres pool. Requests hold a connection for one
// short query at a time, so the pool stays small.
type DBPoolConfig struct {
	MaxConns          int32         `env:"DB_MAX_CONNS" envDefault:"16"`
	MinConns          int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"30s"`
	ConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
}

// ZegoConfig carries the video SDK credentials. Both values are required but
// their absence is reported by Validate rather than by Load.
type ZegoConfig struct {
	AppID        uint32        `env:"ZEGO_APP_ID"`
	ServerSecret string        `env:"ZEGO_SERVER_SECRET"`
	TokenTTL     time.Duration `env:"ZEGO_TOKEN_TTL" envDefault:"1h"`
}

type RazorpayConfig struct {
	KeyID     string `env:"RAZORPAY_KEY_ID"`
	KeySecret string `env:"RAZORPAY_KEY_SECRET"`
	BaseURL   string `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com"`
	Currency  string `env:"PAYMENT_CURRENCY" envDefault:"INR"`
	Merchant  string `env:"PAYMENT_MERCHANT_NAME" envDefault:"Freaky Fit"`
	Theme     string `env:"PAYMENT_THEME_COLOR" envDefault:"#F37254"`
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	// The client bundle exposes the key under its build-time name.
	if cfg.Razorpay.KeyID == "" {
		if key, ok := lookupEnv(opts, "NEXT_PUBLIC_RAZORPAY_KEY_ID"); ok {
			cfg.Razorpay.KeyID = key
		}
	}

	cfg.AppEnv = normalizeEnv(cfg.AppEnv)
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &cfg, nil
}

// Validate reports every missing video credential on its own log line and
// returns false if any is absent. It never aborts; callers decide whether the
// gap is fatal.
func (c *Config) Validate(logger *zap.Logger) bool {
	ok := true
	if c.Zego.AppID == 0 {
		logger.Warn("missing video credential", zap.String("env", "ZEGO_APP_ID"))
		ok = false
	}
	if strings.TrimSpace(c.Zego.ServerSecret) == "" {
		logger.Warn("missing video credential", zap.String("env", "ZEGO_SERVER_SECRET"))
		ok = false
	}
	return ok
}

func lookupEnv(opts env.Options, key string) (string, bool) {
	if opts.Environment != nil {
		value, ok := opts.Environment[key]
		return value, ok
	}
	return os.LookupEnv(key)
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

func (c *Config) KafkaEnabled() bool {
	return c != nil && len(c.KafkaBrokers) > 0
}
