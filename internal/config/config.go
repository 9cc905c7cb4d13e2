package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"storefront/internal/schedule"
)

// Transition policies for admin status updates.
const (
	TransitionsFree   = "free"
	TransitionsStrict = "strict"
)

type Config struct {
	Env      string
	HTTPAddr string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisAddr    string
	KafkaBrokers []string
	OrderTopic   string

	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	Schedule      schedule.Policy
	Transitions   string
	PublicBaseURL string
}

// Load reads configuration from the environment, after loading .env when
// one is present in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Env:           getEnv("ENV", "development"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "root"),
		DBPass:        os.Getenv("DB_PASS"),
		DBName:        getEnv("DB_NAME", "storefront"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		OrderTopic:    getEnv("ORDER_TOPIC", "order-topic"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Transitions:   getEnv("STATUS_TRANSITIONS", TransitionsFree),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret"
	}

	if cfg.Transitions != TransitionsFree && cfg.Transitions != TransitionsStrict {
		return nil, fmt.Errorf("STATUS_TRANSITIONS must be %q or %q, got %q", TransitionsFree, TransitionsStrict, cfg.Transitions)
	}

	loc, err := time.LoadLocation(getEnv("STORE_TIMEZONE", "Asia/Manila"))
	if err != nil {
		return nil, fmt.Errorf("STORE_TIMEZONE: %w", err)
	}
	cutoff, err := schedule.ParseCutoff(getEnv("ORDER_CUTOFF", "08:30"))
	if err != nil {
		return nil, fmt.Errorf("ORDER_CUTOFF: %w", err)
	}
	cfg.Schedule = schedule.NewPolicy(loc, cutoff)

	return cfg, nil
}

// DSN is the MySQL data source name. parseTime is required for DATE and
// DATETIME columns to scan into time.Time.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
