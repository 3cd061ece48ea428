package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Log       LogConfig
	Tracing   TracingConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	PublicGRPCAddr     string
	InternalGRPCAddr   string
	HTTPAddr           string
	MetricsAddr        string
	CORSAllowedOrigins []string
	// GuardRedirectURL is where HTTP callers are sent when the guard denies
	// them. Empty means respond 403.
	GuardRedirectURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
}

type AuthConfig struct {
	SecretKey string
	TokenTTL  time.Duration
}

type LogConfig struct {
	File   string
	Level  string
	Stdout bool
}

type TracingConfig struct {
	// OTLPEndpoint empty disables tracing export.
	OTLPEndpoint string
	ServiceName  string
}

// BootstrapConfig seeds the first practice manager on startup. An empty
// Email skips seeding.
type BootstrapConfig struct {
	Email      string
	Password   string
	PracticeID string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("GRPC_PUBLIC_ADDR", ":50054")
	v.SetDefault("GRPC_INTERNAL_ADDR", ":50055")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("GUARD_REDIRECT_URL", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "myvetstudy")
	v.SetDefault("DB_NAME", "myvetstudy")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")

	v.SetDefault("TOKEN_TTL", time.Hour)

	v.SetDefault("LOG_FILE", "/var/log/myvetstudy.log")
	v.SetDefault("LOG_STDOUT", false)

	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("SERVICE_NAME", "myvetstudy-permissions")

	v.SetDefault("BOOTSTRAP_PRACTICE_ID", "default")
}

// Load reads configuration from the environment. Variables loaded from a
// .env file beforehand are picked up the same way.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	secretKey := v.GetString("SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	env := strings.ToLower(v.GetString("ENV"))

	level := v.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
		if env == "dev" {
			level = "debug"
		}
	}

	ttl := v.GetDuration("TOKEN_TTL")
	if ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", ttl)
	}

	return &Config{
		Env: env,
		Server: ServerConfig{
			PublicGRPCAddr:     v.GetString("GRPC_PUBLIC_ADDR"),
			InternalGRPCAddr:   v.GetString("GRPC_INTERNAL_ADDR"),
			HTTPAddr:           v.GetString("HTTP_ADDR"),
			MetricsAddr:        v.GetString("METRICS_ADDR"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			GuardRedirectURL:   v.GetString("GUARD_REDIRECT_URL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Auth: AuthConfig{
			SecretKey: secretKey,
			TokenTTL:  ttl,
		},
		Log: LogConfig{
			File:   v.GetString("LOG_FILE"),
			Level:  level,
			Stdout: v.GetBool("LOG_STDOUT"),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: v.GetString("OTLP_ENDPOINT"),
			ServiceName:  v.GetString("SERVICE_NAME"),
		},
		Bootstrap: BootstrapConfig{
			Email:      v.GetString("BOOTSTRAP_EMAIL"),
			Password:   v.GetString("BOOTSTRAP_PASSWORD"),
			PracticeID: v.GetString("BOOTSTRAP_PRACTICE_ID"),
		},
	}, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Name, c.Password, c.SSLMode)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
