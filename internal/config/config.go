package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBDriver   string
	DBURL      string
	DBMaxConns int32
	SQLitePath string

	JWTSecret string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	BasePath           string
	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	OTELEndpoint    string
	OTELServiceName string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside dev/test")

// Load reads configuration from the environment. A .env file in the working
// directory is picked up first when present; real env vars win over it.
// APP_ENV defaults to prod, so local runs opt into dev explicitly.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "prod"),
		Port: getEnvInt("PORT", 8080),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBURL:      buildDBURL(),
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 5)),
		SQLitePath: getEnv("SQLITE_PATH", "storefront.db"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		BasePath:           getEnv("API_BASE_PATH", "/api"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTELEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "storefront-api"),
	}
}

// Validate catches settings the process must not start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" && !c.isLocal() {
		return ErrMissingJWTSecret
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	return nil
}

// SigningSecret returns the configured secret. Only an explicit dev or test
// environment falls back to a fixed value; elsewhere Validate has already
// refused an empty secret.
func (c Config) SigningSecret() string {
	if c.JWTSecret != "" || !c.isLocal() {
		return c.JWTSecret
	}

	return "dev-only-insecure-secret"
}

func (c Config) isLocal() bool {
	return c.Env == "dev" || c.Env == "test"
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "storefront")
	pass := getEnv("DB_PASSWORD", "storefront")
	name := getEnv("DB_NAME", "storefront")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
