package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Roster    RosterConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type SessionConfig struct {
	Secret        string
	CookieName    string
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

type RosterConfig struct {
	SeedCount     int
	ActivityCount int
	PageSize      int
	LoadLatency   time.Duration
}

type RateLimitConfig struct {
	MutationsPerMinute int
}

// developmentSessionSecret signs cookies when SESSION_SECRET is unset outside production.
const developmentSessionSecret = "roster-development-session-signing-key"

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", ""),
			CookieName:    getEnv("SESSION_COOKIE_NAME", "roster_session"),
			IdleTimeout:   getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Roster: RosterConfig{
			SeedCount:     getEnvAsInt("ROSTER_SEED_COUNT", 50),
			ActivityCount: getEnvAsInt("ROSTER_ACTIVITY_COUNT", 5),
			PageSize:      getEnvAsInt("ROSTER_PAGE_SIZE", 10),
			LoadLatency:   getEnvAsDuration("ROSTER_LOAD_LATENCY", 800*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			MutationsPerMinute: getEnvAsInt("RATE_LIMIT_MUTATIONS_PER_MINUTE", 120),
		},
	}

	if cfg.Session.Secret == "" && env != "production" {
		cfg.Session.Secret = developmentSessionSecret
	}

	if err := validateSessionSecret(cfg.Session.Secret, env); err != nil {
		return nil, err
	}

	if cfg.Roster.SeedCount < 0 {
		return nil, fmt.Errorf("ROSTER_SEED_COUNT must not be negative (got %d)", cfg.Roster.SeedCount)
	}
	if cfg.Roster.PageSize < 1 {
		return nil, fmt.Errorf("ROSTER_PAGE_SIZE must be positive (got %d)", cfg.Roster.PageSize)
	}
	if cfg.Session.SweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive (got %s)", cfg.Session.SweepInterval)
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum standards for the cookie signing key
func validateSessionSecret(secret, env string) error {
	if secret == "" {
		return fmt.Errorf("SESSION_SECRET is required in %s environment", env)
	}

	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	if env == "production" && secret == developmentSessionSecret {
		return fmt.Errorf("SESSION_SECRET cannot be the development default in production")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if originsStr := getEnv("ALLOWED_ORIGINS", ""); originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	if env == "production" {
		return []string{}
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
