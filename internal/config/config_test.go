package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// clearRosterEnv unsets every variable Load reads so tests start from defaults.
func clearRosterEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "ALLOWED_ORIGINS",
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"SESSION_SECRET", "SESSION_COOKIE_NAME", "SESSION_IDLE_TIMEOUT", "SESSION_SWEEP_INTERVAL",
		"ROSTER_SEED_COUNT", "ROSTER_ACTIVITY_COUNT", "ROSTER_PAGE_SIZE", "ROSTER_LOAD_LATENCY",
		"RATE_LIMIT_MUTATIONS_PER_MINUTE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearRosterEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port: got %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Env: got %q, want %q", cfg.Server.Env, "development")
	}
	if cfg.Session.CookieName != "roster_session" {
		t.Errorf("CookieName: got %q, want %q", cfg.Session.CookieName, "roster_session")
	}
	if cfg.Session.Secret != developmentSessionSecret {
		t.Errorf("Secret: got %q, want development default", cfg.Session.Secret)
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		t.Error("AllowedOrigins: want localhost defaults in development")
	}

	durations := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"SessionIdleTimeout", cfg.Session.IdleTimeout, 30 * time.Minute},
		{"SweepInterval", cfg.Session.SweepInterval, 5 * time.Minute},
		{"LoadLatency", cfg.Roster.LoadLatency, 800 * time.Millisecond},
	}
	for _, tt := range durations {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	ints := []struct {
		name     string
		actual   int
		expected int
	}{
		{"SeedCount", cfg.Roster.SeedCount, 50},
		{"ActivityCount", cfg.Roster.ActivityCount, 5},
		{"PageSize", cfg.Roster.PageSize, 10},
		{"MutationsPerMinute", cfg.RateLimit.MutationsPerMinute, 120},
	}
	for _, tt := range ints {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %d, want %d", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearRosterEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.example.com, https://ops.example.com")
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("ROSTER_SEED_COUNT", "200")
	t.Setenv("ROSTER_PAGE_SIZE", "25")
	t.Setenv("ROSTER_LOAD_LATENCY", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Port: got %q, want %q", cfg.Server.Port, "9090")
	}
	want := []string{"https://admin.example.com", "https://ops.example.com"}
	if strings.Join(cfg.Server.AllowedOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("AllowedOrigins: got %v, want %v", cfg.Server.AllowedOrigins, want)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout: got %v, want %v", cfg.Server.ReadTimeout, 30*time.Second)
	}
	if cfg.Roster.SeedCount != 200 {
		t.Errorf("SeedCount: got %d, want 200", cfg.Roster.SeedCount)
	}
	if cfg.Roster.PageSize != 25 {
		t.Errorf("PageSize: got %d, want 25", cfg.Roster.PageSize)
	}
	// Explicitly setting 0s should be honored (no simulated latency)
	if cfg.Roster.LoadLatency != 0 {
		t.Errorf("LoadLatency: got %v, want 0", cfg.Roster.LoadLatency)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearRosterEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")
	t.Setenv("ROSTER_SEED_COUNT", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout with invalid value: got %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
	if cfg.Roster.SeedCount != 50 {
		t.Errorf("SeedCount with invalid value: got %d, want 50", cfg.Roster.SeedCount)
	}
}

func TestLoad_RejectsInvalidRoster(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative seed count", "ROSTER_SEED_COUNT", "-1"},
		{"zero page size", "ROSTER_PAGE_SIZE", "0"},
		{"zero sweep interval", "SESSION_SWEEP_INTERVAL", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearRosterEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s: want error, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_ProductionRequiresSessionSecret(t *testing.T) {
	clearRosterEnv(t)
	t.Setenv("ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load() in production without SESSION_SECRET: want error, got nil")
	}

	t.Setenv("SESSION_SECRET", strings.Repeat("k", 32))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if len(cfg.Server.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins in production: got %v, want none", cfg.Server.AllowedOrigins)
	}
}

func TestValidateSessionSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"empty", "", "development", true},
		{"too short for development", "short", "development", true},
		{"long enough for development", "sixteen-chars-ok", "development", false},
		{"too short for production", "sixteen-chars-ok", "production", true},
		{"long enough for production", strings.Repeat("p", 32), "production", false},
		{"development default rejected", developmentSessionSecret, "production", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSessionSecret(tt.secret, tt.env)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSessionSecret(%q, %q) = %v, wantErr %v", tt.secret, tt.env, err, tt.wantErr)
			}
		})
	}
}
