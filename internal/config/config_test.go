package config

import (
	"os"
	"testing"
	"time"
)

var envVars = []string{
	"APP_ENV", "DEBUG", "LOG_LEVEL", "HEALTH_ADDR",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_MIGRATIONS_PATH",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"REQUEST_RETENTION", "SWEEP_INTERVAL", "SUGGESTION_LIMIT", "SUGGESTION_REGEN_LIMIT",
	"SUGGESTION_REGEN_WINDOW", "FRIEND_LIST_CACHE_TTL", "NOTIFICATIONS_ENABLED", "NOTIFICATION_STREAM",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		if old, ok := os.LookupEnv(v); ok {
			os.Unsetenv(v)
			t.Cleanup(func() { os.Setenv(v, old) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Environment != "development" {
		t.Errorf("expected App.Environment development, got %s", cfg.App.Environment)
	}
	if cfg.App.Debug {
		t.Error("expected App.Debug to be false")
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.App.LogLevel)
	}
	if cfg.App.HealthAddr != ":8081" {
		t.Errorf("expected health addr :8081, got %s", cfg.App.HealthAddr)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("unexpected database address %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.MigrationsPath != "migrations" {
		t.Errorf("expected migrations path, got %s", cfg.Database.MigrationsPath)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Errorf("expected redis addr localhost:6379, got %s", cfg.Redis.Addr())
	}
	if cfg.Relationships.RequestRetention != 30*24*time.Hour {
		t.Errorf("expected 30 day retention, got %s", cfg.Relationships.RequestRetention)
	}
	if cfg.Relationships.SweepInterval != time.Hour {
		t.Errorf("expected hourly sweep, got %s", cfg.Relationships.SweepInterval)
	}
	if cfg.Relationships.SuggestionLimit != 20 {
		t.Errorf("expected suggestion limit 20, got %d", cfg.Relationships.SuggestionLimit)
	}
	if cfg.Relationships.SuggestionRegenLimit != 5 || cfg.Relationships.SuggestionRegenWindow != time.Hour {
		t.Errorf("unexpected regen limit %d/%s", cfg.Relationships.SuggestionRegenLimit, cfg.Relationships.SuggestionRegenWindow)
	}
	if !cfg.Relationships.NotificationsEnabled {
		t.Error("expected notifications enabled by default")
	}
	if cfg.Relationships.NotificationStream != "notifications" {
		t.Errorf("unexpected stream %s", cfg.Relationships.NotificationStream)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEBUG", "true")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REQUEST_RETENTION", "168h")
	t.Setenv("SUGGESTION_LIMIT", "12")
	t.Setenv("NOTIFICATIONS_ENABLED", "false")
	t.Setenv("HEALTH_ADDR", "off")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.HealthAddr != "" {
		t.Errorf("expected probe server disabled, got %q", cfg.App.HealthAddr)
	}
	if cfg.App.LogLevel != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.App.LogLevel)
	}
	if cfg.App.Environment != "production" || !cfg.App.Debug {
		t.Errorf("unexpected app config %+v", cfg.App)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6543 {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("expected redis db 3, got %d", cfg.Redis.DB)
	}
	if cfg.Relationships.RequestRetention != 7*24*time.Hour {
		t.Errorf("expected 168h retention, got %s", cfg.Relationships.RequestRetention)
	}
	if cfg.Relationships.SuggestionLimit != 12 {
		t.Errorf("expected suggestion limit 12, got %d", cfg.Relationships.SuggestionLimit)
	}
	if cfg.Relationships.NotificationsEnabled {
		t.Error("expected notifications disabled")
	}
}

func TestLoad_RejectsInvalidRetention(t *testing.T) {
	clearEnv(t)
	t.Setenv("REQUEST_RETENTION", "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero retention")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 1, DBName: "n", SSLMode: "disable"}
	want := "postgres://u:p@h:1/n?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
