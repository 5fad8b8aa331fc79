package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Relationships RelationshipsConfig
}

type AppConfig struct {
	Environment string // "development", "production", "test"
	Debug       bool
	LogLevel    string // debug, info, warn, error; DEBUG=true forces debug
	HealthAddr  string // probe server listen address; empty when disabled
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RelationshipsConfig tunes the friend subsystem.
type RelationshipsConfig struct {
	RequestRetention      time.Duration // terminal requests older than this are swept
	SweepInterval         time.Duration
	SuggestionLimit       int
	SuggestionRegenLimit  int // regenerations per user per window
	SuggestionRegenWindow time.Duration
	FriendListCacheTTL    time.Duration
	NotificationsEnabled  bool
	NotificationStream    string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

var defaults = map[string]interface{}{
	"APP_ENV":     "development",
	"DEBUG":       false,
	"LOG_LEVEL":   "info",
	"HEALTH_ADDR": ":8081",

	"DB_HOST":            "localhost",
	"DB_PORT":            5432,
	"DB_USER":            "friendgraph",
	"DB_PASSWORD":        "friendgraph",
	"DB_NAME":            "friendgraph",
	"DB_SSLMODE":         "disable",
	"DB_MIGRATIONS_PATH": "migrations",

	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"REQUEST_RETENTION":       30 * 24 * time.Hour,
	"SWEEP_INTERVAL":          time.Hour,
	"SUGGESTION_LIMIT":        20,
	"SUGGESTION_REGEN_LIMIT":  5,
	"SUGGESTION_REGEN_WINDOW": time.Hour,
	"FRIEND_LIST_CACHE_TTL":   15 * time.Minute,
	"NOTIFICATIONS_ENABLED":   true,
	"NOTIFICATION_STREAM":     "notifications",
}

func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Environment: v.GetString("APP_ENV"),
			Debug:       v.GetBool("DEBUG"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			HealthAddr:  v.GetString("HEALTH_ADDR"),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetInt("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			DBName:         v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			MigrationsPath: v.GetString("DB_MIGRATIONS_PATH"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Relationships: RelationshipsConfig{
			RequestRetention:      v.GetDuration("REQUEST_RETENTION"),
			SweepInterval:         v.GetDuration("SWEEP_INTERVAL"),
			SuggestionLimit:       v.GetInt("SUGGESTION_LIMIT"),
			SuggestionRegenLimit:  v.GetInt("SUGGESTION_REGEN_LIMIT"),
			SuggestionRegenWindow: v.GetDuration("SUGGESTION_REGEN_WINDOW"),
			FriendListCacheTTL:    v.GetDuration("FRIEND_LIST_CACHE_TTL"),
			NotificationsEnabled:  v.GetBool("NOTIFICATIONS_ENABLED"),
			NotificationStream:    v.GetString("NOTIFICATION_STREAM"),
		},
	}

	if strings.EqualFold(cfg.App.HealthAddr, "off") {
		cfg.App.HealthAddr = ""
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Relationships.RequestRetention <= 0 {
		return fmt.Errorf("REQUEST_RETENTION must be positive, got %s", c.Relationships.RequestRetention)
	}
	if c.Relationships.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.Relationships.SweepInterval)
	}
	if c.Relationships.SuggestionLimit <= 0 {
		return fmt.Errorf("SUGGESTION_LIMIT must be positive, got %d", c.Relationships.SuggestionLimit)
	}
	return nil
}
