// internal/config/config.go
package config

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload" // loads .env into the process environment when present
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"membership-service/pkg/db"
)

// EnvPrefix is stripped from environment variables before they become keys.
// MEMBERSHIP_DATABASE_MAX_OPEN_CONNS maps to database.max_open_conns.
const EnvPrefix = "MEMBERSHIP_"

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Log      LogConfig      `koanf:"log" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver" validate:"required,oneof=sqlite postgres"`
	DSN             string        `koanf:"dsn"`
	Path            string        `koanf:"path" validate:"required_if=Driver sqlite"`
	Host            string        `koanf:"host" validate:"required_if=Driver postgres"`
	Port            int           `koanf:"port" validate:"gte=0,lte=65535"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
	BusyTimeout     time.Duration `koanf:"busy_timeout" validate:"gte=0"`
	Isolation       string        `koanf:"isolation"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

// Defaults returns the configuration used for every key the environment does not set.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:           "8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver:          db.DriverSQLite,
			Path:            "membership.db",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			BusyTimeout:     5 * time.Second,
			Isolation:       "unspecified",
			MigrateOnStart:  true,
		},
	}
}

// LoadConfig loads configuration from defaults and MEMBERSHIP_ environment variables.
// It returns an AppConfig instance or an error if any value is missing or invalid.
func LoadConfig() (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	if _, err := cfg.Database.IsolationLevel(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// envKey turns MEMBERSHIP_SERVER_READ_TIMEOUT into server.read_timeout.
// Only the first underscore separates the section from the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// DBConfig converts the database section into the pool configuration.
func (c DatabaseConfig) DBConfig() db.Config {
	return db.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		Path:            c.Path,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		BusyTimeout:     c.BusyTimeout,
	}
}

// IsolationLevel is the level every request context is opened with.
func (c DatabaseConfig) IsolationLevel() (sql.IsolationLevel, error) {
	return db.ParseIsolationLevel(c.Isolation)
}
