package lib

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{"config.yaml", "/etc/talentnest/config.yaml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	NATS     NATSConfig     `koanf:"nats"`
	API      APIConfig      `koanf:"api"`
}

type ServerConfig struct {
	Port         string   `koanf:"port" validate:"required,numeric"`
	RealtimeAddr string   `koanf:"realtime_addr" validate:"required"`
	AllowOrigins []string `koanf:"allow_origins"`
}

type DatabaseConfig struct {
	Driver            string        `koanf:"driver" validate:"oneof=mongo sqlite"`
	MongoURI          string        `koanf:"mongo_uri" validate:"required_if=Driver mongo"`
	MongoDatabase     string        `koanf:"mongo_database" validate:"required_if=Driver mongo"`
	MongoTransactions bool          `koanf:"mongo_transactions"`
	SQLitePath        string        `koanf:"sqlite_path" validate:"required_if=Driver sqlite"`
	ConnectTimeout    time.Duration `koanf:"connect_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret" validate:"required,min=8"`
	TokenTTL  time.Duration `koanf:"token_ttl" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// Embedded starts an in-process broker and ignores URL.
	Embedded      bool   `koanf:"embedded"`
	EmbeddedPort  int    `koanf:"embedded_port"`
	SubjectPrefix string `koanf:"subject_prefix" validate:"required"`
}

type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size" validate:"gt=0,ltefield=MaxPageSize"`
	MaxPageSize     int `koanf:"max_page_size" validate:"gt=0"`
	MaxSearchResult int `koanf:"max_search_results" validate:"gt=0"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "3000",
			RealtimeAddr: ":3001",
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver:         "mongo",
			MongoURI:       "mongodb://localhost:27017",
			MongoDatabase:  "talentnest",
			SQLitePath:     "./talentnest.db",
			ConnectTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			EmbeddedPort:  4222,
			SubjectPrefix: "talentnest.notify",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			MaxSearchResult: 20,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file and the environment,
// in that order, then validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "server.allow_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// splitList turns a comma separated env value into a slice.
func splitList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// envMappings covers the structured names plus the variables the service
// has always read (PORT, DB_PATH, JWT_SECRET, MONGODB_URI).
var envMappings = map[string]string{
	// Server
	"server_port":          "server.port",
	"port":                 "server.port",
	"server_realtime_addr": "server.realtime_addr",
	"server_allow_origins": "server.allow_origins",
	"cors_origins":         "server.allow_origins",

	// Database
	"database_driver":             "database.driver",
	"database_mongo_uri":          "database.mongo_uri",
	"mongodb_uri":                 "database.mongo_uri",
	"database_mongo_database":     "database.mongo_database",
	"database_mongo_transactions": "database.mongo_transactions",
	"database_sqlite_path":        "database.sqlite_path",
	"db_path":                     "database.sqlite_path",
	"database_connect_timeout":    "database.connect_timeout",

	// Auth
	"auth_jwt_secret": "auth.jwt_secret",
	"jwt_secret":      "auth.jwt_secret",
	"auth_token_ttl":  "auth.token_ttl",

	// Logging
	"log_level":  "log.level",
	"log_format": "log.format",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded",
	"nats_embedded_port":  "nats.embedded_port",
	"nats_subject_prefix": "nats.subject_prefix",

	// API
	"api_default_page_size":  "api.default_page_size",
	"api_max_page_size":      "api.max_page_size",
	"api_max_search_results": "api.max_search_results",
}

// envTransformFunc maps an environment variable to its config path. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
