// Package config loads wayfarer's layered configuration: struct defaults,
// then an optional YAML file, then WAYFARER_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/wayfarer/wayfarer/internal/validation"
)

// DefaultArtifactFile is the artifact name looked up under storage.data_dir
// when recommend.artifact_path is unset.
const DefaultArtifactFile = "similarity.json"

// EnvPrefix is the prefix shared by every environment override.
const EnvPrefix = "WAYFARER_"

// PathEnvVar names the environment variable that selects the config file.
const PathEnvVar = EnvPrefix + "CONFIG"

// DefaultPaths are searched in order when no explicit path is given.
var DefaultPaths = []string{
	"wayfarer.yaml",
	"wayfarer.yml",
	"/etc/wayfarer/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Accounts  AccountsConfig  `koanf:"accounts"`
	Session   SessionConfig   `koanf:"session"`
	Recommend RecommendConfig `koanf:"recommend"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Logging   LoggingConfig   `koanf:"logging"`
	Alerts    AlertsConfig    `koanf:"alerts"`
}

type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	TLSCert           string        `koanf:"tls_cert"`
	TLSKey            string        `koanf:"tls_key"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gte=0"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

// Addr is the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TLSEnabled reports whether both halves of a key pair were configured.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCert != "" && s.TLSKey != ""
}

type StorageConfig struct {
	DataDir string `koanf:"data_dir"`
}

type AccountsConfig struct {
	// HashProfile selects the argon2id cost for new password hashes.
	HashProfile string `koanf:"hash_profile" validate:"oneof=interactive moderate sensitive"`
}

type SessionConfig struct {
	// Lifetime is measured from login; sessions are never extended.
	Lifetime   time.Duration `koanf:"lifetime"`
	Persistent bool          `koanf:"persistent"`
}

type RecommendConfig struct {
	// ArtifactPath defaults to DefaultArtifactFile inside storage.data_dir.
	ArtifactPath string `koanf:"artifact_path"`
	DefaultTopN  int    `koanf:"default_topn" validate:"min=1"`
}

type RateLimitConfig struct {
	// AuthPerMinute bounds signup and login attempts per client IP. Zero disables.
	AuthPerMinute int `koanf:"auth_per_minute" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type AlertsConfig struct {
	// WebhookURL receives security alerts as JSON. Empty disables delivery.
	WebhookURL        string `koanf:"webhook_url" validate:"omitempty,url"`
	WebhookAuthHeader string `koanf:"webhook_auth_header"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "",
			Port:              8080,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Accounts: AccountsConfig{
			HashProfile: "moderate",
		},
		Session: SessionConfig{
			Lifetime:   time.Hour,
			Persistent: true,
		},
		Recommend: RecommendConfig{
			DefaultTopN: 5,
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Artifact returns the similarity artifact path, falling back to
// DefaultArtifactFile under the data directory.
func (c *Config) Artifact() string {
	if c.Recommend.ArtifactPath != "" {
		return c.Recommend.ArtifactPath
	}
	return filepath.Join(c.Storage.DataDir, DefaultArtifactFile)
}

// Default returns the built-in configuration without consulting files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration. An explicit path must exist; otherwise the
// file named by WAYFARER_CONFIG or the first of DefaultPaths is used when
// present.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
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

// Validate checks field constraints and the relationships between fields.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return errors.New("server.tls_cert and server.tls_key must be set together")
	}
	if c.Session.Lifetime < time.Minute {
		return fmt.Errorf("session.lifetime must be at least 1m, got %s", c.Session.Lifetime)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps WAYFARER_SERVER_TLS_CERT to server.tls_cert. The first segment
// after the prefix names the section; the rest is the field. Keys without a
// section are ignored.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok || section == "" || field == "" {
		return ""
	}
	return section + "." + field
}
