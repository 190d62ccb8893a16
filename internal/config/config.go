// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Pool       PoolConfig       `mapstructure:"pool"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	DB         DBConfig         `mapstructure:"db"`
	Storage    StorageConfig    `mapstructure:"storage"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// PoolConfig governs credential selection and retirement policy.
type PoolConfig struct {
	MaxAttempts         int     `mapstructure:"max_attempts"`
	InvalidateThreshold int     `mapstructure:"invalidate_threshold"`
	OwnerRPS            float64 `mapstructure:"owner_rps"`
	OwnerBurst          int     `mapstructure:"owner_burst"`
}

// EngineConfig selects and configures the fetch engine.
type EngineConfig struct {
	Provider          string `mapstructure:"provider"`
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	SignerDir         string `mapstructure:"signer_dir"`
	SignerScript      string `mapstructure:"signer_script"`
	HeadlessParallel  int    `mapstructure:"headless_parallel"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
}

// SummarizerConfig configures the AI summarization capability.
type SummarizerConfig struct {
	Provider       string `mapstructure:"provider"`
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Provider        string `mapstructure:"provider"`
	DSN             string `mapstructure:"dsn"`
	CredentialTable string `mapstructure:"credential_table"`
	NoteTable       string `mapstructure:"note_table"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
}

// StorageConfig sets paths and content types for blob persistence.
type StorageConfig struct {
	Provider    string `mapstructure:"provider"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("XHSINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("pool.max_attempts", 3)
	v.SetDefault("pool.invalidate_threshold", 3)
	v.SetDefault("pool.owner_rps", 0)
	v.SetDefault("pool.owner_burst", 1)
	v.SetDefault("engine.provider", "colly")
	v.SetDefault("engine.user_agent", "xhsinsight/0.1")
	v.SetDefault("engine.timeout_seconds", 15)
	v.SetDefault("engine.signer_script", "signer.js")
	v.SetDefault("engine.headless_parallel", 1)
	v.SetDefault("engine.nav_timeout_seconds", 25)
	v.SetDefault("summarizer.provider", "noop")
	v.SetDefault("summarizer.model", "gemini-2.5-flash")
	v.SetDefault("summarizer.timeout_seconds", 30)
	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.credential_table", "credentials")
	v.SetDefault("db.note_table", "notes")
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.prefix", "notes")
	v.SetDefault("storage.content_type", "application/json")
	v.SetDefault("pubsub.provider", "memory")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Pool.MaxAttempts <= 0 {
		return fmt.Errorf("pool.max_attempts must be > 0")
	}
	if c.Pool.InvalidateThreshold <= 0 {
		return fmt.Errorf("pool.invalidate_threshold must be > 0")
	}
	if c.Engine.TimeoutSeconds <= 0 {
		return fmt.Errorf("engine.timeout_seconds must be > 0")
	}
	switch c.Engine.Provider {
	case "colly", "headless", "noop":
	default:
		return fmt.Errorf("unknown engine provider %q", c.Engine.Provider)
	}
	if c.Engine.Provider == "headless" && c.Engine.HeadlessParallel <= 0 {
		return fmt.Errorf("engine.headless_parallel must be > 0 when headless engine is selected")
	}
	if c.DB.Provider == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db.provider is postgres")
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
	}
	if c.PubSub.Provider == "pubsub" && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub.provider is pubsub")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// EngineTimeout converts the engine timeout config into a duration.
func (c Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}
