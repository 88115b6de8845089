package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// MinArtifactIDLength is the shortest random suffix allowed for temp artifacts.
const MinArtifactIDLength = 8

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Provider  ProviderConfig  `yaml:"provider"`
	Stream    StreamConfig    `yaml:"stream"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int           `yaml:"port" envconfig:"SERVER_PORT" default:"5000"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"0s"` // 0 = no limit, downloads stream for minutes
	AnalyzeTimeout time.Duration `yaml:"analyze_timeout" envconfig:"SERVER_ANALYZE_TIMEOUT" default:"2m"`
}

// StorageConfig holds temp artifact storage configuration.
type StorageConfig struct {
	TempPath     string `yaml:"temp_path" envconfig:"STORAGE_TEMP_PATH" default:"/data/temp"`
	Prefix       string `yaml:"prefix" envconfig:"STORAGE_PREFIX" default:"temp_"`
	IDLength     int    `yaml:"id_length" envconfig:"STORAGE_ID_LENGTH" default:"12"`
	MinFreeBytes int64  `yaml:"min_free_bytes" envconfig:"STORAGE_MIN_FREE_BYTES" default:"0"`
	JournalPath  string `yaml:"journal_path" envconfig:"STORAGE_JOURNAL_PATH"` // empty = in-memory journal
}

// ProviderConfig holds extraction provider (yt-dlp) configuration.
type ProviderConfig struct {
	BinaryPath          string        `yaml:"binary_path" envconfig:"PROVIDER_BINARY_PATH" default:"yt-dlp"`
	SocketTimeout       time.Duration `yaml:"socket_timeout" envconfig:"PROVIDER_SOCKET_TIMEOUT" default:"30s"`
	ProbeTimeout        time.Duration `yaml:"probe_timeout" envconfig:"PROVIDER_PROBE_TIMEOUT" default:"90s"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout" envconfig:"PROVIDER_FETCH_TIMEOUT" default:"15m"`
	UserAgent           string        `yaml:"user_agent" envconfig:"PROVIDER_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	PlayerClient        string        `yaml:"player_client" envconfig:"PROVIDER_PLAYER_CLIENT" default:"android"`
	ForceIPv4           bool          `yaml:"force_ipv4" envconfig:"PROVIDER_FORCE_IPV4" default:"true"`
	NoCheckCertificates bool          `yaml:"no_check_certificates" envconfig:"PROVIDER_NO_CHECK_CERTIFICATES" default:"true"`
}

// StreamConfig holds attachment streaming configuration.
type StreamConfig struct {
	ChunkSize int `yaml:"chunk_size" envconfig:"STREAM_CHUNK_SIZE" default:"4096"`
}

// ThumbnailConfig holds thumbnail proxy configuration.
type ThumbnailConfig struct {
	Timeout   time.Duration `yaml:"timeout" envconfig:"THUMBNAIL_TIMEOUT" default:"10s"`
	UserAgent string        `yaml:"user_agent" envconfig:"THUMBNAIL_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64)"`
	MaxBytes  int64         `yaml:"max_bytes" envconfig:"THUMBNAIL_MAX_BYTES" default:"10485760"` // 10MB
}

// SweepConfig holds orphaned temp file sweeping configuration.
type SweepConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"SWEEP_ENABLED" default:"true"`
	Interval time.Duration `yaml:"interval" envconfig:"SWEEP_INTERVAL" default:"10m"`
	MaxAge   time.Duration `yaml:"max_age" envconfig:"SWEEP_MAX_AGE" default:"2h"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Outside production a .env
// file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// Missing .env is fine.
		_ = godotenv.Load()
	}

	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Storage.TempPath == "" {
		return fmt.Errorf("STORAGE_TEMP_PATH is required")
	}
	if c.Storage.Prefix == "" || filepath.Base(c.Storage.Prefix) != c.Storage.Prefix {
		return fmt.Errorf("STORAGE_PREFIX must be a plain file name prefix")
	}
	if c.Storage.IDLength < MinArtifactIDLength || c.Storage.IDLength > 32 {
		return fmt.Errorf("STORAGE_ID_LENGTH must be between %d and 32", MinArtifactIDLength)
	}
	if c.Provider.BinaryPath == "" {
		return fmt.Errorf("PROVIDER_BINARY_PATH is required")
	}
	if c.Stream.ChunkSize <= 0 {
		return fmt.Errorf("STREAM_CHUNK_SIZE must be positive")
	}
	if c.Sweep.Enabled && (c.Sweep.Interval <= 0 || c.Sweep.MaxAge <= 0) {
		return fmt.Errorf("SWEEP_INTERVAL and SWEEP_MAX_AGE must be positive when sweeping is enabled")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
