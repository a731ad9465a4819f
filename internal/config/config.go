package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("invalid config")

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Quota     QuotaConfig     `yaml:"quota"`
	Refresh   RefreshConfig   `yaml:"refresh"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// StorageConfig tunes the chunked task store.
type StorageConfig struct {
	WriteThrottleMs    int `yaml:"write_throttle_ms"`
	MaxWritesPerMinute int `yaml:"max_writes_per_minute"`
	TargetChunkBytes   int `yaml:"target_chunk_bytes"`
	MaxRetries         int `yaml:"max_retries"`
}

// QuotaConfig sets the limits enforced on the key-value backend.
type QuotaConfig struct {
	MaxRecordBytes     int `yaml:"max_record_bytes"`
	MaxWritesPerMinute int `yaml:"max_writes_per_minute"`
}

type RefreshConfig struct {
	FrameMs      int `yaml:"frame_ms"`
	HiddenMs     int `yaml:"hidden_ms"`
	ViewportRows int `yaml:"viewport_rows"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: "tasktimer.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			WriteThrottleMs:    1000,
			MaxWritesPerMinute: 60,
			TargetChunkBytes:   6144,
			MaxRetries:         3,
		},
		Quota: QuotaConfig{
			MaxRecordBytes:     8192,
			MaxWritesPerMinute: 120,
		},
		Refresh: RefreshConfig{
			FrameMs:      16,
			HiddenMs:     1000,
			ViewportRows: 50,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TASKTIMER_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("TASKTIMER_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if mode := os.Getenv("TASKTIMER_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dbPath := os.Getenv("TASKTIMER_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("TASKTIMER_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("TASKTIMER_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"TASKTIMER_SERVER_PORT", &cfg.Server.Port},
		{"TASKTIMER_WRITE_THROTTLE_MS", &cfg.Storage.WriteThrottleMs},
		{"TASKTIMER_MAX_WRITES_PER_MINUTE", &cfg.Storage.MaxWritesPerMinute},
		{"TASKTIMER_TARGET_CHUNK_BYTES", &cfg.Storage.TargetChunkBytes},
	}
	for _, v := range ints {
		raw := os.Getenv(v.env)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", v.env, err)
		}
		*v.dst = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("%w: transport mode %q", ErrInvalid, c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalid, c.Server.Port)
	}
	if c.Storage.WriteThrottleMs < 0 {
		return fmt.Errorf("%w: negative write throttle", ErrInvalid)
	}
	if c.Storage.MaxWritesPerMinute <= 0 || c.Quota.MaxWritesPerMinute <= 0 {
		return fmt.Errorf("%w: writes per minute must be positive", ErrInvalid)
	}
	if c.Storage.TargetChunkBytes <= 0 {
		return fmt.Errorf("%w: target chunk bytes must be positive", ErrInvalid)
	}
	if c.Storage.TargetChunkBytes >= c.Quota.MaxRecordBytes {
		return fmt.Errorf("%w: target chunk bytes %d must be below the record quota %d",
			ErrInvalid, c.Storage.TargetChunkBytes, c.Quota.MaxRecordBytes)
	}
	if c.Refresh.FrameMs <= 0 || c.Refresh.HiddenMs <= 0 {
		return fmt.Errorf("%w: refresh intervals must be positive", ErrInvalid)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
