package linkup

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrMissingAPIKey = errors.New("LINKUP_API_KEY is required")

// Config holds the client settings read from the environment.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Log     LogConfig
}

type LogConfig struct {
	Level string
}

// LoadConfig reads configuration from the environment:
// LINKUP_API_KEY, LINKUP_BASE_URL, LINKUP_TIMEOUT_SEC and LOG_LEVEL.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKey:  os.Getenv("LINKUP_API_KEY"),
		BaseURL: getEnvOrDefault("LINKUP_BASE_URL", defaultBaseURL),
		Timeout: time.Duration(getEnvIntOrDefault("LINKUP_TIMEOUT_SEC", 30)) * time.Second,
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// NewClientFromEnv builds a client from LoadConfig, with a logger matching
// the configured level.
func NewClientFromEnv() (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg.APIKey,
		WithBaseURL(cfg.BaseURL),
		WithTimeout(cfg.Timeout),
		WithLogger(logger),
	), nil
}

func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := parseLogLevel(cfg.Level)

	var config zap.Config
	if level == zapcore.DebugLevel {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	config.Level = zap.NewAtomicLevelAt(level)

	return config.Build()
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
