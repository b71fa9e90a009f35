// Package config loads server settings from the environment, optionally
// overlaid with a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	LLMModeOpenAI = "openai"
	LLMModeMock   = "mock"
)

type Config struct {
	ServerAddr string `yaml:"server_addr"`

	DBDriver string `yaml:"db_driver"`
	PgConn   string `yaml:"db_conn"`

	LMBaseURL     string        `yaml:"llm_base_url"`
	LMAPIKey      string        `yaml:"llm_api_key"`
	ChatModel     string        `yaml:"llm_model"`
	LLMMode       string        `yaml:"llm_mode"`
	LLMTimeout    time.Duration `yaml:"llm_timeout"`
	MaxTokens     int           `yaml:"llm_max_tokens"`
	HistoryWindow int           `yaml:"history_window"`
	HistoryLimit  int           `yaml:"history_limit"`

	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int    `yaml:"max_upload_bytes"`
	InboxDir       string `yaml:"inbox_dir"`

	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedOrigins string        `yaml:"allowed_origins"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Load() *Config {
	return &Config{
		ServerAddr:     getenv("SERVER_ADDR", ":8080"),
		DBDriver:       getenv("DB_DRIVER", DriverPostgres),
		PgConn:         getenv("PG_CONN", "host=localhost port=5432 user=postgres password=postgres dbname=ai_workspaces sslmode=disable"),
		LMBaseURL:      getenv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LMAPIKey:       os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getenv("LLM_MODEL", "gpt-3.5-turbo"),
		LLMMode:        getenv("LLM_MODE", LLMModeOpenAI),
		LLMTimeout:     getenvDuration("LLM_TIMEOUT", 60*time.Second),
		MaxTokens:      getenvInt("LLM_MAX_TOKENS", 1500),
		HistoryWindow:  getenvInt("HISTORY_WINDOW", 10),
		HistoryLimit:   getenvInt("HISTORY_LIMIT", 50),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getenvInt("MAX_UPLOAD_BYTES", 10*1024*1024),
		InboxDir:       os.Getenv("INBOX_DIR"),
		JWTSecret:      getenv("JWT_SECRET", "change-me"),
		TokenTTL:       getenvDuration("TOKEN_TTL", 24*time.Hour),
		AllowedOrigins: getenv("ALLOWED_ORIGINS", "*"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
	}
}

// LoadFile loads the environment defaults and applies every non-empty
// value from the YAML file at path. An empty path is the same as Load.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(&file)
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	setString(&c.ServerAddr, o.ServerAddr)
	setString(&c.DBDriver, o.DBDriver)
	setString(&c.PgConn, o.PgConn)
	setString(&c.LMBaseURL, o.LMBaseURL)
	setString(&c.LMAPIKey, o.LMAPIKey)
	setString(&c.ChatModel, o.ChatModel)
	setString(&c.LLMMode, o.LLMMode)
	setString(&c.UploadDir, o.UploadDir)
	setString(&c.InboxDir, o.InboxDir)
	setString(&c.JWTSecret, o.JWTSecret)
	setString(&c.AllowedOrigins, o.AllowedOrigins)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	if o.LLMTimeout > 0 {
		c.LLMTimeout = o.LLMTimeout
	}
	if o.TokenTTL > 0 {
		c.TokenTTL = o.TokenTTL
	}
	if o.MaxTokens > 0 {
		c.MaxTokens = o.MaxTokens
	}
	if o.HistoryWindow > 0 {
		c.HistoryWindow = o.HistoryWindow
	}
	if o.HistoryLimit > 0 {
		c.HistoryLimit = o.HistoryLimit
	}
	if o.MaxUploadBytes > 0 {
		c.MaxUploadBytes = o.MaxUploadBytes
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid int in environment, using default", "key", k, "value", v, "default", def)
		return def
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", k, "value", v, "default", def)
		return def
	}
	return d
}
