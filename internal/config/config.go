package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string `yaml:"database_path"`
	Port         string `yaml:"port"`
	AppURL       string `yaml:"app_url"`
	LogLevel     string `yaml:"log_level"`

	// Session Config
	SessionSecret string `yaml:"session_secret"`
	SecureCookies bool   `yaml:"secure_cookies"`

	// Google OAuth Config
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_uri"`

	LinkFetchTimeout time.Duration `yaml:"link_fetch_timeout"`
}

func defaults() *Config {
	return &Config{
		DatabasePath:     "data/recipebox.db",
		Port:             "8080",
		AppURL:           "http://localhost:8080",
		LogLevel:         "info",
		LinkFetchTimeout: 15 * time.Second,
	}
}

// Load reads an optional .env file from the working directory and an optional
// YAML file at path, then applies environment overrides on top. Only the
// settings every command needs are checked; serve also calls RequireSignIn.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("DATABASE_PATH", &cfg.DatabasePath)
	setString("PORT", &cfg.Port)
	setString("APP_URL", &cfg.AppURL)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("SESSION_SECRET", &cfg.SessionSecret)
	setString("GOOGLE_CLIENT_ID", &cfg.GoogleClientID)
	setString("GOOGLE_CLIENT_SECRET", &cfg.GoogleClientSecret)
	setString("GOOGLE_REDIRECT_URI", &cfg.GoogleRedirectURL)

	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIES value %q: %w", v, err)
		}
		cfg.SecureCookies = secure
	}

	if v := os.Getenv("LINK_FETCH_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LINK_FETCH_TIMEOUT value %q: %w", v, err)
		}
		cfg.LinkFetchTimeout = timeout
	}

	return nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.LinkFetchTimeout <= 0 {
		return fmt.Errorf("LINK_FETCH_TIMEOUT must be positive, got %s", c.LinkFetchTimeout)
	}
	return nil
}

// RequireSignIn checks the settings needed to serve Google sign-in and
// session cookies.
func (c *Config) RequireSignIn() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable not set")
	}
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID environment variable not set")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET environment variable not set")
	}
	if c.GoogleRedirectURL == "" {
		return fmt.Errorf("GOOGLE_REDIRECT_URI environment variable not set")
	}
	return nil
}
