package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"

	configDirName = ".egnyte-reseller"
	configDirMode = 0o700
	configMode    = 0o600

	baseURLKey       = "base_url"
	usernameKey      = "username"
	timeoutMsKey     = "timeout_ms"
	backoffDelayKey  = "backoff_delay_ms"
	protectPlanKey   = "protect_plan_id"
	forceChangeKey   = "force_license_change"
	defaultTimeoutMs = "20000"
)

// Settings is everything the CLI reads from the config file or EGR_
// environment variables. The portal password is deliberately absent; it
// lives in the credential store.
type Settings struct {
	BaseURL            string
	Username           string
	TimeoutMs          string
	BackoffDelay       time.Duration
	ProtectPlanID      string
	ForceLicenseChange bool
}

// Dir returns the CLI's config directory under the user's home.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, configDirName), nil
}

// Load reads settings from ~/.egnyte-reseller/config.toml, with EGR_
// environment variables taking precedence over the file. A missing file is
// fine; everything has a default.
func Load(cfg *viper.Viper) (Settings, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	dir, err := Dir()
	if err != nil {
		return Settings{}, err
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(dir)
	cfg.SetEnvPrefix("EGR")
	cfg.AutomaticEnv()

	cfg.SetDefault(baseURLKey, "")
	cfg.SetDefault(usernameKey, "")
	cfg.SetDefault(timeoutMsKey, defaultTimeoutMs)
	cfg.SetDefault(backoffDelayKey, 1000)
	cfg.SetDefault(protectPlanKey, "")
	cfg.SetDefault(forceChangeKey, false)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return Settings{
		BaseURL:            cfg.GetString(baseURLKey),
		Username:           cfg.GetString(usernameKey),
		TimeoutMs:          cfg.GetString(timeoutMsKey),
		BackoffDelay:       time.Duration(cfg.GetInt(backoffDelayKey)) * time.Millisecond,
		ProtectPlanID:      cfg.GetString(protectPlanKey),
		ForceLicenseChange: cfg.GetBool(forceChangeKey),
	}, nil
}

// fileSchema is the on-disk TOML shape written by Init.
type fileSchema struct {
	BaseURL            string `toml:"base_url,omitempty"`
	Username           string `toml:"username"`
	TimeoutMs          string `toml:"timeout_ms"`
	BackoffDelayMs     int64  `toml:"backoff_delay_ms"`
	ProtectPlanID      string `toml:"protect_plan_id,omitempty"`
	ForceLicenseChange bool   `toml:"force_license_change"`
}

// Init writes a starter config file and returns its path. An existing file
// is left untouched.
func Init(settings Settings) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, configName+"."+configType)

	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat config file: %w", err)
	}

	if settings.TimeoutMs == "" {
		settings.TimeoutMs = defaultTimeoutMs
	}
	if settings.BackoffDelay <= 0 {
		settings.BackoffDelay = time.Second
	}

	encoded, err := toml.Marshal(fileSchema{
		BaseURL:            settings.BaseURL,
		Username:           settings.Username,
		TimeoutMs:          settings.TimeoutMs,
		BackoffDelayMs:     settings.BackoffDelay.Milliseconds(),
		ProtectPlanID:      settings.ProtectPlanID,
		ForceLicenseChange: settings.ForceLicenseChange,
	})
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(dir, configDirMode); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, encoded, configMode); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}

	return path, nil
}
