package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"moltyverse/pkg/logging"
)

const (
	userConfigDir  = ".config/moltyverse"
	configFileName = "config.yaml"
	dotEnvFileName = ".env"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPathOrPanic returns ~/.config/moltyverse.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := osUserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig builds the configuration from defaults, then config.yaml in
// configPath, then the environment. A .env file in the working directory is
// loaded into the environment first without overriding variables already set.
func LoadConfig(configPath string) (Config, error) {
	config := GetDefaultConfig()

	if err := godotenv.Load(dotEnvFileName); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("ConfigLoader", "Ignoring unreadable %s: %v", dotEnvFileName, err)
	}

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if err := cleanenv.ReadEnv(&config); err != nil {
		return Config{}, fmt.Errorf("error reading environment: %w", err)
	}

	if config.Storage.Dir == "" {
		config.Storage.Dir = filepath.Join(configPath, "credentials")
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// EnvDescription lists the supported environment variables.
func EnvDescription() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}

// Save writes cfg as config.yaml into configPath.
func Save(configPath string, cfg Config) error {
	if err := os.MkdirAll(configPath, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(configPath, configFileName), data, 0o600)
}
