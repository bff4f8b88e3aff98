package config

import (
	"fmt"
	"os"
	"path/filepath"

	"callflow/pkg/logging"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/callflow"
	projectConfigDir = ".callflow"
	configFileName   = "config.yaml"
)

// LoadConfig loads the callflow configuration by layering default, user, and
// project settings. An explicit file, if given, is applied last.
func LoadConfig(explicit ...string) (CallflowConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// user config is optional
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else if config, err = overlayFile(config, userConfigPath, false); err != nil {
		return CallflowConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	// 3. Project-specific configuration
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if config, err = overlayFile(config, projectConfigPath, false); err != nil {
		return CallflowConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	// 4. Explicit --config file must exist
	for _, path := range explicit {
		if path == "" {
			continue
		}
		if config, err = overlayFile(config, path, true); err != nil {
			return CallflowConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return CallflowConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func overlayFile(base CallflowConfig, path string, required bool) (CallflowConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && !required {
		return base, nil
	}
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return base, err
	}
	logging.Debug("Config", "Applied configuration from %s", path)
	return mergeConfigs(base, overlay), nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a CallflowConfig from a YAML file.
func loadConfigFromFile(filePath string) (CallflowConfig, error) {
	var config CallflowConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return CallflowConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return CallflowConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Zero values in
// the overlay leave the base untouched.
func mergeConfigs(base, overlay CallflowConfig) CallflowConfig {
	merged := base

	// Canvas
	setFloat(&merged.Canvas.NodeWidth, overlay.Canvas.NodeWidth)
	setFloat(&merged.Canvas.NodeHeight, overlay.Canvas.NodeHeight)
	setFloat(&merged.Canvas.CellWidth, overlay.Canvas.CellWidth)
	setFloat(&merged.Canvas.CellHeight, overlay.Canvas.CellHeight)
	setFloat(&merged.Canvas.SpawnOffsetY, overlay.Canvas.SpawnOffsetY)
	setFloat(&merged.Canvas.SiblingSpacing, overlay.Canvas.SiblingSpacing)
	setFloat(&merged.Canvas.DuplicateOffset, overlay.Canvas.DuplicateOffset)
	setString(&merged.Canvas.IDs, overlay.Canvas.IDs)

	// Storage
	setString(&merged.Storage.Dir, overlay.Storage.Dir)
	setString(&merged.Storage.DefaultFormat, overlay.Storage.DefaultFormat)
	if overlay.Storage.Watch != nil {
		watch := *overlay.Storage.Watch
		merged.Storage.Watch = &watch
	}

	// Server
	setString(&merged.Server.Host, overlay.Server.Host)
	if overlay.Server.Port != 0 {
		merged.Server.Port = overlay.Server.Port
	}

	// UI
	setString(&merged.UI.Theme, overlay.UI.Theme)
	setString(&merged.UI.LogLevel, overlay.UI.LogLevel)

	return merged
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
