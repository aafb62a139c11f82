// Package config loads devup settings from defaults, an optional YAML
// file, and DEVUP_* environment variables, in increasing precedence.
// Command-line flags bound by the app layer override all three.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Configuration keys. Nested keys use dots in files and underscores in
// environment variables (compat.target becomes DEVUP_COMPAT_TARGET).
const (
	KeyLogRoot      = "log_root"
	KeyDBPath       = "db_path"
	KeyLogLevel     = "log_level"
	KeyNoColor      = "no_color"
	KeyCompatTarget = "compat.target"
	KeyPythonBinary = "python.binary"
)

const envPrefix = "DEVUP"

// Dir returns the devup config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/devup if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "devup"), nil
}

// Init wires defaults, the environment, and the config file into viper.
// An explicit configFile must exist and parse; when configFile is empty
// the usual locations are searched and a missing file is not an error.
func Init(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}
	viper.SetDefault(KeyLogRoot, filepath.Join(home, "upgrade-logs"))
	viper.SetDefault(KeyDBPath, filepath.Join(home, ".devup", "devup.db"))
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyNoColor, false)
	viper.SetDefault(KeyCompatTarget, "3.14")
	viper.SetDefault(KeyPythonBinary, "")

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("devup")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if dir, err := Dir(); err == nil {
		viper.AddConfigPath(dir)
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// LogRoot is the directory that receives each run's stamped execution log
// and snapshot file.
func LogRoot() string { return viper.GetString(KeyLogRoot) }

// DBPath is the SQLite database that stores run history.
func DBPath() string { return viper.GetString(KeyDBPath) }

// LogLevel is the zerolog level name for console output.
func LogLevel() string { return viper.GetString(KeyLogLevel) }

// NoColor disables ANSI colors in tables and logs.
func NoColor() bool { return viper.GetBool(KeyNoColor) }

// CompatTarget is the Python version compatibility scans check against.
func CompatTarget() string { return viper.GetString(KeyCompatTarget) }

// PythonBinary overrides Python interpreter auto-detection when set.
func PythonBinary() string { return viper.GetString(KeyPythonBinary) }
