// Package config manages the pulsectl CLI configuration: named server
// contexts persisted under $HOME/.pulsectl/config.yaml. Session
// credentials are not stored here; they live in the session store file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName        = "pulsectl"
	configFileName = "config"
	configFileType = "yaml"
)

// Context is a named server endpoint the CLI can talk to.
type Context struct {
	Name           string `mapstructure:"name"`
	ServerEndpoint string `mapstructure:"server_endpoint"`
}

// CLIConfig is the persisted CLI configuration.
type CLIConfig struct {
	CurrentContext string              `mapstructure:"current_context"`
	Contexts       map[string]*Context `mapstructure:"contexts"`
}

var (
	// GlobalConfig is populated by InitConfig before any command runs.
	GlobalConfig *CLIConfig
	// CfgFile is the config file path in use; settable via --config.
	CfgFile string
)

// Dir returns the pulsectl configuration directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, "."+AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	return dir, nil
}

// InitConfig loads the CLI configuration. A missing file is fine; it is
// created on the first save.
func InitConfig() error {
	if CfgFile == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		CfgFile = filepath.Join(dir, configFileName+"."+configFileType)
	}

	viper.SetConfigFile(CfgFile)
	viper.SetConfigType(configFileType)
	viper.AutomaticEnv()

	GlobalConfig = &CLIConfig{Contexts: make(map[string]*Context)}

	if err := viper.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("error reading config file %s: %w", CfgFile, err)
			}
		}
	}

	if err := viper.Unmarshal(GlobalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if GlobalConfig.Contexts == nil {
		GlobalConfig.Contexts = make(map[string]*Context)
	}

	return nil
}

// SaveConfig writes GlobalConfig back to the config file.
func SaveConfig() error {
	viper.Set("current_context", GlobalConfig.CurrentContext)
	viper.Set("contexts", GlobalConfig.Contexts)

	if err := viper.WriteConfigAs(CfgFile); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", CfgFile, err)
	}

	return nil
}

// GetCurrentContext returns the active context. With exactly one context
// defined and none selected, that one is used.
func GetCurrentContext() (*Context, error) {
	if GlobalConfig == nil {
		return nil, errors.New("configuration not initialized")
	}

	if GlobalConfig.CurrentContext == "" {
		if len(GlobalConfig.Contexts) == 1 {
			for name, ctx := range GlobalConfig.Contexts {
				GlobalConfig.CurrentContext = name

				return ctx, nil
			}
		}

		return nil, errors.New("no current context set; use 'pulsectl config use-context <name>'")
	}

	ctx, ok := GlobalConfig.Contexts[GlobalConfig.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found in config", GlobalConfig.CurrentContext)
	}

	return ctx, nil
}
