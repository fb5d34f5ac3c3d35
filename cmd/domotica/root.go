package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/domotica-core/internal/infrastructure/config"
)

const (
	// defaultConfigPath is used when neither --config nor DOMOTICA_CONFIG is set.
	defaultConfigPath = "configs/config.yaml"

	configEnv = "DOMOTICA_CONFIG"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "domotica",
		Short:         "Domotica Core - home automation catalog service",
		Long:          "Stores rooms, devices, device actions and scenes, and serves them over REST and WebSocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		fmt.Sprintf("config file (default $%s or %s)", configEnv, defaultConfigPath))

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// getConfigPath resolves the config file: flag, then DOMOTICA_CONFIG, then
// the default. explicit reports whether the operator named a file.
func (o *rootOptions) getConfigPath() (path string, explicit bool) {
	if o.configPath != "" {
		return o.configPath, true
	}
	if p := os.Getenv(configEnv); p != "" {
		return p, true
	}
	return defaultConfigPath, false
}

// loadConfig reads the resolved config file. A missing default file falls
// back to built-in defaults; a missing file the operator named is an error.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path, explicit := o.getConfigPath()

	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default()
		if err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}
	return nil, "", fmt.Errorf("loading config: %w", err)
}
