package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apiclient "github.com/preppulse/auth/client"
	"github.com/preppulse/auth/cmd/pulsectl/config"
	"github.com/preppulse/auth/log"
	"github.com/preppulse/auth/session"
)

var appLogger log.Logger

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "pulsectl is a CLI for the PrepPulse auth API",
	Long:  `A command-line interface for managing your PrepPulse account: login, logout, inspect the current session and update your study profile.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = zerolog.DebugLevel
		}
		appLogger = log.NewZerologAdapter(level, true)

		return config.InitConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "",
		fmt.Sprintf("config file (default is $HOME/.%s/config.yaml)", config.AppName))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

// newClient builds an API client for the current context, backed by the
// session file under the pulsectl config directory.
func newClient() (*apiclient.Client, error) {
	currentCtx, err := config.GetCurrentContext()
	if err != nil {
		return nil, err
	}
	if currentCtx.ServerEndpoint == "" {
		return nil, fmt.Errorf("context %q has no server endpoint", currentCtx.Name)
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	store := session.NewStore(session.NewFileStorage(filepath.Join(dir, "session.yaml")), appLogger)
	c := apiclient.New(currentCtx.ServerEndpoint, store,
		apiclient.WithLogger(appLogger),
		apiclient.WithSessionExpiredHandler(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Please login again with 'pulsectl auth login'.")
		}),
	)

	return c, nil
}
