package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/preppulse/auth/cmd/pulsectl/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pulsectl contexts",
}

var setContextCmd = &cobra.Command{
	Use:   "set-context <name>",
	Short: "Create or update a named server context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		server, _ := cmd.Flags().GetString("server")
		if server == "" {
			return fmt.Errorf("--server is required")
		}

		config.GlobalConfig.Contexts[name] = &config.Context{Name: name, ServerEndpoint: server}
		if config.GlobalConfig.CurrentContext == "" {
			config.GlobalConfig.CurrentContext = name
		}
		if err := config.SaveConfig(); err != nil {
			return err
		}

		fmt.Printf("Context %q set to %s\n", name, server)

		return nil
	},
}

var useContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Switch the active context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, ok := config.GlobalConfig.Contexts[name]; !ok {
			return fmt.Errorf("context %q not found", name)
		}

		config.GlobalConfig.CurrentContext = name
		if err := config.SaveConfig(); err != nil {
			return err
		}

		fmt.Printf("Switched to context %q\n", name)

		return nil
	},
}

var currentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Print the active context",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := config.GetCurrentContext()
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", ctx.Name, ctx.ServerEndpoint)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(setContextCmd)
	configCmd.AddCommand(useContextCmd)
	configCmd.AddCommand(currentContextCmd)

	setContextCmd.Flags().String("server", "", "server endpoint, e.g. https://auth.preppulse.io")
}
