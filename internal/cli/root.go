package cli

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var (
		port       string
		configPath string
	)

	configDefault := os.Getenv("CONFIG_PATH")
	if configDefault == "" {
		configDefault = defaultConfigPath
	}

	cmd := &cobra.Command{
		Use:          "quiz-engine",
		Short:        "Timed quiz attempts with live countdowns and leaderboards",
		SilenceUsage: true,
	}
	// PORT and --port override server.port; both empty means the config wins.
	cmd.PersistentFlags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on")
	cmd.PersistentFlags().StringVar(&configPath, "config", configDefault, "path to YAML config")

	cmd.AddCommand(
		NewStartCmd(&configPath, &port),
		NewMigrateCmd(&configPath),
		NewSeedCmd(&configPath),
	)
	return cmd
}
