package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/weatherjohn/internal/config"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOpts struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:           "weatherctl",
		Short:         "Herramientas para credenciales y consultas de WeatherKit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.Config{Env: "dev", Level: opts.logLevel})
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_PATH"), "ruta al config.yaml (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug|info|warn|error")

	root.AddCommand(
		newTokenCmd(opts),
		newKeygenCmd(),
		newInspectCmd(),
		newForecastCmd(opts),
	)
	return root
}

func (o *rootOpts) load() (*config.Config, error) {
	return config.Load(o.configPath)
}
