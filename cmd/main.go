package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/backup-config/config"
	"github.com/angeloszaimis/backup-config/pkg/logger"
)

// app carries what every subcommand needs once settings are loaded.
type app struct {
	viper  *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "backup-config:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{viper: viper.New()}

	var cfgFile string

	cmd := &cobra.Command{
		Use:           "backup-config",
		Short:         "Render streaming MySQL backup server and client configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				a.viper.SetConfigFile(cfgFile)
			}

			cfg, err := config.Load(a.viper)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			a.cfg = cfg
			a.logger = logger.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Server.Environment == config.EnvDev, cfg.Server.Environment)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config/backup-config.yaml or ./backup-config.yaml)")
	flags.String("log-level", config.LogLevelInfo, "log level: debug, info, warn or error")
	flags.String("namespace", config.DefaultNamespace, "property namespace the jobs read from")
	flags.String("client-link", config.DefaultClientLink, "link the client discovers backup servers through")

	bindFlag(a.viper, config.KeyLogLevel, flags.Lookup("log-level"))
	bindFlag(a.viper, config.KeyNamespace, flags.Lookup("namespace"))
	bindFlag(a.viper, config.KeyClientLink, flags.Lookup("client-link"))

	cmd.AddCommand(newRenderCommand(a), newServeCommand(a))

	return cmd
}
