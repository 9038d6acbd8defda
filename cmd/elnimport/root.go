package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"elnimport/internal/config"
	"elnimport/internal/logging"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
	format     string
}

var outputFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "elnimport",
		Short:         "Import ELN export archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			for _, f := range outputFormats {
				if f == opts.format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.format, outputFormats)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./elnimport.yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file (default ./.env)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "report format (text|json)")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

// load reads configuration and builds the process logger.
func (o *rootOptions) load() (*config.Config, *logging.ZapLogger, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger, err := logging.NewZap(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
