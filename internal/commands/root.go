package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rpgo/projection-engine/internal/buildinfo"
	"github.com/rpgo/projection-engine/internal/calculation"
	"github.com/rpgo/projection-engine/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel   string
	logFormat  string
	configPath string
	logger     *logrus.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "projector",
		Short:   "Monte Carlo net worth projections",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			logger.SetOutput(cmd.ErrOrStderr())
			opts.logger = logger
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format (text or json)")
	flags.StringVar(&opts.configPath, "config", "", "engine configuration YAML (defaults to built-in tables)")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newHealthCommand(opts))
	rootCmd.AddCommand(newExampleCommand(opts))
	rootCmd.AddCommand(newCalibrateCommand(opts))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// loadEngineConfig reads --config or falls back to the built-in defaults.
func (o *globalOptions) loadEngineConfig() (*config.EngineConfig, error) {
	if o.configPath == "" {
		return config.DefaultEngineConfig(), nil
	}
	cfg, err := config.NewInputParser().LoadEngineConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading engine config: %w", err)
	}
	return cfg, nil
}

// newEngine builds an engine from the configured tables.
func (o *globalOptions) newEngine(workers int) (*calculation.Engine, error) {
	cfg, err := o.loadEngineConfig()
	if err != nil {
		return nil, err
	}
	return calculation.NewEngine(cfg, calculation.WithLogger(o.logger), calculation.WithWorkers(workers))
}
