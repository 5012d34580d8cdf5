package main

import (
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"portfolio/app/internal/config"
	applog "portfolio/app/internal/log"
)

// runtime is the state shared by every subcommand once the root pre-run has loaded it.
type runtime struct {
	cfg       *config.Config
	logger    *logrus.Logger
	sentryHub *sentry.Hub
	flush     func()
	noColor   bool
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	rt := &runtime{flush: func() {}}

	cmd := &cobra.Command{
		Use:           "importer",
		Short:         "Import portfolio demos from CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			rt.flush()
		},
	}

	cmd.PersistentFlags().BoolVar(&rt.noColor, "no-color", false, "Disable coloured status output")
	cmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&rt.logFormat, "log-format", "", "Log format: json or text (overrides LOG_FORMAT)")

	cmd.AddCommand(
		newPopulateCmd(rt),
		newConvertCmd(rt),
		newAggregateCmd(rt),
	)

	return cmd
}

func (rt *runtime) load() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}
	if rt.logFormat != "" {
		cfg.LogFormat = rt.logFormat
	}

	logger, err := applog.NewLoggerWithFormat(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}
	// Status lines go to stdout; keep structured logs off it.
	logger.SetOutput(os.Stderr)

	hub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Component:   "importer",
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}

	rt.cfg = cfg
	rt.logger = logger
	rt.sentryHub = hub
	rt.flush = flush
	return nil
}
