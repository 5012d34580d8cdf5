package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"portfolio/app/internal/app/bootstrap"
	appdb "portfolio/app/internal/db"
	"portfolio/app/internal/importer"
)

type populateOptions struct {
	encoding       string
	baseDir        string
	metadataPolicy string
	dbPath         string
}

func newPopulateCmd(rt *runtime) *cobra.Command {
	var opts populateOptions

	cmd := &cobra.Command{
		Use:   "populate SUMMARY_CSV CONTENT_CSV",
		Short: "Upsert demos and replace their sections from the summary and content CSV files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopulate(cmd, rt, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "CSV file encoding (default CSV_ENCODING or utf-8-sig)")
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", "", "Directory relative CSV paths are resolved against (default IMPORT_BASE_DIR)")
	cmd.Flags().StringVar(&opts.metadataPolicy, "metadata-policy", string(importer.PreserveExisting),
		"How stored page metadata is merged: fill-blanks or refresh-derived")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default DB_PATH)")

	return cmd
}

func runPopulate(cmd *cobra.Command, rt *runtime, opts populateOptions, summaryPath, contentPath string) error {
	policy, err := importer.ParseMetadataPolicy(opts.metadataPolicy)
	if err != nil {
		return err
	}

	cfg := *rt.cfg
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	encoding := firstNonEmpty(opts.encoding, cfg.CSVEncoding)
	baseDir := firstNonEmpty(opts.baseDir, cfg.ImportBaseDir)

	ctx := cmd.Context()
	db, repo, err := bootstrap.OpenStore(ctx, bootstrap.Dependencies{
		Config:    cfg,
		Logger:    rt.logger,
		SentryHub: rt.sentryHub,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := appdb.Close(db); closeErr != nil {
			rt.logger.WithError(closeErr).Error("closing database")
		}
	}()

	imp, err := importer.New(importer.Options{
		Repository: repo,
		Logger:     rt.logger,
		Output:     cmd.OutOrStdout(),
		NoColor:    rt.noColor,
		SentryHub:  rt.sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "creating importer")
	}

	return imp.Run(ctx, importer.RunOptions{
		SummaryPath:    summaryPath,
		ContentPath:    contentPath,
		Encoding:       encoding,
		BaseDir:        baseDir,
		MetadataPolicy: policy,
	})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
