package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"portfolio/app/internal/importer"
	"portfolio/app/internal/sections"
)

func newAggregateCmd(rt *runtime) *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "aggregate CONTENT_CSV",
		Short: "Print the Markdown document assembled for each demo slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := importer.ReadTable(args[0], firstNonEmpty(encoding, rt.cfg.CSVEncoding), []string{importer.ColumnSlug})
			if err != nil {
				return err
			}

			aggregated := sections.Aggregate(importer.SectionRows(content))
			slugs := make([]string, 0, len(aggregated))
			for slug := range aggregated {
				slugs = append(slugs, slug)
			}
			sort.Strings(slugs)

			report := importer.NewReporter(cmd.OutOrStdout(), rt.logger, rt.noColor)
			for _, slug := range slugs {
				report.Heading("=== %s ===", slug)
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), aggregated[slug]); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&encoding, "encoding", "", "CSV file encoding (default CSV_ENCODING or utf-8-sig)")

	return cmd
}
