package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"portfolio/app/internal/importer"
	"portfolio/app/internal/sections"
)

const (
	defaultConvertOutput = "converted_demos_to_projects.csv"
	previewLines         = 5
)

type convertOptions struct {
	contentPath string
	outputPath  string
	encoding    string
}

func newConvertCmd(rt *runtime) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert SUMMARY_CSV PROJECTS_TEMPLATE_CSV",
		Short: "Convert demo CSV files into a projects CSV using the template's header",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, rt, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.contentPath, "content", "", "Content CSV whose sections become long_description_markdown")
	cmd.Flags().StringVar(&opts.outputPath, "output", defaultConvertOutput, "Where to write the projects CSV")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "CSV file encoding (default CSV_ENCODING or utf-8-sig)")

	return cmd
}

func runConvert(cmd *cobra.Command, rt *runtime, opts convertOptions, summaryPath, templatePath string) error {
	report := importer.NewReporter(cmd.OutOrStdout(), rt.logger, rt.noColor)
	encoding := firstNonEmpty(opts.encoding, rt.cfg.CSVEncoding)

	summary, err := importer.ReadTable(summaryPath, encoding, nil)
	if err != nil {
		report.Error("Error reading %s: %v", summaryPath, err)
		return err
	}
	report.Success("Successfully read: %s", summaryPath)

	var aggregated map[string]string
	if opts.contentPath != "" {
		content, err := importer.ReadTable(opts.contentPath, encoding, []string{importer.ColumnSlug})
		if err != nil {
			report.Error("Error reading %s: %v", opts.contentPath, err)
			return err
		}
		report.Success("Successfully read: %s", opts.contentPath)

		report.Heading("--- Processing Demo Content Sections ---")
		aggregated = sections.Aggregate(importer.SectionRows(content))
	}

	header, err := importer.ReadHeader(templatePath, encoding)
	if err != nil {
		report.Error("Error reading %s: %v", templatePath, err)
		return err
	}
	report.Success("Successfully read headers from: %s", templatePath)
	report.Notice("Target Project Headers: %s", strings.Join(header, ", "))

	report.Heading("--- Converting Demos to Projects ---")
	output := importer.ConvertToProjects(summary, aggregated, header)

	if err := os.WriteFile(opts.outputPath, []byte(output), 0o644); err != nil {
		report.Error("An error occurred while writing the output file: %v", err)
		return eris.Wrapf(err, "writing %s", opts.outputPath)
	}
	report.Success("Conversion complete. Output written to '%s'", opts.outputPath)

	report.Heading("--- First few lines of the output file: ---")
	lines := strings.SplitAfter(output, "\r\n")
	if len(lines) > previewLines {
		lines = lines[:previewLines]
	}
	out := cmd.OutOrStdout()
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, err := out.Write([]byte(strings.TrimRight(line, "\r\n") + "\n")); err != nil {
			return eris.Wrap(err, "printing preview")
		}
	}

	return nil
}
