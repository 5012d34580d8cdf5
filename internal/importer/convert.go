package importer

import (
	"fmt"
	"strings"

	"portfolio/app/internal/sections"
)

const (
	projectPlaceholder = "To be detailed."
	projectSkills      = "Conceptual Understanding, Content Creation"
	projectTopics      = "Technology Overview"
)

// SectionRows maps content CSV rows onto aggregator rows.
func SectionRows(table *Table) []sections.Row {
	if table == nil {
		return nil
	}

	rows := make([]sections.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, sections.Row{
			Slug:             row.Get(ColumnSlug),
			Order:            row.Get(ColumnSectionOrder),
			Title:            row.Get(ColumnSectionTitle),
			Markdown:         row.Get(ColumnSectionMarkdown),
			CodeLanguage:     row.Get(ColumnCodeLanguage),
			CodeSnippetTitle: row.Get(ColumnCodeTitle),
			CodeSnippet:      row.Get(ColumnCodeSnippet),
			CodeExplanation:  row.Get(ColumnCodeExplanation),
		})
	}
	return rows
}

// ConvertToProjects turns summary rows into project rows with the given header.
// aggregated holds the Markdown per slug; nil means no content file was supplied.
// Every header is present in every row and every value is quoted.
func ConvertToProjects(summary *Table, aggregated map[string]string, header []string) string {
	var out strings.Builder
	writeQuotedRecord(&out, header)

	if summary == nil {
		return out.String()
	}

	for _, row := range summary.Rows {
		project := projectFields(row, aggregated)
		record := make([]string, len(header))
		for i, column := range header {
			record[i] = project[column]
		}
		writeQuotedRecord(&out, record)
	}

	return out.String()
}

func projectFields(row Row, aggregated map[string]string) map[string]string {
	slug := row.Get(ColumnSlug)
	title := valueOr(row, ColumnTitle, "N/A")

	demoURL := ""
	if slug != "" {
		demoURL = fmt.Sprintf("/demos/concepts/%s/", slug)
	}

	var long string
	switch markdown, ok := aggregated[slug]; {
	case aggregated == nil:
		long = fmt.Sprintf("Details for %s. Content to be migrated from demo sections if applicable.", title)
	case ok:
		long = markdown
	default:
		long = fmt.Sprintf("Details for %s. No detailed section content was found for this demo slug.", title)
	}

	return map[string]string{
		"title":                     title,
		"slug":                      slug,
		"description":               valueOr(row, ColumnDescription, "N/A"),
		"image_url":                 row.Get(ColumnImageURL),
		"demo_url":                  demoURL,
		"long_description_markdown": long,
		"results_metrics":           projectPlaceholder,
		"challenges":                projectPlaceholder,
		"lessons_learned":           projectPlaceholder,
		"code_snippet":              "",
		"code_language":             "",
		"github_url":                "",
		"paper_url":                 "",
		"order":                     "0",
		"is_featured":               "False",
		"skills":                    projectSkills,
		"topics":                    projectTopics,
	}
}

// valueOr returns the raw column value, or fallback when the column is absent.
func valueOr(row Row, column, fallback string) string {
	if value, ok := row.Lookup(column); ok {
		return value
	}
	return fallback
}

// writeQuotedRecord writes one CSV record with every field quoted and CRLF line
// endings; encoding/csv only quotes fields that need it.
func writeQuotedRecord(out *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			out.WriteByte(',')
		}
		out.WriteByte('"')
		out.WriteString(strings.ReplaceAll(field, `"`, `""`))
		out.WriteByte('"')
	}
	out.WriteString("\r\n")
}
