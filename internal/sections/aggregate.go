// Package sections assembles ordered demo sections into a single Markdown document.
package sections

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"portfolio/app/internal/demo"
)

const (
	// UnorderedPosition is assigned to rows whose order is missing or unparsable,
	// which sorts them after every numbered section.
	UnorderedPosition = 999.0
	// Separator is placed between two rendered sections of the same slug.
	Separator = "\n---\n\n"

	defaultCodeTitle    = "Code Example"
	defaultCodeLanguage = "plaintext"
)

// Row is one raw section as it appears in the content CSV.
type Row struct {
	Slug             string
	Order            string
	Title            string
	Markdown         string
	CodeLanguage     string
	CodeSnippetTitle string
	CodeSnippet      string
	CodeExplanation  string
}

// ParseOrder parses a section order, reporting false for blank, non-numeric,
// NaN or infinite values.
func ParseOrder(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}

	return value, true
}

// SortKey is the order used for aggregation; it never fails.
func SortKey(raw string) float64 {
	if value, ok := ParseOrder(raw); ok {
		return value
	}
	return UnorderedPosition
}

// Render returns the Markdown of a single section, or "" when it has nothing to emit.
func Render(row Row) string {
	title := strings.TrimSpace(row.Title)

	// Bodies and snippets are emitted as written; leading indentation is significant Markdown.
	parts := make([]string, 0, 5)
	if title != "" {
		parts = append(parts, "## "+title+"\n")
	}
	if !blank(row.Markdown) {
		parts = append(parts, row.Markdown+"\n")
	}
	if !blank(row.CodeSnippet) {
		codeTitle := strings.TrimSpace(row.CodeSnippetTitle)
		if codeTitle == "" {
			codeTitle = defaultCodeTitle
		}
		language := strings.TrimSpace(row.CodeLanguage)
		if language == "" {
			language = defaultCodeLanguage
		}
		parts = append(parts, "### "+codeTitle+"\n")
		parts = append(parts, "```"+language+"\n"+row.CodeSnippet+"\n```\n")
	}
	if !blank(row.CodeExplanation) {
		parts = append(parts, "**Explanation:**\n"+row.CodeExplanation+"\n")
	}

	return strings.Join(parts, "\n")
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// Aggregate groups rows by slug and joins each group's rendered sections in
// ascending order. Slugs without any renderable section are left out.
func Aggregate(rows []Row) map[string]string {
	grouped := make(map[string][]Row)
	for _, row := range rows {
		slug := strings.TrimSpace(row.Slug)
		if slug == "" {
			continue
		}
		grouped[slug] = append(grouped[slug], row)
	}

	result := make(map[string]string, len(grouped))
	for slug, group := range grouped {
		if markdown := Document(group); markdown != "" {
			result[slug] = markdown
		}
	}

	return result
}

// Document renders one slug's rows, ordered by SortKey with ties kept in input order.
func Document(rows []Row) string {
	ordered := make([]Row, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return SortKey(ordered[i].Order) < SortKey(ordered[j].Order)
	})

	rendered := make([]string, 0, len(ordered))
	for _, row := range ordered {
		if markdown := Render(row); markdown != "" {
			rendered = append(rendered, markdown)
		}
	}

	return strings.Join(rendered, Separator)
}

// FromDemo converts stored sections back into rows so a demo can be re-assembled.
func FromDemo(d *demo.Demo) []Row {
	if d == nil {
		return nil
	}

	rows := make([]Row, 0, len(d.Sections))
	for _, section := range d.Sections {
		rows = append(rows, Row{
			Slug:             d.Slug,
			Order:            strconv.FormatFloat(section.SectionOrder, 'f', -1, 64),
			Title:            demo.StringValue(section.SectionTitle),
			Markdown:         demo.StringValue(section.ContentMarkdown),
			CodeLanguage:     demo.StringValue(section.CodeLanguage),
			CodeSnippetTitle: demo.StringValue(section.CodeSnippetTitle),
			CodeSnippet:      demo.StringValue(section.CodeSnippet),
			CodeExplanation:  demo.StringValue(section.CodeSnippetExplanation),
		})
	}

	return rows
}
