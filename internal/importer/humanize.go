package importer

import (
	"strings"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// slugWords turns a slug into lower-case words separated by spaces.
func slugWords(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = strings.ToLower(strings.TrimSpace(value))
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(normalized, "-", " ")), " ")
}

// TitleFromSlug builds a display title for demos whose summary row has none.
func TitleFromSlug(value string) string {
	return titleCaser.String(slugWords(value))
}
