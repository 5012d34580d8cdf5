package importer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"portfolio/app/internal/demo"
)

// MetadataPolicy decides when derived metadata may replace a stored value.
type MetadataPolicy string

const (
	// PreserveExisting only fills blank fields with derived defaults.
	PreserveExisting MetadataPolicy = "fill-blanks"
	// RefreshDerived recomputes derived defaults for every field the CSV leaves blank.
	RefreshDerived MetadataPolicy = "refresh-derived"
)

// ParseMetadataPolicy resolves a policy name; blank selects PreserveExisting.
func ParseMetadataPolicy(value string) (MetadataPolicy, error) {
	switch MetadataPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PreserveExisting:
		return PreserveExisting, nil
	case RefreshDerived:
		return RefreshDerived, nil
	default:
		return "", eris.Errorf("unknown metadata policy %q (expected %s or %s)", value, PreserveExisting, RefreshDerived)
	}
}

// DerivedMetadata returns the defaults used when the content CSV carries no metadata.
func DerivedMetadata(title, slug string) demo.Metadata {
	return demo.Metadata{
		PageMetaTitle:   title,
		MetaDescription: fmt.Sprintf("Learn more about %s.", title),
		MetaKeywords:    slugWords(slug) + ", demo",
	}
}

// MergeMetadata applies the precedence rules for page metadata: a non-blank
// incoming value always wins, otherwise the derived value is used when the
// existing field is blank (or always, under RefreshDerived). It reports whether
// the result differs from existing.
func MergeMetadata(existing, incoming, derived demo.Metadata, policy MetadataPolicy) (demo.Metadata, bool) {
	merged := demo.Metadata{
		PageMetaTitle:   mergeField(existing.PageMetaTitle, incoming.PageMetaTitle, derived.PageMetaTitle, policy),
		MetaDescription: mergeField(existing.MetaDescription, incoming.MetaDescription, derived.MetaDescription, policy),
		MetaKeywords:    mergeField(existing.MetaKeywords, incoming.MetaKeywords, derived.MetaKeywords, policy),
	}
	return merged, merged != existing
}

func mergeField(existing, incoming, derived string, policy MetadataPolicy) string {
	if value := strings.TrimSpace(incoming); value != "" {
		return value
	}
	if strings.TrimSpace(existing) == "" || policy == RefreshDerived {
		return derived
	}
	return existing
}
