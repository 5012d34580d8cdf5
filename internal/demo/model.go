package demo

import (
	"strings"
	"time"
)

const (
	// DefaultPublished is applied to demos created without an explicit is_published value.
	DefaultPublished = true
	// DefaultFeatured is applied to demos created without an explicit is_featured value.
	DefaultFeatured = false
)

// Demo is a catalog entry rendered by the generic demo page.
type Demo struct {
	ID              uint      `gorm:"primaryKey"`
	Slug            string    `gorm:"size:255;uniqueIndex:idx_demos_slug;not null"`
	Title           string    `gorm:"size:200;not null"`
	Description     *string   `gorm:"type:text"`
	ImageURL        *string   `gorm:"size:500"`
	Order           int       `gorm:"column:sort_order;not null"`
	IsPublished     bool      `gorm:"not null"`
	IsFeatured      bool      `gorm:"not null"`
	PageMetaTitle   string    `gorm:"size:200"`
	MetaDescription string    `gorm:"type:text"`
	MetaKeywords    string    `gorm:"size:255"`
	CreatedAt       time.Time `gorm:"column:date_created"`
	UpdatedAt       time.Time `gorm:"column:last_updated"`
	Sections        []Section `gorm:"foreignKey:DemoID;constraint:OnDelete:CASCADE"`
}

// TableName defines the table name for the Demo model.
func (Demo) TableName() string {
	return "demos"
}

// NewDemo returns a demo carrying the model defaults for the given slug.
func NewDemo(slug string) *Demo {
	return &Demo{
		Slug:        strings.TrimSpace(slug),
		IsPublished: DefaultPublished,
		IsFeatured:  DefaultFeatured,
	}
}

// URL is the canonical path of the generic demo page.
func (d Demo) URL() string {
	return "/demos/concepts/" + d.Slug + "/"
}

// DisplayTitle prefers the page meta title over the catalog title.
func (d Demo) DisplayTitle() string {
	if title := strings.TrimSpace(d.PageMetaTitle); title != "" {
		return title
	}
	return d.Title
}

// Metadata returns the page metadata fields of the demo.
func (d Demo) Metadata() Metadata {
	return Metadata{
		PageMetaTitle:   d.PageMetaTitle,
		MetaDescription: d.MetaDescription,
		MetaKeywords:    d.MetaKeywords,
	}
}

// SetMetadata overwrites the page metadata fields of the demo.
func (d *Demo) SetMetadata(m Metadata) {
	d.PageMetaTitle = m.PageMetaTitle
	d.MetaDescription = m.MetaDescription
	d.MetaKeywords = m.MetaKeywords
}

// Metadata groups the SEO fields rendered in the page head.
type Metadata struct {
	PageMetaTitle   string
	MetaDescription string
	MetaKeywords    string
}

// Section is one ordered block of Markdown and/or code belonging to a demo.
// (DemoID, SectionOrder) is unique.
type Section struct {
	ID                     uint      `gorm:"primaryKey"`
	DemoID                 uint      `gorm:"not null;uniqueIndex:idx_demo_sections_order,priority:1"`
	SectionOrder           float64   `gorm:"not null;uniqueIndex:idx_demo_sections_order,priority:2"`
	SectionTitle           *string   `gorm:"size:255"`
	ContentMarkdown        *string   `gorm:"column:section_content_markdown;type:text"`
	CodeLanguage           *string   `gorm:"size:50"`
	CodeSnippetTitle       *string   `gorm:"size:255"`
	CodeSnippet            *string   `gorm:"type:text"`
	CodeSnippetExplanation *string   `gorm:"type:text"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName defines the table name for the Section model.
func (Section) TableName() string {
	return "demo_sections"
}

// OptionalString converts a trimmed value into a nullable column value.
func OptionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// StringValue dereferences a nullable column value.
func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
