package demo

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrDuplicateSection is returned when a section order already exists for the demo.
var ErrDuplicateSection = eris.New("section order already exists for demo")

// Repository defines persistence operations for demos and their sections.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Demo, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*Demo, error)
	ListPublished(ctx context.Context) ([]Demo, error)
	UpsertSummary(ctx context.Context, slug string, summary Summary) (*Demo, bool, error)
	SaveMetadata(ctx context.Context, demo *Demo) error
	DeleteSections(ctx context.Context, demoID uint) (int64, error)
	CreateSection(ctx context.Context, section *Section) error
	ListSections(ctx context.Context, demoID uint) ([]Section, error)
	// Transaction runs fn inside a transaction. Calling it again on the repository
	// handed to fn opens a savepoint, so a failed row can be rolled back alone.
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

// Summary carries the catalog fields written by the importer's summary pass.
// Nil flags leave the stored (or default) value untouched.
type Summary struct {
	Title       string
	Description *string
	ImageURL    *string
	IsPublished *bool
	IsFeatured  *bool
}

func (s Summary) applyTo(d *Demo) []string {
	d.Title = s.Title
	d.Description = s.Description
	d.ImageURL = s.ImageURL

	columns := []string{"title", "description", "image_url"}
	if s.IsPublished != nil {
		d.IsPublished = *s.IsPublished
		columns = append(columns, "is_published")
	}
	if s.IsFeatured != nil {
		d.IsFeatured = *s.IsFeatured
		columns = append(columns, "is_featured")
	}
	return columns
}

// GormRepository persists demos using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// GetBySlug returns the demo for the provided slug or nil when not found.
func (r *GormRepository) GetBySlug(ctx context.Context, slug string) (*Demo, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	var demo Demo
	err := r.db.WithContext(ctx).First(&demo, "slug = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"slug": trimmed}, err, "fetching demo by slug")
		return nil, eris.Wrapf(err, "fetching demo by slug: %s", trimmed)
	}

	return &demo, nil
}

// GetPublishedBySlug returns a published demo with its sections in order, or nil when absent.
func (r *GormRepository) GetPublishedBySlug(ctx context.Context, slug string) (*Demo, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	var demo Demo
	err := r.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("section_order ASC")
		}).
		Where("slug = ? AND is_published = ?", trimmed, true).
		First(&demo).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"slug": trimmed}, err, "fetching published demo by slug")
		return nil, eris.Wrapf(err, "fetching published demo by slug: %s", trimmed)
	}

	return &demo, nil
}

// ListPublished returns every published demo ordered by display order then title.
func (r *GormRepository) ListPublished(ctx context.Context) ([]Demo, error) {
	var demos []Demo

	err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("sort_order ASC").
		Order("title ASC").
		Find(&demos).Error
	if err != nil {
		r.logError(nil, err, "listing published demos")
		return nil, eris.Wrap(err, "listing published demos")
	}

	return demos, nil
}

// UpsertSummary inserts or updates the demo keyed by slug and reports whether it was created.
func (r *GormRepository) UpsertSummary(ctx context.Context, slug string, summary Summary) (*Demo, bool, error) {
	existing, err := r.GetBySlug(ctx, slug)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		created := NewDemo(slug)
		summary.applyTo(created)
		if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
			r.logError(logrus.Fields{"slug": created.Slug}, err, "creating demo")
			return nil, false, eris.Wrapf(err, "creating demo: %s", created.Slug)
		}
		return created, true, nil
	}

	columns := summary.applyTo(existing)
	if err := r.db.WithContext(ctx).Model(existing).Select(columns).Updates(existing).Error; err != nil {
		r.logError(logrus.Fields{"slug": existing.Slug}, err, "updating demo summary")
		return nil, false, eris.Wrapf(err, "updating demo summary: %s", existing.Slug)
	}

	return existing, false, nil
}

// SaveMetadata persists the page metadata fields of an existing demo.
func (r *GormRepository) SaveMetadata(ctx context.Context, demo *Demo) error {
	if demo == nil || demo.ID == 0 {
		return eris.New("persisted demo is required")
	}

	err := r.db.WithContext(ctx).
		Model(demo).
		Select("page_meta_title", "meta_description", "meta_keywords").
		Updates(demo).Error
	if err != nil {
		r.logError(logrus.Fields{"slug": demo.Slug}, err, "saving demo metadata")
		return eris.Wrapf(err, "saving demo metadata: %s", demo.Slug)
	}

	return nil
}

// DeleteSections removes every section of the demo and returns how many were deleted.
func (r *GormRepository) DeleteSections(ctx context.Context, demoID uint) (int64, error) {
	if demoID == 0 {
		return 0, eris.New("demo id is required")
	}

	result := r.db.WithContext(ctx).Where("demo_id = ?", demoID).Delete(&Section{})
	if result.Error != nil {
		r.logError(logrus.Fields{"demo_id": demoID}, result.Error, "deleting demo sections")
		return 0, eris.Wrapf(result.Error, "deleting sections for demo %d", demoID)
	}

	return result.RowsAffected, nil
}

// CreateSection inserts a section; a clashing (demo, order) pair yields ErrDuplicateSection.
func (r *GormRepository) CreateSection(ctx context.Context, section *Section) error {
	if section == nil {
		return eris.New("section is nil")
	}
	if section.DemoID == 0 {
		return eris.New("section demo id is required")
	}

	if err := r.db.WithContext(ctx).Create(section).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return eris.Wrapf(ErrDuplicateSection, "demo %d order %v", section.DemoID, section.SectionOrder)
		}
		r.logError(logrus.Fields{"demo_id": section.DemoID, "section_order": section.SectionOrder}, err, "creating demo section")
		return eris.Wrapf(err, "creating section for demo %d", section.DemoID)
	}

	return nil
}

// ListSections returns the sections of a demo ordered by section order.
func (r *GormRepository) ListSections(ctx context.Context, demoID uint) ([]Section, error) {
	var sections []Section

	err := r.db.WithContext(ctx).
		Where("demo_id = ?", demoID).
		Order("section_order ASC").
		Find(&sections).Error
	if err != nil {
		r.logError(logrus.Fields{"demo_id": demoID}, err, "listing demo sections")
		return nil, eris.Wrapf(err, "listing sections for demo %d", demoID)
	}

	return sections, nil
}

// Transaction runs fn inside a database transaction scoped to a repository bound to it.
func (r *GormRepository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	if fn == nil {
		return eris.New("transaction function is required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx, logger: r.logger})
	})
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
