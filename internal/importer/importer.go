// Package importer loads demo summaries and sections from CSV files into the
// demo store.
package importer

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolio/app/internal/demo"
	"portfolio/app/internal/sections"
)

// Summary CSV columns.
const (
	ColumnSlug        = "demo_slug"
	ColumnTitle       = "title"
	ColumnDescription = "demo_description"
	ColumnImageURL    = "demo_image_url"
	ColumnPublished   = "is_published"
	ColumnFeatured    = "is_featured"
)

// Content CSV columns.
const (
	ColumnMetaTitle       = "page_title_csv"
	ColumnMetaDescription = "meta_description_csv"
	ColumnMetaKeywords    = "meta_keywords_csv"
	ColumnSectionOrder    = "section_order"
	ColumnSectionTitle    = "section_title"
	ColumnSectionMarkdown = "section_content_markdown"
	ColumnCodeLanguage    = "code_language"
	ColumnCodeTitle       = "code_snippet_title"
	ColumnCodeSnippet     = "code_snippet"
	ColumnCodeExplanation = "code_snippet_explanation"
)

var (
	// SummaryColumns must be present in the summary CSV header.
	SummaryColumns = []string{ColumnSlug, ColumnTitle, ColumnDescription, ColumnImageURL}
	// ContentColumns must be present in the content CSV header.
	ContentColumns = []string{ColumnSlug}
)

// Options configures an Importer.
type Options struct {
	Repository demo.Repository
	Logger     *logrus.Logger
	// Output receives the operator status lines; stdout when nil.
	Output    io.Writer
	NoColor   bool
	SentryHub *sentry.Hub
}

// RunOptions describes one import run.
type RunOptions struct {
	SummaryPath string
	ContentPath string
	Encoding    string
	// BaseDir resolves relative CSV paths.
	BaseDir        string
	MetadataPolicy MetadataPolicy
}

// Importer performs the two-file demo import.
type Importer struct {
	repo      demo.Repository
	logger    *logrus.Logger
	report    *Reporter
	sentryHub *sentry.Hub
}

// New constructs an Importer.
func New(opts Options) (*Importer, error) {
	if opts.Repository == nil {
		return nil, eris.New("demo repository is required")
	}

	return &Importer{
		repo:      opts.Repository,
		logger:    opts.Logger,
		report:    NewReporter(opts.Output, opts.Logger, opts.NoColor),
		sentryHub: opts.SentryHub,
	}, nil
}

// Run reads and validates both files, then applies them inside one transaction.
// File problems fail before any write; row problems are reported and skipped.
func (i *Importer) Run(ctx context.Context, opts RunOptions) error {
	policy := opts.MetadataPolicy
	if policy == "" {
		policy = PreserveExisting
	}

	summary, err := i.readTable(resolvePath(opts.BaseDir, opts.SummaryPath), opts.Encoding, SummaryColumns)
	if err != nil {
		return err
	}
	content, err := i.readTable(resolvePath(opts.BaseDir, opts.ContentPath), opts.Encoding, ContentColumns)
	if err != nil {
		return err
	}

	var stats runStats
	err = i.repo.Transaction(ctx, func(tx demo.Repository) error {
		r := &run{
			importer:        i,
			tx:              tx,
			policy:          policy,
			demos:           make(map[string]*demo.Demo),
			metadataHandled: make(map[string]bool),
			sectionsCleared: make(map[string]bool),
		}

		i.report.Heading("--- Processing Summary CSV ---")
		for _, row := range summary.Rows {
			if outcome := r.summaryRow(ctx, row); outcome.Kind == Abort {
				return eris.Wrapf(outcome.Err, "summary CSV row %d", row.Number)
			}
		}

		if len(r.demos) == 0 {
			i.report.Warning("No demos were processed from the summary CSV. Content processing might not find matching demos.")
		}

		i.report.Heading("--- Processing Content CSV ---")
		for _, row := range content.Rows {
			if outcome := r.contentRow(ctx, row); outcome.Kind == Abort {
				return eris.Wrapf(outcome.Err, "content CSV row %d", row.Number)
			}
		}

		stats = r.stats
		return nil
	})
	if err != nil {
		i.recordError(logrus.Fields{"summary": summary.Path, "content": content.Path}, err, "demo import rolled back")
		return eris.Wrap(err, "importing demos")
	}

	if i.logger != nil {
		i.logger.WithFields(logrus.Fields{
			"component":        "importer",
			"demos_created":    stats.created,
			"demos_updated":    stats.updated,
			"sections_created": stats.sections,
			"rows_skipped":     stats.skipped,
		}).Info("demo import complete")
	}
	i.report.Success("Successfully completed processing both CSV files for Demo and DemoSection models.")

	return nil
}

func (i *Importer) readTable(path, encoding string, required []string) (*Table, error) {
	name := encoding
	if name == "" {
		name = DefaultEncoding
	}
	i.report.Success("Processing CSV file: %s with encoding %s", path, name)

	table, err := ReadTable(path, name, required)
	if err != nil {
		i.recordError(logrus.Fields{"file": path}, err, "reading csv file")
		return nil, err
	}
	return table, nil
}

func (i *Importer) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if i.logger != nil {
		entry := i.logger.WithField("component", "importer").WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if i.sentryHub != nil {
		i.sentryHub.CaptureException(err)
	}
}

func resolvePath(base, path string) string {
	if base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

type runStats struct {
	created  int
	updated  int
	sections int
	skipped  int
}

// run holds the per-import bookkeeping shared by the two passes.
type run struct {
	importer        *Importer
	tx              demo.Repository
	policy          MetadataPolicy
	demos           map[string]*demo.Demo
	metadataHandled map[string]bool
	sectionsCleared map[string]bool
	stats           runStats
}

// savepoint runs fn in a nested transaction so a failed row leaves earlier work intact.
func (r *run) savepoint(ctx context.Context, fn func(repo demo.Repository) error) error {
	return r.tx.Transaction(ctx, fn)
}

func (r *run) skip(file string, row Row, slug, reason string) Outcome {
	r.stats.skipped++
	if logger := r.importer.logger; logger != nil {
		logger.WithFields(logrus.Fields{
			"component": "importer",
			"file":      file,
			"row":       row.Number,
			"slug":      slug,
		}).Debug("row skipped: " + reason)
	}
	return Skipped(reason)
}

func (r *run) summaryRow(ctx context.Context, row Row) Outcome {
	if err := ctx.Err(); err != nil {
		return Aborted(err)
	}

	report := r.importer.report
	slug := row.Trimmed(ColumnSlug)
	if slug == "" {
		report.Warning("Summary CSV Row %d: Skipping due to missing '%s'.", row.Number, ColumnSlug)
		return r.skip("summary", row, slug, "missing slug")
	}

	title := row.Trimmed(ColumnTitle)
	if title == "" {
		title = TitleFromSlug(slug)
	}

	summary := demo.Summary{
		Title:       title,
		Description: demo.OptionalString(row.Get(ColumnDescription)),
		ImageURL:    demo.OptionalString(row.Get(ColumnImageURL)),
		IsPublished: r.flag(row, slug, ColumnPublished, demo.DefaultPublished),
		IsFeatured:  r.flag(row, slug, ColumnFeatured, demo.DefaultFeatured),
	}

	var (
		saved   *demo.Demo
		created bool
	)
	err := r.savepoint(ctx, func(repo demo.Repository) error {
		var err error
		saved, created, err = repo.UpsertSummary(ctx, slug, summary)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			report.Error("Summary CSV Row %d, Demo '%s': Database integrity error - %v. This might be a slug conflict or another unique constraint violation.", row.Number, slug, err)
		} else {
			report.Error("Summary CSV Row %d: Error processing (Demo Slug: '%s'): %v", row.Number, slug, err)
		}
		r.stats.skipped++
		return classify(err, "summary upsert failed")
	}

	r.demos[slug] = saved
	action := "Updated summary for"
	if created {
		action = "Created"
		r.stats.created++
	} else {
		r.stats.updated++
	}
	report.Success(
		"Summary CSV Row %d: %s Demo: '%s' (Slug: %s) with is_published=%t, is_featured=%t",
		row.Number, action, saved.Title, saved.Slug, saved.IsPublished, saved.IsFeatured,
	)

	return Continued()
}

// flag parses an optional boolean column. Nil leaves the model value untouched.
func (r *run) flag(row Row, slug, column string, fallback bool) *bool {
	raw, ok := row.Lookup(column)
	if !ok || raw == "" {
		return nil
	}

	value, recognised := ParseBool(raw)
	if !recognised {
		r.importer.report.Warning(
			"Summary CSV Row %d, Demo '%s': Unrecognized value '%s' for '%s'. Using model default (%s=%t).",
			row.Number, slug, raw, column, column, fallback,
		)
		return nil
	}
	return &value
}

func (r *run) contentRow(ctx context.Context, row Row) Outcome {
	if err := ctx.Err(); err != nil {
		return Aborted(err)
	}

	report := r.importer.report
	slug := row.Trimmed(ColumnSlug)
	if slug == "" {
		report.Warning("Content CSV Row %d: Skipping due to missing '%s'.", row.Number, ColumnSlug)
		return r.skip("content", row, slug, "missing slug")
	}

	target, ok := r.demos[slug]
	if !ok {
		found, err := r.tx.GetBySlug(ctx, slug)
		if err != nil {
			report.Error("Content CSV Row %d: Error processing (Demo Slug: '%s'): %v", row.Number, slug, err)
			r.stats.skipped++
			return classify(err, "demo lookup failed")
		}
		if found == nil {
			report.Warning("Content CSV Row %d: Demo with slug '%s' not found from summary CSV or DB. Skipping this content row.", row.Number, slug)
			return r.skip("content", row, slug, "unknown demo")
		}
		report.Notice("Content CSV Row %d: Demo with slug '%s' found in DB but not in summary CSV. Proceeding with content.", row.Number, slug)
		target = found
	}

	if !r.metadataHandled[slug] {
		if outcome := r.applyMetadata(ctx, row, slug, target); outcome.Kind != Continue {
			return outcome
		}
	}

	if !r.sectionsCleared[slug] {
		err := r.savepoint(ctx, func(repo demo.Repository) error {
			_, err := repo.DeleteSections(ctx, target.ID)
			return err
		})
		if err != nil {
			report.Error("Content CSV Row %d: Error processing (Demo Slug: '%s'): %v", row.Number, slug, err)
			r.stats.skipped++
			return classify(err, "clearing sections failed")
		}
		r.sectionsCleared[slug] = true
		report.Warning("Cleared old sections for Demo: '%s' (Slug: %s)", target.Title, slug)
	}

	return r.createSection(ctx, row, slug, target)
}

func (r *run) applyMetadata(ctx context.Context, row Row, slug string, target *demo.Demo) Outcome {
	incoming := demo.Metadata{
		PageMetaTitle:   row.Trimmed(ColumnMetaTitle),
		MetaDescription: row.Trimmed(ColumnMetaDescription),
		MetaKeywords:    row.Trimmed(ColumnMetaKeywords),
	}
	merged, changed := MergeMetadata(target.Metadata(), incoming, DerivedMetadata(target.Title, slug), r.policy)

	if changed {
		updated := *target
		updated.SetMetadata(merged)
		err := r.savepoint(ctx, func(repo demo.Repository) error {
			return repo.SaveMetadata(ctx, &updated)
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				r.importer.report.Error("Content CSV Row %d, Demo '%s': Database integrity error during demo metadata update - %v.", row.Number, slug, err)
			} else {
				r.importer.report.Error("Content CSV Row %d: Error processing (Demo Slug: '%s'): %v", row.Number, slug, err)
			}
			r.stats.skipped++
			return classify(err, "metadata update failed")
		}
		target.SetMetadata(merged)
	}

	r.metadataHandled[slug] = true
	r.importer.report.Success("Content CSV Row %d: Updated/Ensured metadata for Demo '%s' (Slug: %s)", row.Number, target.Title, slug)
	return Continued()
}

func (r *run) createSection(ctx context.Context, row Row, slug string, target *demo.Demo) Outcome {
	report := r.importer.report
	rawOrder := row.Trimmed(ColumnSectionOrder)
	body := row.Trimmed(ColumnSectionMarkdown)
	snippet := row.Trimmed(ColumnCodeSnippet)

	if rawOrder == "" {
		return Continued()
	}

	if body == "" && snippet == "" {
		report.Notice(
			"Content CSV Row %d, Demo '%s', Section Order '%s': Section order present but no markdown or code snippet found. Section not created.",
			row.Number, slug, rawOrder,
		)
		return r.skip("content", row, slug, "present but no content")
	}

	order, ok := sections.ParseOrder(rawOrder)
	if !ok {
		report.Warning("Content CSV Row %d, Demo '%s': Invalid section_order '%s'. Skipping section.", row.Number, slug, rawOrder)
		return r.skip("content", row, slug, "invalid section order")
	}

	section := &demo.Section{
		DemoID:                 target.ID,
		SectionOrder:           order,
		SectionTitle:           demo.OptionalString(row.Get(ColumnSectionTitle)),
		ContentMarkdown:        demo.OptionalString(body),
		CodeLanguage:           demo.OptionalString(row.Get(ColumnCodeLanguage)),
		CodeSnippetTitle:       demo.OptionalString(row.Get(ColumnCodeTitle)),
		CodeSnippet:            demo.OptionalString(snippet),
		CodeSnippetExplanation: demo.OptionalString(row.Get(ColumnCodeExplanation)),
	}

	err := r.savepoint(ctx, func(repo demo.Repository) error {
		return repo.CreateSection(ctx, section)
	})
	if err != nil {
		if eris.Is(err, demo.ErrDuplicateSection) {
			report.Error(
				"Content CSV Row %d, Demo '%s': UNIQUE constraint failed for section_order '%s'. This section_order likely already exists for this demo (duplicate in CSV). Skipping this section.",
				row.Number, slug, formatOrder(order),
			)
			return r.skip("content", row, slug, "duplicate section order")
		}
		report.Error("Content CSV Row %d: Error processing (Demo Slug: '%s'): %v", row.Number, slug, err)
		r.stats.skipped++
		return classify(err, "section insert failed")
	}

	r.stats.sections++
	report.Success("Content CSV Row %d: Created Section (Order: %s) for Demo '%s'", row.Number, formatOrder(order), slug)
	return Continued()
}

func formatOrder(order float64) string {
	return strconv.FormatFloat(order, 'f', -1, 64)
}
