package importer

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/app/internal/demo"
	"portfolio/app/internal/sections"
)

const exampleSummary = "demo_slug,title,demo_description,demo_image_url\n" +
	"foo,Foo,D,U\n"

const exampleContent = "demo_slug,section_order,section_title,section_content_markdown\n" +
	"foo,2,B,Second\n" +
	"foo,1,A,First\n"

func TestNewRequiresRepository(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	assert.Error(t, err)
}

func TestRunImportsSummaryAndSections(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	imp, out := newTestImporter(t, repo)
	dir := t.TempDir()
	writeFile(t, dir, "summary.csv", exampleSummary)
	writeFile(t, dir, "content.csv", exampleContent)

	err := imp.Run(context.Background(), RunOptions{SummaryPath: "summary.csv", ContentPath: "content.csv", BaseDir: dir})
	require.NoError(t, err)

	stored, err := repo.GetPublishedBySlug(context.Background(), "foo")
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "Foo", stored.Title)
	assert.Equal(t, "D", demo.StringValue(stored.Description))
	assert.Equal(t, "U", demo.StringValue(stored.ImageURL))
	assert.True(t, stored.IsPublished)
	assert.False(t, stored.IsFeatured)
	assert.Equal(t, "Foo", stored.PageMetaTitle)
	assert.Equal(t, "Learn more about Foo.", stored.MetaDescription)
	assert.Equal(t, "foo, demo", stored.MetaKeywords)

	require.Len(t, stored.Sections, 2)
	assert.Equal(t, 1.0, stored.Sections[0].SectionOrder)
	assert.Equal(t, 2.0, stored.Sections[1].SectionOrder)
	assert.Equal(t, "## A\n\nFirst\n"+sections.Separator+"## B\n\nSecond\n", sections.Document(sections.FromDemo(stored)))

	assert.Contains(t, out.String(), "Summary CSV Row 1: Created Demo: 'Foo' (Slug: foo) with is_published=true, is_featured=false")
	assert.Contains(t, out.String(), "Successfully completed processing both CSV files")
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	imp, out := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", exampleSummary)
	content := writeFile(t, dir, "content.csv", exampleContent)
	opts := RunOptions{SummaryPath: summary, ContentPath: content}

	require.NoError(t, imp.Run(context.Background(), opts))
	first := snapshot(t, repo, "foo")

	require.NoError(t, imp.Run(context.Background(), opts))
	second := snapshot(t, repo, "foo")

	assert.Equal(t, first, second)
	assert.Contains(t, out.String(), "Summary CSV Row 1: Updated summary for Demo: 'Foo'")

	demos, err := repo.ListPublished(context.Background())
	require.NoError(t, err)
	assert.Len(t, demos, 1)
}

func TestRunKeepsFirstDuplicateSectionOrder(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	imp, out := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", exampleSummary)
	content := writeFile(t, dir, "content.csv",
		"demo_slug,section_order,section_content_markdown\n"+
			"foo,1,First\n"+
			"foo,1.0,Clash\n"+
			"foo,2,Second\n")

	require.NoError(t, imp.Run(context.Background(), RunOptions{SummaryPath: summary, ContentPath: content}))

	stored := snapshot(t, repo, "foo")
	require.Len(t, stored, 2)
	assert.Equal(t, "First", demo.StringValue(stored[0].ContentMarkdown))
	assert.Equal(t, "Second", demo.StringValue(stored[1].ContentMarkdown))
	assert.Contains(t, out.String(), "Content CSV Row 2, Demo 'foo': UNIQUE constraint failed for section_order '1'")
}

func TestRunWarnsOnUnrecognisedFlags(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	imp, out := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv",
		"demo_slug,title,demo_description,demo_image_url,is_published,is_featured\n"+
			"foo,Foo,,,maybe,yes\n"+
			"bar,,,,no,\n")
	content := writeFile(t, dir, "content.csv", "demo_slug\n")

	require.NoError(t, imp.Run(context.Background(), RunOptions{SummaryPath: summary, ContentPath: content}))

	foo, err := repo.GetBySlug(context.Background(), "foo")
	require.NoError(t, err)
	require.NotNil(t, foo)
	assert.True(t, foo.IsPublished)
	assert.True(t, foo.IsFeatured)
	assert.Nil(t, foo.Description)
	assert.Nil(t, foo.ImageURL)

	bar, err := repo.GetBySlug(context.Background(), "bar")
	require.NoError(t, err)
	require.NotNil(t, bar)
	assert.Equal(t, "Bar", bar.Title)
	assert.False(t, bar.IsPublished)
	assert.False(t, bar.IsFeatured)

	assert.Contains(t, out.String(), "Unrecognized value 'maybe' for 'is_published'. Using model default (is_published=true).")
	assert.NotContains(t, out.String(), "for 'is_featured'")
}

func TestRunKeepsStoredFlagsWhenColumnsAbsent(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()
	hidden := false
	_, _, err := repo.UpsertSummary(ctx, "foo", demo.Summary{Title: "Foo", IsPublished: &hidden})
	require.NoError(t, err)

	imp, _ := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", exampleSummary)
	content := writeFile(t, dir, "content.csv", "demo_slug\n")

	require.NoError(t, imp.Run(ctx, RunOptions{SummaryPath: summary, ContentPath: content}))

	stored, err := repo.GetBySlug(ctx, "foo")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsPublished)
}

func TestRunSkipsRowsWithoutContent(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	imp, out := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", exampleSummary)
	content := writeFile(t, dir, "content.csv",
		"demo_slug,section_order,section_content_markdown,code_snippet\n"+
			"foo,5,,\n"+
			"foo,abc,Body,\n"+
			"foo,3,,print(1)\n"+
			",1,Orphan,\n"+
			"ghost,1,Body,\n")

	require.NoError(t, imp.Run(context.Background(), RunOptions{SummaryPath: summary, ContentPath: content}))

	stored := snapshot(t, repo, "foo")
	require.Len(t, stored, 1)
	assert.Equal(t, 3.0, stored[0].SectionOrder)
	assert.Equal(t, "print(1)", demo.StringValue(stored[0].CodeSnippet))

	output := out.String()
	assert.Contains(t, output, "Section Order '5': Section order present but no markdown or code snippet found. Section not created.")
	assert.Contains(t, output, "Invalid section_order 'abc'. Skipping section.")
	assert.Contains(t, output, "Content CSV Row 4: Skipping due to missing 'demo_slug'.")
	assert.Contains(t, output, "Demo with slug 'ghost' not found from summary CSV or DB. Skipping this content row.")
}

func TestRunUsesDemosAlreadyInStore(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()
	existing, _, err := repo.UpsertSummary(ctx, "legacy", demo.Summary{Title: "Legacy"})
	require.NoError(t, err)
	require.NoError(t, repo.CreateSection(ctx, &demo.Section{DemoID: existing.ID, SectionOrder: 9, ContentMarkdown: demo.OptionalString("Old")}))

	imp, out := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", "demo_slug,title,demo_description,demo_image_url\n")
	content := writeFile(t, dir, "content.csv",
		"demo_slug,page_title_csv,section_order,section_content_markdown\n"+
			"legacy,Legacy Page,1,New\n")

	require.NoError(t, imp.Run(ctx, RunOptions{SummaryPath: summary, ContentPath: content}))

	stored, err := repo.GetPublishedBySlug(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Legacy Page", stored.PageMetaTitle)
	require.Len(t, stored.Sections, 1)
	assert.Equal(t, "New", demo.StringValue(stored.Sections[0].ContentMarkdown))

	output := out.String()
	assert.Contains(t, output, "No demos were processed from the summary CSV.")
	assert.Contains(t, output, "found in DB but not in summary CSV. Proceeding with content.")
	assert.Contains(t, output, "Cleared old sections for Demo: 'Legacy' (Slug: legacy)")
}

func TestRunPreservesMetadataUnlessRefreshed(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()
	imp, _ := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", exampleSummary)
	content := writeFile(t, dir, "content.csv", exampleContent)
	renamed := writeFile(t, dir, "renamed.csv", "demo_slug,title,demo_description,demo_image_url\nfoo,Foo Reloaded,D,U\n")

	require.NoError(t, imp.Run(ctx, RunOptions{SummaryPath: summary, ContentPath: content}))
	require.NoError(t, imp.Run(ctx, RunOptions{SummaryPath: renamed, ContentPath: content}))

	stored, err := repo.GetBySlug(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo Reloaded", stored.Title)
	assert.Equal(t, "Foo", stored.PageMetaTitle)

	require.NoError(t, imp.Run(ctx, RunOptions{SummaryPath: renamed, ContentPath: content, MetadataPolicy: RefreshDerived}))

	stored, err = repo.GetBySlug(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo Reloaded", stored.PageMetaTitle)
	assert.Equal(t, "Learn more about Foo Reloaded.", stored.MetaDescription)
}

func TestRunFailsBeforeWritingWhenHeadersAreMissing(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	imp, _ := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", exampleSummary)
	content := writeFile(t, dir, "content.csv", "slug,section_order\nfoo,1\n")

	err := imp.Run(context.Background(), RunOptions{SummaryPath: summary, ContentPath: content})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingColumns))

	stored, err := repo.GetBySlug(context.Background(), "foo")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRunRollsBackWhenCancelled(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	imp, _ := newTestImporter(t, repo)
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.csv", exampleSummary)
	content := writeFile(t, dir, "content.csv", exampleContent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, imp.Run(ctx, RunOptions{SummaryPath: summary, ContentPath: content}))

	stored, err := repo.GetBySlug(context.Background(), "foo")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func snapshot(t *testing.T, repo demo.Repository, slug string) []demo.Section {
	t.Helper()

	stored, err := repo.GetBySlug(context.Background(), slug)
	require.NoError(t, err)
	require.NotNil(t, stored)

	list, err := repo.ListSections(context.Background(), stored.ID)
	require.NoError(t, err)

	for i := range list {
		list[i].ID = 0
		list[i].CreatedAt = time.Time{}
		list[i].UpdatedAt = time.Time{}
	}
	return list
}
