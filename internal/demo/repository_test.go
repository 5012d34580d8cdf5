package demo

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/db"
)

func TestNewRepositoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestGetBySlugReturnsNilForMissingDemo(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	demo, err := repo.GetBySlug(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if demo != nil {
		t.Fatalf("expected nil demo for missing slug, got %#v", demo)
	}
}

func TestUpsertSummaryCreatesWithModelDefaults(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	created, wasCreated, err := repo.UpsertSummary(ctx, " alpha ", Summary{Title: "Alpha"})
	if err != nil {
		t.Fatalf("UpsertSummary returned error: %v", err)
	}
	if !wasCreated {
		t.Fatalf("expected demo to be created")
	}
	if created.Slug != "alpha" {
		t.Fatalf("expected slug trimmed to 'alpha', got %q", created.Slug)
	}

	stored, err := repo.GetBySlug(ctx, "alpha")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected stored demo to be present")
	}
	if !stored.IsPublished || stored.IsFeatured {
		t.Fatalf("expected defaults published=true featured=false, got %v/%v", stored.IsPublished, stored.IsFeatured)
	}
	if stored.Description != nil || stored.ImageURL != nil {
		t.Fatalf("expected NULL description and image url, got %v/%v", stored.Description, stored.ImageURL)
	}
}

func TestUpsertSummaryUpdatesOnlyProvidedFlags(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	unpublished := false
	featured := true
	if _, _, err := repo.UpsertSummary(ctx, "beta", Summary{Title: "Beta", IsPublished: &unpublished, IsFeatured: &featured}); err != nil {
		t.Fatalf("UpsertSummary returned error: %v", err)
	}

	updated, wasCreated, err := repo.UpsertSummary(ctx, "beta", Summary{Title: "Beta v2", Description: OptionalString("New")})
	if err != nil {
		t.Fatalf("UpsertSummary returned error: %v", err)
	}
	if wasCreated {
		t.Fatalf("expected second upsert to update")
	}

	stored, err := repo.GetBySlug(ctx, "beta")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if stored.ID != updated.ID {
		t.Fatalf("expected same row to be updated, got ids %d and %d", stored.ID, updated.ID)
	}
	if stored.Title != "Beta v2" || StringValue(stored.Description) != "New" {
		t.Fatalf("expected summary fields to be updated, got %q/%q", stored.Title, StringValue(stored.Description))
	}
	if stored.IsPublished || !stored.IsFeatured {
		t.Fatalf("expected flags to be preserved, got published=%v featured=%v", stored.IsPublished, stored.IsFeatured)
	}
}

func TestCreateSectionRejectsDuplicateOrder(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	demo, _, err := repo.UpsertSummary(ctx, "gamma", Summary{Title: "Gamma"})
	if err != nil {
		t.Fatalf("UpsertSummary returned error: %v", err)
	}

	first := &Section{DemoID: demo.ID, SectionOrder: 1, ContentMarkdown: OptionalString("First")}
	if err := repo.CreateSection(ctx, first); err != nil {
		t.Fatalf("CreateSection returned error: %v", err)
	}

	duplicate := &Section{DemoID: demo.ID, SectionOrder: 1, ContentMarkdown: OptionalString("Again")}
	err = repo.CreateSection(ctx, duplicate)
	if !eris.Is(err, ErrDuplicateSection) {
		t.Fatalf("expected ErrDuplicateSection, got %v", err)
	}

	sections, err := repo.ListSections(ctx, demo.ID)
	if err != nil {
		t.Fatalf("ListSections returned error: %v", err)
	}
	if len(sections) != 1 || StringValue(sections[0].ContentMarkdown) != "First" {
		t.Fatalf("expected only the first section to survive, got %#v", sections)
	}
}

func TestDeleteSectionsRemovesEverySection(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	demo, _, err := repo.UpsertSummary(ctx, "delta", Summary{Title: "Delta"})
	if err != nil {
		t.Fatalf("UpsertSummary returned error: %v", err)
	}

	for _, order := range []float64{2, 1, 1.5} {
		if err := repo.CreateSection(ctx, &Section{DemoID: demo.ID, SectionOrder: order}); err != nil {
			t.Fatalf("CreateSection returned error: %v", err)
		}
	}

	sections, err := repo.ListSections(ctx, demo.ID)
	if err != nil {
		t.Fatalf("ListSections returned error: %v", err)
	}
	expected := []float64{1, 1.5, 2}
	for i, order := range expected {
		if sections[i].SectionOrder != order {
			t.Fatalf("expected order %v at index %d, got %v", order, i, sections[i].SectionOrder)
		}
	}

	deleted, err := repo.DeleteSections(ctx, demo.ID)
	if err != nil {
		t.Fatalf("DeleteSections returned error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted sections, got %d", deleted)
	}
}

func TestGetPublishedBySlugHidesDrafts(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	draft := false
	if _, _, err := repo.UpsertSummary(ctx, "draft", Summary{Title: "Draft", IsPublished: &draft}); err != nil {
		t.Fatalf("UpsertSummary returned error: %v", err)
	}

	demo, err := repo.GetPublishedBySlug(ctx, "draft")
	if err != nil {
		t.Fatalf("GetPublishedBySlug returned error: %v", err)
	}
	if demo != nil {
		t.Fatalf("expected draft demo to be hidden")
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx Repository) error {
		if _, _, err := tx.UpsertSummary(ctx, "epsilon", Summary{Title: "Epsilon"}); err != nil {
			return err
		}
		return eris.New("abort")
	})
	if err == nil {
		t.Fatalf("expected transaction error")
	}

	demo, err := repo.GetBySlug(ctx, "epsilon")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if demo != nil {
		t.Fatalf("expected demo to be rolled back")
	}
}

func TestNestedTransactionKeepsOuterWrites(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx Repository) error {
		demo, _, err := tx.UpsertSummary(ctx, "zeta", Summary{Title: "Zeta"})
		if err != nil {
			return err
		}
		if err := tx.CreateSection(ctx, &Section{DemoID: demo.ID, SectionOrder: 1}); err != nil {
			return err
		}

		nestedErr := tx.Transaction(ctx, func(inner Repository) error {
			return inner.CreateSection(ctx, &Section{DemoID: demo.ID, SectionOrder: 1})
		})
		if !eris.Is(nestedErr, ErrDuplicateSection) {
			t.Errorf("expected nested duplicate error, got %v", nestedErr)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction returned error: %v", err)
	}

	stored, err := repo.GetPublishedBySlug(ctx, "zeta")
	if err != nil {
		t.Fatalf("GetPublishedBySlug returned error: %v", err)
	}
	if stored == nil || len(stored.Sections) != 1 {
		t.Fatalf("expected demo with one section to be committed, got %#v", stored)
	}
}

func setupRepository(t *testing.T) *GormRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "repo.db")
	gormDB, err := db.Open(db.Options{Path: path})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := db.Close(gormDB); closeErr != nil {
			t.Fatalf("closing database failed: %v", closeErr)
		}
	})

	logger := silentLogger()

	if err := Migrate(context.Background(), gormDB, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := NewRepository(gormDB, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return repo
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
