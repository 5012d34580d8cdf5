package sections

import (
	"strings"
	"testing"

	"portfolio/app/internal/demo"
)

func TestAggregateOrdersSectionsBySectionOrder(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Slug: "foo", Order: "2", Title: "B", Markdown: "Second"},
		{Slug: "foo", Order: "1", Title: "A", Markdown: "First"},
	}

	got := Aggregate(rows)["foo"]
	expected := "## A\n\nFirst\n" + "\n---\n\n" + "## B\n\nSecond\n"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestAggregateTreatsUnparsableOrdersAsLast(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Slug: "foo", Order: "later", Markdown: "unparsable"},
		{Slug: "foo", Order: "", Markdown: "missing"},
		{Slug: "foo", Order: "1000", Markdown: "thousand"},
		{Slug: "foo", Order: "998.5", Markdown: "early"},
	}

	got := Aggregate(rows)["foo"]
	parts := strings.Split(got, Separator)
	expected := []string{"early\n", "unparsable\n", "missing\n", "thousand\n"}
	if len(parts) != len(expected) {
		t.Fatalf("expected %d parts, got %d: %q", len(expected), len(parts), got)
	}
	for i, part := range expected {
		if parts[i] != part {
			t.Fatalf("expected part %d to be %q, got %q", i, part, parts[i])
		}
	}
}

func TestAggregateIgnoresFullyEmptyRows(t *testing.T) {
	t.Parallel()

	base := []Row{
		{Slug: "foo", Order: "1", Title: "A", Markdown: "First"},
		{Slug: "foo", Order: "2", Title: "B", Markdown: "Second"},
	}
	withEmpty := append([]Row{{Slug: "foo", Order: "1.5"}, {Slug: "foo", Order: "x", Title: "   "}}, base...)

	if Aggregate(base)["foo"] != Aggregate(withEmpty)["foo"] {
		t.Fatalf("expected empty rows not to change the output")
	}

	if _, ok := Aggregate([]Row{{Slug: "empty", Order: "1"}})["empty"]; ok {
		t.Fatalf("expected slug without content to be absent")
	}
}

func TestAggregateSkipsRowsWithoutSlug(t *testing.T) {
	t.Parallel()

	got := Aggregate([]Row{{Slug: " ", Order: "1", Markdown: "orphan"}})
	if len(got) != 0 {
		t.Fatalf("expected no slugs, got %v", got)
	}
}

func TestRenderCodeSectionDefaults(t *testing.T) {
	t.Parallel()

	got := Render(Row{CodeSnippet: "print('hi')", CodeExplanation: "Greets."})
	expected := "### Code Example\n" + "\n" + "```plaintext\nprint('hi')\n```\n" + "\n" + "**Explanation:**\nGreets.\n"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestRenderCodeSectionWithLanguageAndTitle(t *testing.T) {
	t.Parallel()

	got := Render(Row{Title: "Setup", CodeLanguage: "go", CodeSnippetTitle: "main.go", CodeSnippet: "package main"})
	if !strings.HasPrefix(got, "## Setup\n\n### main.go\n\n```go\npackage main\n```\n") {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestAggregateKeepsInputOrderForTies(t *testing.T) {
	t.Parallel()

	got := Aggregate([]Row{
		{Slug: "foo", Order: "1", Markdown: "one"},
		{Slug: "foo", Order: "1.0", Markdown: "two"},
	})["foo"]

	if got != "one\n"+Separator+"two\n" {
		t.Fatalf("expected stable order, got %q", got)
	}
}

func TestParseOrder(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		value float64
		ok    bool
	}{
		"1":     {1, true},
		" 2.5 ": {2.5, true},
		"-3":    {-3, true},
		"":      {0, false},
		"abc":   {0, false},
		"NaN":   {0, false},
		"inf":   {0, false},
	}

	for raw, expected := range cases {
		value, ok := ParseOrder(raw)
		if ok != expected.ok || value != expected.value {
			t.Fatalf("ParseOrder(%q) = %v, %v; expected %v, %v", raw, value, ok, expected.value, expected.ok)
		}
	}

	if SortKey("nope") != UnorderedPosition {
		t.Fatalf("expected unparsable order to sort at %v", UnorderedPosition)
	}
}

func TestFromDemoRoundTripsStoredSections(t *testing.T) {
	t.Parallel()

	d := &demo.Demo{
		Slug: "foo",
		Sections: []demo.Section{
			{SectionOrder: 1, SectionTitle: demo.OptionalString("A"), ContentMarkdown: demo.OptionalString("First")},
			{SectionOrder: 2.5, CodeSnippet: demo.OptionalString("x := 1"), CodeLanguage: demo.OptionalString("go")},
		},
	}

	rows := FromDemo(d)
	if len(rows) != 2 || rows[1].Order != "2.5" || rows[0].Slug != "foo" {
		t.Fatalf("unexpected rows %#v", rows)
	}

	got := Document(rows)
	if !strings.Contains(got, "```go\nx := 1\n```") || !strings.HasPrefix(got, "## A\n") {
		t.Fatalf("unexpected document %q", got)
	}

	if FromDemo(nil) != nil {
		t.Fatalf("expected nil rows for nil demo")
	}
}

func TestRenderKeepsBodyIndentation(t *testing.T) {
	t.Parallel()

	got := Render(Row{Title: "Loop", Markdown: "    for i := range n {}", CodeSnippet: "  x := 1"})
	expected := "## Loop\n" + "\n" + "    for i := range n {}\n" + "\n" + "### Code Example\n" + "\n" + "```plaintext\n  x := 1\n```\n"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}

	if got := Render(Row{Markdown: "   ", CodeExplanation: "\t"}); got != "" {
		t.Fatalf("expected whitespace-only row to render nothing, got %q", got)
	}
}
