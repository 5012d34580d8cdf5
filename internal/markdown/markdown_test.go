package markdown

import (
	"strings"
	"testing"
)

func TestRenderProducesHTMLAndHeadings(t *testing.T) {
	t.Parallel()

	renderer := NewRenderer()

	doc, err := renderer.Render("## Getting *Started*\n\nHello\n\n### Code Example\n\n```go\nfmt.Println(1)\n```\n")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if !strings.Contains(doc.HTML, `<h2 id="getting-started">Getting <em>Started</em></h2>`) {
		t.Fatalf("expected rendered h2 with generated id, got %q", doc.HTML)
	}
	if !strings.Contains(doc.HTML, `<code class="language-go">`) {
		t.Fatalf("expected fenced code block with language class, got %q", doc.HTML)
	}

	if len(doc.Headings) != 2 {
		t.Fatalf("expected two headings, got %#v", doc.Headings)
	}
	if got := doc.Headings[0]; got.Level != 2 || got.ID != "getting-started" || got.Text != "Getting Started" {
		t.Fatalf("unexpected first heading: %#v", got)
	}
	if got := doc.Headings[1]; got.Level != 3 || got.Text != "Code Example" {
		t.Fatalf("unexpected second heading: %#v", got)
	}
}

func TestRenderSkipsOtherHeadingLevels(t *testing.T) {
	t.Parallel()

	doc, err := NewRenderer().Render("# Title\n\n#### Deep\n\ntext\n")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(doc.Headings) != 0 {
		t.Fatalf("expected no h2/h3 headings, got %#v", doc.Headings)
	}
}

func TestRenderSupportsTables(t *testing.T) {
	t.Parallel()

	doc, err := NewRenderer().Render("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(doc.HTML, "<table>") {
		t.Fatalf("expected GFM table, got %q", doc.HTML)
	}
}
