// Package markdown renders demo sections to HTML and collects their headings.
package markdown

import (
	"bytes"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Heading is one entry of a page's table of contents.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Document is rendered Markdown plus the headings found in it.
type Document struct {
	HTML     string
	Headings []Heading
}

// Renderer converts Markdown using a shared goldmark engine.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer builds a renderer with GFM, linkified URLs and generated heading IDs.
// Demo content is authored by the site owner, so raw HTML is passed through.
func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Render converts source to HTML and extracts h2/h3 headings for navigation.
func (r *Renderer) Render(source string) (Document, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(source), &buf); err != nil {
		return Document{}, eris.Wrap(err, "rendering markdown")
	}

	rendered := buf.String()
	headings, err := collectHeadings(rendered)
	if err != nil {
		return Document{}, err
	}

	return Document{HTML: rendered, Headings: headings}, nil
}

func collectHeadings(fragment string) ([]Heading, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, eris.Wrap(err, "parsing rendered markdown")
	}

	var headings []Heading
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if level := headingLevel(node.DataAtom); level > 0 {
				headings = append(headings, Heading{
					Level: level,
					ID:    attribute(node, "id"),
					Text:  strings.Join(strings.Fields(textContent(node)), " "),
				})
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	for _, node := range nodes {
		walk(node)
	}
	return headings, nil
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	default:
		return 0
	}
}

func attribute(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}

	var builder strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		builder.WriteString(textContent(child))
	}
	return builder.String()
}
