package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// DemoListPage renders the paginated catalog of demos.
func DemoListPage(data DemoListPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<h1>`)
		p.text(data.Title)
		p.raw(`</h1>`)

		if len(data.Cards) == 0 {
			p.raw(`<p class="empty">No demos are available yet. Check back soon.</p>`)
			return p.err
		}

		p.raw(`<div class="card-grid">`)
		for _, card := range data.Cards {
			p.raw(`<article class="card" id="`)
			p.text(card.ID)
			p.raw(`"><img src="`)
			p.text(card.ImageURL)
			p.raw(`" alt="`)
			p.text(card.Title)
			p.raw(`" loading="lazy"><h2><a href="`)
			p.text(card.DetailURL)
			p.raw(`">`)
			p.text(card.Title)
			p.raw(`</a></h2><p>`)
			p.text(card.Description)
			p.raw(`</p></article>`)
		}
		p.raw(`</div>`)

		if data.NumPages > 1 {
			p.raw(`<nav class="pagination">`)
			if data.PreviousURL != "" {
				p.raw(`<a rel="prev" href="`)
				p.text(data.PreviousURL)
				p.raw(`">Previous</a>`)
			}
			p.raw(fmt.Sprintf(`<span>Page %d of %d</span>`, data.Page, data.NumPages))
			if data.NextURL != "" {
				p.raw(`<a rel="next" href="`)
				p.text(data.NextURL)
				p.raw(`">Next</a>`)
			}
			p.raw(`</nav>`)
		}
		return p.err
	})

	return layout(layoutMeta{Title: data.Title}, body)
}

// DemoPage renders a generic demo assembled from its sections.
func DemoPage(data DemoPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<article class="demo"><h1>`)
		p.text(data.Heading)
		p.raw(`</h1>`)

		if len(data.TOC) > 0 {
			p.raw(`<nav class="toc"><ul>`)
			for _, entry := range data.TOC {
				p.raw(fmt.Sprintf(`<li class="toc-level-%d"><a href="#`, entry.Level))
				p.text(entry.ID)
				p.raw(`">`)
				p.text(entry.Text)
				p.raw(`</a></li>`)
			}
			p.raw(`</ul></nav>`)
		}

		if data.HTML == "" {
			p.raw(`<p class="empty">Content for this demo is on its way.</p>`)
		} else {
			p.raw(`<div class="demo-content">`)
			p.component(ctx, RawHTML(data.HTML))
			p.raw(`</div>`)
		}

		if data.SourceURL != "" {
			p.raw(`<p class="source"><a href="`)
			p.text(data.SourceURL)
			p.raw(`">View Markdown source</a></p>`)
		}
		p.raw(`<p><a href="/demos/">Back to all demos</a></p></article>`)
		return p.err
	})

	return layout(layoutMeta{
		Title:       data.Title,
		Description: data.MetaDescription,
		Keywords:    data.MetaKeywords,
	}, body)
}

// SentimentPage renders the sentiment analysis form and its result.
func SentimentPage(data SentimentPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<h1>Sentiment Analysis Demo</h1>`)

		if !data.Available {
			p.raw(`<p class="error">Sentiment analysis is not configured on this server.</p>`)
			return p.err
		}

		p.raw(`<form method="get" action="/demos/sentiment-analyzer/">`,
			`<label for="text">Text to analyse</label><textarea id="text" name="text" rows="5">`)
		p.text(data.Text)
		p.raw(`</textarea><button type="submit">Analyse</button></form>`)

		if data.ErrorMessage != "" {
			p.raw(`<p class="error">`)
			p.text(data.ErrorMessage)
			p.raw(`</p>`)
		}
		if data.Label != "" {
			p.raw(`<section class="result"><p>Sentiment: <strong>`)
			p.text(data.Label)
			p.raw(`</strong></p><p>Confidence: `)
			p.text(data.ScorePercent)
			p.raw(`%</p></section>`)
		}
		return p.err
	})

	return layout(layoutMeta{Title: "Sentiment Analysis Demo"}, body)
}

// ErrorPage renders an error view.
func ErrorPage(data ErrorPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<section class="error-page"><h1>`)
		p.text(data.StatusLabel)
		p.raw(`</h1><p>`)
		p.text(data.Message)
		p.raw(`</p><p><a href="/demos/">Back to all demos</a></p></section>`)
		return p.err
	})

	return layout(layoutMeta{Title: data.Title}, body)
}
