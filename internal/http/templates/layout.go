package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

type layoutMeta struct {
	Title       string
	Description string
	Keywords    string
}

func layout(meta layoutMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p := &pageWriter{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`, `<title>`)
		p.text(pageTitle(meta.Title))
		p.raw(`</title>`)
		if meta.Description != "" {
			p.raw(`<meta name="description" content="`)
			p.text(meta.Description)
			p.raw(`">`)
		}
		if meta.Keywords != "" {
			p.raw(`<meta name="keywords" content="`)
			p.text(meta.Keywords)
			p.raw(`">`)
		}
		p.raw(`<link rel="stylesheet" href="/static/site.css"></head><body>`,
			`<header class="site-header"><a href="/demos/">`)
		p.text(SiteName)
		p.raw(`</a></header><main class="container">`)
		p.component(ctx, body)
		p.raw(`</main></body></html>`)
		return p.err
	})
}
