package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// RawHTML returns a templ component that writes the provided HTML without escaping.
func RawHTML(html string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := io.WriteString(w, html)
		return err
	})
}

// pageWriter accumulates markup and remembers the first write error.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(parts ...string) {
	for _, part := range parts {
		if p.err != nil {
			return
		}
		_, p.err = io.WriteString(p.w, part)
	}
}

func (p *pageWriter) text(value string) {
	p.raw(templ.EscapeString(value))
}

func (p *pageWriter) component(ctx context.Context, c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

func pageTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return SiteName
	}
	return title + " • " + SiteName
}
