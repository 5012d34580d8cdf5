package http

import (
	"bytes"
	"context"
	"fmt"
	stdhttp "net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/http/templates"
)

// pageResponse is the raw HTML or Markdown body returned by the page routes.
type pageResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func renderComponent(ctx context.Context, component templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "rendering component")
	}
	return buf.Bytes(), nil
}

func newHTMLResponse(status int, body []byte) *pageResponse {
	return &pageResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

// htmlOperation documents a page route whose responses are HTML for every listed status.
func htmlOperation(operationID, summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		op.OperationID = operationID
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		for _, status := range append([]int{stdhttp.StatusOK}, statuses...) {
			op.Responses[strconv.Itoa(status)] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {Schema: &huma.Schema{Type: "string"}},
				},
			}
		}
	}
}

// renderErrorResponse renders the demo error page; a template failure falls back to bare markup.
func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) (*pageResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))
	page := templates.ErrorPage(templates.ErrorPageData{
		Title:       label,
		StatusLabel: label,
		Message:     message,
	})

	body, err := renderComponent(ctx, page)
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>",
			templ.EscapeString(label), templ.EscapeString(message))
		return newHTMLResponse(status, []byte(fallback)), nil
	}

	return newHTMLResponse(status, body), nil
}

// writeError answers outside a handler: JSON problem details for API operations,
// the HTML error page for everything else.
func (s *Server) writeError(ctx huma.Context, status int, message string) {
	if isAPIOperation(ctx.Operation()) {
		if err := huma.WriteErr(s.api, ctx, status, message); err != nil && s.logger != nil {
			s.logger.WithError(err).WithFields(requestFields(ctx)).Error("writing error response failed")
		}
		return
	}

	resp, _ := s.renderErrorResponse(ctx.Context(), status, message)
	ctx.SetHeader("Content-Type", resp.ContentType)
	ctx.SetStatus(status)
	_, _ = ctx.BodyWriter().Write(resp.Body)
}

func isAPIOperation(op *huma.Operation) bool {
	if op == nil {
		return false
	}
	return op.OperationID == analyzeSentimentOperation || op.OperationID == healthOperation
}
