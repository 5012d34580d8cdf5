package http

import (
	"context"
	"math"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/db"
	"portfolio/app/internal/demo"
	"portfolio/app/internal/http/templates"
	"portfolio/app/internal/llm"
	"portfolio/app/internal/sections"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	markdownContentType  = "text/markdown; charset=utf-8"
	errorFallbackMessage = "We couldn't process your request right now."
	catalogTitle         = "Demos & Concepts"
	markdownErrorHTML    = "<p>Error processing content. Please check the Markdown syntax.</p>"

	analyzeSentimentOperation = "analyze-sentiment"
	healthOperation           = "health"
)

type catalogInput struct {
	Page string `query:"page"`
}

type demoInput struct {
	Slug string `path:"slug"`
}

type sentimentPageInput struct {
	Text string `query:"text"`
}

type sentimentInput struct {
	Body struct {
		Text string `json:"text" doc:"Text to classify"`
	}
}

type sentimentOutput struct {
	Body struct {
		Label        string  `json:"label"`
		Score        float64 `json:"score"`
		ScorePercent float64 `json:"score_percent"`
	}
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Analyzer string `json:"analyzer"`
	}
}

func (s *Server) registerDemoListRoute() {
	huma.Get(s.api, "/demos/", s.catalogHandler, htmlOperation("list-demos", "List published demos", stdhttp.StatusInternalServerError))
}

func (s *Server) registerDemoRoute() {
	huma.Get(s.api, "/demos/concepts/{slug}/", s.demoHandler, htmlOperation(
		"get-demo",
		"Render a generic demo page",
		stdhttp.StatusBadRequest,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerDemoSourceRoute() {
	huma.Get(s.api, "/demos/concepts/{slug}/source", s.demoSourceHandler, func(op *huma.Operation) {
		op.OperationID = "get-demo-source"
		op.Summary = "Fetch the aggregated Markdown of a demo"
		op.Responses = map[string]*huma.Response{
			"200": {
				Description: stdhttp.StatusText(stdhttp.StatusOK),
				Content: map[string]*huma.MediaType{
					markdownContentType: {Schema: &huma.Schema{Type: "string"}},
				},
			},
		}
	})
}

func (s *Server) registerSentimentRoutes() {
	huma.Get(s.api, "/demos/sentiment-analyzer/", s.sentimentPageHandler, htmlOperation(
		"sentiment-page",
		"Sentiment analysis demo page",
		stdhttp.StatusBadRequest,
		stdhttp.StatusServiceUnavailable,
	))
	huma.Post(s.api, "/demos/sentiment-analyzer", s.sentimentHandler, func(op *huma.Operation) {
		op.OperationID = analyzeSentimentOperation
		op.Summary = "Classify the sentiment of a text"
		op.DefaultStatus = stdhttp.StatusOK
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.OperationID = healthOperation
		op.Summary = "Health check"
	})
}

func (s *Server) catalogHandler(ctx context.Context, input *catalogInput) (*pageResponse, error) {
	page, err := s.demos.Catalog(ctx, input.Page)
	if err != nil {
		s.recordError(ctx, err, "loading demo catalog", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "Could not load demos at this time.")
	}

	data := templates.DemoListPageData{
		Title:    catalogTitle,
		Cards:    make([]templates.CardView, 0, len(page.Cards)),
		Page:     page.Number,
		NumPages: page.NumPages,
	}
	for _, card := range page.Cards {
		data.Cards = append(data.Cards, templates.CardView(card))
	}
	if page.HasPrevious() {
		data.PreviousURL = "/demos/?page=" + strconv.Itoa(page.Number-1)
	}
	if page.HasNext() {
		data.NextURL = "/demos/?page=" + strconv.Itoa(page.Number+1)
	}

	body, err := renderComponent(ctx, templates.DemoListPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering demo catalog", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render the demo list.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) demoHandler(ctx context.Context, input *demoInput) (*pageResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	d, err := s.demos.PublishedDemo(ctx, slug)
	if err != nil {
		status, message := classifyError(err)
		if status >= stdhttp.StatusInternalServerError {
			s.recordError(ctx, err, "loading demo page", logrus.Fields{"slug": slug})
		}
		return s.renderErrorResponse(ctx, status, message)
	}

	data := templates.DemoPageData{
		Title:           d.DisplayTitle(),
		MetaDescription: d.MetaDescription,
		MetaKeywords:    d.MetaKeywords,
		Heading:         d.Title,
		SourceURL:       d.URL() + "source",
	}

	source := sections.Document(sections.FromDemo(d))
	if source != "" {
		rendered, err := s.renderer.Render(source)
		if err != nil {
			s.recordError(ctx, err, "rendering demo markdown", logrus.Fields{"slug": slug})
			data.HTML = markdownErrorHTML
		} else {
			data.HTML = rendered.HTML
			for _, heading := range rendered.Headings {
				data.TOC = append(data.TOC, templates.TOCEntry(heading))
			}
		}
	}

	body, err := renderComponent(ctx, templates.DemoPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering demo page", logrus.Fields{"slug": slug})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render this demo.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) demoSourceHandler(ctx context.Context, input *demoInput) (*pageResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	d, err := s.demos.PublishedDemo(ctx, slug)
	if err != nil {
		status, message := classifyError(err)
		if status >= stdhttp.StatusInternalServerError {
			s.recordError(ctx, err, "loading demo source", logrus.Fields{"slug": slug})
		}
		return s.renderErrorResponse(ctx, status, message)
	}

	return &pageResponse{
		Status:      stdhttp.StatusOK,
		ContentType: markdownContentType,
		Body:        []byte(sections.Document(sections.FromDemo(d))),
	}, nil
}

func (s *Server) sentimentPageHandler(ctx context.Context, input *sentimentPageInput) (*pageResponse, error) {
	data := templates.SentimentPageData{
		Available: s.analyzer != nil,
		Text:      input.Text,
	}
	status := stdhttp.StatusOK

	switch {
	case s.analyzer == nil:
		status = stdhttp.StatusServiceUnavailable
	case strings.TrimSpace(input.Text) != "":
		result, err := s.analyzer.Analyze(ctx, input.Text)
		if err != nil {
			s.recordError(ctx, err, "analysing sentiment", nil)
			data.ErrorMessage = "Error during sentiment analysis. Please try again."
		} else {
			data.Label = result.Label
			data.ScorePercent = strconv.FormatFloat(scorePercent(result.Score), 'f', 1, 64)
		}
	}

	body, err := renderComponent(ctx, templates.SentimentPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering sentiment page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage)
	}

	return newHTMLResponse(status, body), nil
}

func (s *Server) sentimentHandler(ctx context.Context, input *sentimentInput) (*sentimentOutput, error) {
	if s.analyzer == nil {
		return nil, huma.Error503ServiceUnavailable("sentiment analysis is not configured")
	}

	text := strings.TrimSpace(input.Body.Text)
	if text == "" {
		return nil, huma.Error400BadRequest("text is required")
	}

	result, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		if eris.Is(err, llm.ErrEmptyText) {
			return nil, huma.Error400BadRequest("text is required")
		}
		s.recordError(ctx, err, "analysing sentiment", nil)
		return nil, huma.Error502BadGateway("sentiment analysis failed")
	}

	out := &sentimentOutput{}
	out.Body.Label = result.Label
	out.Body.Score = result.Score
	out.Body.ScorePercent = scorePercent(result.Score)
	return out, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Analyzer = "ready"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if s.analyzer == nil {
		resp.Body.Analyzer = "unconfigured"
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

// scorePercent converts a 0..1 confidence into a percentage with one decimal.
func scorePercent(score float64) float64 {
	return math.Round(score*1000) / 10
}

func classifyError(err error) (int, string) {
	if err == nil {
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}

	if eris.Is(err, demo.ErrNotFound) {
		return stdhttp.StatusNotFound, "We couldn't find that demo. It may have been unpublished."
	}

	cause := strings.ToLower(eris.Cause(err).Error())
	switch {
	case strings.Contains(cause, "slug is required"):
		return stdhttp.StatusBadRequest, "A demo slug is required to load a page."
	default:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		if slug := DemoSlugFromContext(ctx); slug != "" {
			entry = entry.WithField("demo_slug", slug)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
