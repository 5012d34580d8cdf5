package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolio/app/internal/config"
	appdb "portfolio/app/internal/db"
	"portfolio/app/internal/demo"
	apphttp "portfolio/app/internal/http"
	"portfolio/app/internal/llm"
	"portfolio/app/internal/markdown"
)

// SentimentCard is the hand-built sentiment page listed alongside imported demos.
var SentimentCard = demo.Card{
	ID:          "hc_demos_sentiment_analyzer",
	Title:       "Sentiment Analysis Demo",
	Description: "Classify a piece of text as positive, negative or neutral with a hosted language model.",
	ImageURL:    "https://placehold.co/600x400/10b981/FFFFFF?text=Sentiment+Analysis",
	DetailURL:   "/demos/sentiment-analyzer/",
}

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	Repository  *demo.GormRepository
	DemoService demo.Service
	Analyzer    llm.SentimentAnalyzer
	HTTPServer  *apphttp.Server
	Database    *gorm.DB
	Cleanup     func() error
}

// OpenStore opens the database, applies the demo schema and returns the repository.
// The importer uses it on its own; Build layers the web stack on top.
func OpenStore(ctx context.Context, deps Dependencies) (*gorm.DB, *demo.GormRepository, error) {
	db, err := appdb.Open(appdb.Options{Path: deps.Config.DBPath})
	if err != nil {
		return nil, nil, eris.Wrap(err, "opening database")
	}

	if err := demo.Migrate(ctx, db, deps.Logger); err != nil {
		closeQuietly(db, deps.Logger)
		return nil, nil, eris.Wrap(err, "running demo migrations")
	}

	repo, err := demo.NewRepository(db, deps.Logger)
	if err != nil {
		closeQuietly(db, deps.Logger)
		return nil, nil, eris.Wrap(err, "creating demo repository")
	}

	return db, repo, nil
}

// Build composes the demo site and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	db, repo, err := OpenStore(ctx, deps)
	if err != nil {
		return Result{}, err
	}

	closeOnError := func(wrapper error) (Result, error) {
		closeQuietly(db, deps.Logger)
		return Result{}, wrapper
	}

	demoService, err := demo.NewService(demo.ServiceOptions{
		Repository:  repo,
		Logger:      deps.Logger,
		SentryHub:   deps.SentryHub,
		Interactive: []demo.Card{SentimentCard},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating demo service"))
	}

	analyzer, err := buildAnalyzer(deps)
	if err != nil {
		return closeOnError(err)
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		DemoService: demoService,
		Renderer:    markdown.NewRenderer(),
		Analyzer:    analyzer,
		Database:    db,
		Logger:      deps.Logger,
		SentryHub:   deps.SentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             deps.Config.RateLimit.Burst,
			RequestsPerSecond: deps.Config.RateLimit.RequestsPerSecond,
			ClientTTL:         deps.Config.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return appdb.Close(db)
	}

	return Result{
		Repository:  repo,
		DemoService: demoService,
		Analyzer:    analyzer,
		HTTPServer:  httpServer,
		Database:    db,
		Cleanup:     cleanup,
	}, nil
}

// buildAnalyzer returns nil when no LLM credentials are configured; the
// sentiment page then reports itself unavailable.
func buildAnalyzer(deps Dependencies) (llm.SentimentAnalyzer, error) {
	if deps.Config.LLMAPIKey == "" {
		if deps.Logger != nil {
			deps.Logger.Info("LLM_API_KEY not set; sentiment demo disabled")
		}
		return nil, nil
	}

	if len(deps.Config.LLMModels) == 0 {
		return nil, eris.New("LLM_MODELS must include at least one model name when LLM_API_KEY is set")
	}

	client, err := llm.NewClient(llm.ClientOptions{
		APIKey:  deps.Config.LLMAPIKey,
		BaseURL: deps.Config.LLMEndpoint,
		Logger:  deps.Logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating llm client")
	}

	analyzer, err := llm.NewSentimentAnalyzer(llm.AnalyzerOptions{
		Client: client,
		Models: deps.Config.LLMModels,
	})
	if err != nil {
		return nil, eris.Wrap(err, "initialising sentiment analyzer")
	}

	return analyzer, nil
}

func closeQuietly(db *gorm.DB, logger *logrus.Logger) {
	if closeErr := appdb.Close(db); closeErr != nil && logger != nil {
		logger.WithError(closeErr).Error("closing database after bootstrap failure")
	}
}
