package demo

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ErrNotFound indicates there is no published demo for the requested slug.
var ErrNotFound = eris.New("demo not found")

const (
	// DefaultPageSize is the number of cards shown per catalog page.
	DefaultPageSize = 9
	// PlaceholderImageURL is used for cards without an image.
	PlaceholderImageURL    = "https://placehold.co/600x400/cccccc/ffffff?text=Preview+Not+Available"
	defaultCardDescription = "Detailed content available."
)

// Service defines the read operations behind the demo pages.
type Service interface {
	PublishedDemo(ctx context.Context, slug string) (*Demo, error)
	Catalog(ctx context.Context, page string) (CatalogPage, error)
}

// Card is one entry of the demo catalog.
type Card struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	DetailURL   string
}

// CatalogPage is a single page of the sorted demo catalog.
type CatalogPage struct {
	Cards      []Card
	Number     int
	NumPages   int
	TotalCards int
}

// HasPrevious reports whether a page precedes this one.
func (p CatalogPage) HasPrevious() bool {
	return p.Number > 1
}

// HasNext reports whether a page follows this one.
func (p CatalogPage) HasNext() bool {
	return p.Number < p.NumPages
}

// ServiceOptions configures the demo service.
type ServiceOptions struct {
	Repository Repository
	Logger     *logrus.Logger
	SentryHub  *sentry.Hub
	// Interactive lists hand-built demo pages. They are only shown once the
	// catalog holds at least one published demo.
	Interactive []Card
	PageSize    int
}

type service struct {
	repo        Repository
	logger      *logrus.Logger
	sentryHub   *sentry.Hub
	interactive []Card
	pageSize    int
}

var _ Service = (*service)(nil)

// NewService wires the demo service with its dependencies.
func NewService(opts ServiceOptions) (Service, error) {
	if opts.Repository == nil {
		return nil, eris.New("demo repository is required")
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &service{
		repo:        opts.Repository,
		logger:      opts.Logger,
		sentryHub:   opts.SentryHub,
		interactive: append([]Card(nil), opts.Interactive...),
		pageSize:    pageSize,
	}, nil
}

func (s *service) PublishedDemo(ctx context.Context, slug string) (*Demo, error) {
	trimmedSlug := strings.TrimSpace(slug)
	if trimmedSlug == "" {
		return nil, eris.New("slug is required")
	}

	demo, err := s.repo.GetPublishedBySlug(ctx, trimmedSlug)
	if err != nil {
		s.recordError(logrus.Fields{"slug": trimmedSlug}, err, "retrieving published demo")
		return nil, eris.Wrapf(err, "retrieving demo: %s", trimmedSlug)
	}

	if demo == nil {
		if s.logger != nil {
			s.logger.WithField("slug", trimmedSlug).Warn("published demo not found")
		}
		return nil, eris.Wrapf(ErrNotFound, "demo %s", trimmedSlug)
	}

	return demo, nil
}

func (s *service) Catalog(ctx context.Context, page string) (CatalogPage, error) {
	demos, err := s.repo.ListPublished(ctx)
	if err != nil {
		s.recordError(nil, err, "listing published demos")
		return CatalogPage{}, eris.Wrap(err, "listing published demos")
	}

	cards := make([]Card, 0, len(demos)+len(s.interactive))
	for _, d := range demos {
		cards = append(cards, cardFromDemo(d))
	}

	if len(demos) > 0 {
		for _, card := range s.interactive {
			if card.ImageURL == "" {
				card.ImageURL = PlaceholderImageURL
			}
			cards = append(cards, card)
		}
	} else if s.logger != nil {
		s.logger.Info("no published demos found; interactive demos hidden")
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return strings.ToLower(cards[i].Title) < strings.ToLower(cards[j].Title)
	})

	return paginate(cards, page, s.pageSize), nil
}

func cardFromDemo(d Demo) Card {
	description := strings.TrimSpace(StringValue(d.Description))
	if description == "" {
		description = defaultCardDescription
	}

	image := strings.TrimSpace(StringValue(d.ImageURL))
	if image == "" {
		image = PlaceholderImageURL
	}

	return Card{
		ID:          "db_" + d.Slug,
		Title:       d.Title,
		Description: description,
		ImageURL:    image,
		DetailURL:   d.URL(),
	}
}

// paginate returns the requested page. A non-integer page yields the first page
// and an out-of-range page yields the last one.
func paginate(cards []Card, rawPage string, pageSize int) CatalogPage {
	numPages := (len(cards) + pageSize - 1) / pageSize
	if numPages == 0 {
		numPages = 1
	}

	number, err := strconv.Atoi(strings.TrimSpace(rawPage))
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	start := (number - 1) * pageSize
	end := start + pageSize
	if start > len(cards) {
		start = len(cards)
	}
	if end > len(cards) {
		end = len(cards)
	}

	return CatalogPage{
		Cards:      cards[start:end],
		Number:     number,
		NumPages:   numPages,
		TotalCards: len(cards),
	}
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
