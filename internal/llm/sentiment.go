package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Sentiment labels returned by an analyzer.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
)

// MaxSentimentInput bounds the text sent for analysis.
const MaxSentimentInput = 5000

// ErrEmptyText is returned when there is nothing to analyse.
var ErrEmptyText = eris.New("text is required")

// Sentiment is the classification of a piece of text. Score is the model's
// confidence in Label, between 0 and 1.
type Sentiment struct {
	Label string
	Score float64
}

// SentimentAnalyzer classifies free text; the sentiment demo page depends on it.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (Sentiment, error)
	Models() []string
}

// AnalyzerOptions configures the chat-completion backed analyzer.
type AnalyzerOptions struct {
	Client *Client
	// Models are tried in order until one answers.
	Models       []string
	SystemPrompt string
}

type chatSentimentAnalyzer struct {
	client         *Client
	logger         *logrus.Logger
	models         []string
	systemPrompt   string
	responseFormat openai.ChatCompletionNewParamsResponseFormatUnion
}

const defaultSentimentSystemPrompt = "You are a sentiment classifier. Label the user's text as POSITIVE, NEGATIVE or NEUTRAL and give your confidence between 0 and 1."

// NewSentimentAnalyzer constructs a SentimentAnalyzer backed by chat completions.
func NewSentimentAnalyzer(opts AnalyzerOptions) (SentimentAnalyzer, error) {
	if opts.Client == nil {
		return nil, eris.New("llm client is required")
	}

	models := make([]string, 0, len(opts.Models))
	for _, model := range opts.Models {
		if trimmed := strings.TrimSpace(model); trimmed != "" {
			models = append(models, trimmed)
		}
	}
	if len(models) == 0 {
		return nil, eris.New("at least one model is required")
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultSentimentSystemPrompt
	}

	return &chatSentimentAnalyzer{
		client:         opts.Client,
		logger:         opts.Client.logger,
		models:         models,
		systemPrompt:   systemPrompt,
		responseFormat: buildSentimentResponseFormat(),
	}, nil
}

func (a *chatSentimentAnalyzer) Models() []string {
	return append([]string(nil), a.models...)
}

func (a *chatSentimentAnalyzer) Analyze(ctx context.Context, text string) (Sentiment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Sentiment{}, ErrEmptyText
	}
	if len(trimmed) > MaxSentimentInput {
		trimmed = trimmed[:MaxSentimentInput]
	}

	var lastErr error
	for _, model := range a.models {
		result, err := a.analyzeWith(ctx, model, trimmed)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return Sentiment{}, eris.Wrap(ctx.Err(), "analysing sentiment")
		}

		a.logError(logrus.Fields{"model": model}, err, "sentiment model failed")
		lastErr = err
	}

	return Sentiment{}, eris.Wrap(lastErr, "analysing sentiment")
}

func (a *chatSentimentAnalyzer) analyzeWith(ctx context.Context, model, text string) (Sentiment, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.systemPrompt),
			openai.UserMessage(text),
		},
		ResponseFormat: a.responseFormat,
		Temperature:    openai.Float(0),
	}

	completion, err := a.client.chat.New(ctx, params)
	if err != nil {
		return Sentiment{}, eris.Wrapf(err, "requesting chat completion from %s", model)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return Sentiment{}, eris.New("llm completion returned no choices")
	}

	choice := completion.Choices[0]
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return Sentiment{}, eris.Errorf("llm refused to classify text: %s", refusal)
	}

	return parseSentiment(choice.Message.Content)
}

type sentimentPayload struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func parseSentiment(raw string) (Sentiment, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Sentiment{}, eris.New("llm response content is empty")
	}

	var payload sentimentPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return Sentiment{}, eris.Wrap(err, "decoding llm response json")
	}

	label := strings.ToUpper(strings.TrimSpace(payload.Label))
	switch label {
	case LabelPositive, LabelNegative, LabelNeutral:
	default:
		return Sentiment{}, eris.Errorf("unexpected sentiment label %q", payload.Label)
	}

	if payload.Score < 0 || payload.Score > 1 {
		return Sentiment{}, eris.Errorf("sentiment score %v out of range", payload.Score)
	}

	return Sentiment{Label: label, Score: payload.Score}, nil
}

func (a *chatSentimentAnalyzer) logError(fields logrus.Fields, err error, message string) {
	if a.logger == nil || err == nil {
		return
	}

	entry := a.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Warn(message)
}

func buildSentimentResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	schema := map[string]any{
		"type":                 "object",
		"required":             []string{"label", "score"},
		"additionalProperties": false,
		"properties": map[string]any{
			"label": map[string]any{
				"type": "string",
				"enum": []string{LabelPositive, LabelNegative, LabelNeutral},
			},
			"score": map[string]any{
				"type":        "number",
				"description": "Confidence in the label between 0 and 1.",
			},
		},
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "sentiment",
				Description: openai.String("Sentiment classification of the user's text"),
				Strict:      openai.Bool(true),
				Schema:      schema,
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}
}
