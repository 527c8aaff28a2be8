package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"palabras/internal/models"
	"palabras/internal/usage"
)

const maxAIInputRunes = 4000

// AIService proxies translate and summarize requests to an
// OpenAI-compatible model, counting each against aiRequests
type AIService struct {
	model    llms.Model
	governor *usage.Governor
	now      func() time.Time
}

// NewOpenAIModel builds a langchaingo client for an OpenAI-compatible endpoint
func NewOpenAIModel(baseURL, apiKey, modelName string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return llm, nil
}

// NewAIService creates the AI proxy. model may be nil, which disables it.
func NewAIService(model llms.Model, governor *usage.Governor) *AIService {
	return &AIService{model: model, governor: governor, now: time.Now}
}

// Enabled reports whether a model is configured
func (s *AIService) Enabled() bool {
	return s.model != nil
}

// Translate renders text in the target language ("en" or "es")
func (s *AIService) Translate(ctx context.Context, actor *models.User, text, target string) (string, error) {
	language := "English"
	if strings.EqualFold(target, "es") || strings.EqualFold(target, "spanish") {
		language = "Spanish"
	}
	prompt := fmt.Sprintf(
		"Translate the following text into %s. Reply with the translation only.\n\n%s",
		language, text)
	return s.generate(ctx, actor, text, prompt)
}

// Summarize condenses text into a few sentences of plain Spanish suitable
// for a learner
func (s *AIService) Summarize(ctx context.Context, actor *models.User, text string) (string, error) {
	prompt := "Summarize the following text in two or three short sentences of simple Spanish " +
		"for a language learner. Reply with the summary only.\n\n" + text
	return s.generate(ctx, actor, text, prompt)
}

func (s *AIService) generate(ctx context.Context, actor *models.User, input, prompt string) (string, error) {
	if s.model == nil {
		return "", ErrAIDisabled
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(input) > maxAIInputRunes {
		return "", ErrTextTooLong
	}

	if err := checkLimit(ctx, s.governor, actor, models.FeatureAIRequests, s.now()); err != nil {
		return "", err
	}

	output, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt, llms.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("AI request failed: %w", err)
	}

	if err := s.governor.Increment(ctx, actor.ID, models.FeatureAIRequests); err != nil {
		log.Printf("Warning: failed to count AI request for user %d: %v", actor.ID, err)
	}
	return strings.TrimSpace(output), nil
}
