package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/mastery/internal/config"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"google.golang.org/genai"
)

const systemInstruction = "You are a patient primary-school tutor. Keep answers short, concrete and encouraging."

// contentGenerator is the slice of the genai client the writer uses.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// StrategyWriter drafts teaching-strategy text with Gemini.
type StrategyWriter struct {
	logger     *slog.Logger
	models     contentGenerator
	model      string
	prompt     *template.Template
	maxRetries int
	retryDelay time.Duration
}

// NewStrategyWriter builds a writer from the LLM config. The API key and
// model name are required.
func NewStrategyWriter(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*StrategyWriter, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	tmpl, err := loadTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newStrategyWriter(client.Models, logger, cfg.ModelName, tmpl,
		cfg.MaxRetries, time.Duration(cfg.RetryDelaySeconds)*time.Second), nil
}

func newStrategyWriter(
	models contentGenerator,
	logger *slog.Logger,
	model string,
	prompt *template.Template,
	maxRetries int,
	retryDelay time.Duration,
) *StrategyWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &StrategyWriter{
		logger:     logger.With(slog.String("component", "gemini_strategy_writer")),
		models:     models,
		model:      model,
		prompt:     prompt,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// WriteStrategy renders the prompt for kp and returns the model's text.
func (w *StrategyWriter) WriteStrategy(
	ctx context.Context,
	strategyType string,
	task *domain.Task,
	kp *domain.KnowledgePoint,
	recent []*domain.LearningHistory,
) (string, error) {
	if task == nil || kp == nil {
		return "", errors.New("task and knowledge point are required")
	}

	prompt, err := renderPrompt(w.prompt, newPromptData(strategyType, task, kp, recent))
	if err != nil {
		return "", err
	}
	logger.FromContextOrDefault(ctx, w.logger).Debug("strategy prompt rendered",
		slog.String("kp_id", kp.ID.String()),
		slog.Int("prompt_length", len(prompt)))

	return w.generateWithRetry(ctx, prompt)
}

// generateWithRetry calls the model up to maxRetries+1 times. Only API call
// errors are retried; an empty or blocked answer is final.
func (w *StrategyWriter) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	log := logger.FromContextOrDefault(ctx, w.logger)

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}

	for attempt := 0; ; attempt++ {
		resp, err := w.models.GenerateContent(ctx, w.model, genai.Text(prompt), cfg)
		if err == nil {
			text, perr := extractText(resp)
			if perr != nil {
				log.Warn("unusable gemini response, not retrying", slog.String("error", perr.Error()))
				return "", perr
			}
			log.Info("gemini call succeeded", slog.Int("attempt", attempt+1))
			return text, nil
		}

		log.Error("gemini call failed",
			slog.String("error", err.Error()),
			slog.Int("attempt", attempt+1))
		if attempt >= w.maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				ErrTransientFailure, w.maxRetries, err)
		}

		// delay = base * 2^attempt * [0.5, 1.0)
		delay := time.Duration(float64(w.retryDelay) * math.Pow(2, float64(attempt)) * (0.5 + rand.Float64()*0.5))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
	}
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty text in response", ErrInvalidResponse)
	}
	return text, nil
}
