package gemini

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/mastery/internal/config"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeModels replays scripted responses and records prompts.
type fakeModels struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	prompts   []string
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	i := len(f.prompts)
	var sb strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			sb.WriteString(p.Text)
		}
	}
	f.prompts = append(f.prompts, sb.String())

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp *genai.GenerateContentResponse
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func fixtures(t *testing.T) (*domain.Task, *domain.KnowledgePoint, []*domain.LearningHistory) {
	t.Helper()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.SubjectMathematics, "Times tables", "", nil, "", now)
	require.NoError(t, err)
	kp, err := domain.NewKnowledgePoint(task.ID, "7×8=56", "fact", "", now)
	require.NoError(t, err)
	kp.ErrorCount = 2
	h1, err := domain.NewLearningHistory(kp.ID, domain.ResultIncorrect, "said 54", "", now)
	require.NoError(t, err)
	h2, err := domain.NewLearningHistory(kp.ID, domain.ResultIncorrect, "", "", now.Add(-time.Hour))
	require.NoError(t, err)
	return task, kp, []*domain.LearningHistory{h1, h2}
}

func newTestWriter(t *testing.T, models contentGenerator, retries int) *StrategyWriter {
	t.Helper()
	tmpl, err := loadTemplate("")
	require.NoError(t, err)
	return newStrategyWriter(models, nil, "gemini-test", tmpl, retries, time.Millisecond)
}

func TestWriteStrategy_RendersPromptAndReturnsText(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{textResponse("  5, 6, 7, 8: 56 = 7×8.  ")}}
	w := newTestWriter(t, models, 0)
	task, kp, recent := fixtures(t)

	text, err := w.WriteStrategy(context.Background(), "mnemonic", task, kp, recent)
	require.NoError(t, err)
	assert.Equal(t, "5, 6, 7, 8: 56 = 7×8.", text)

	require.Len(t, models.prompts, 1)
	prompt := models.prompts[0]
	assert.Contains(t, prompt, `"mnemonic"`)
	assert.Contains(t, prompt, "Knowledge point: 7×8=56")
	assert.Contains(t, prompt, "Subject: mathematics")
	assert.Contains(t, prompt, "newest first: incorrect, incorrect")
	assert.Contains(t, prompt, "Last parent feedback: said 54")
}

func TestWriteStrategy_RetriesTransientErrors(t *testing.T) {
	models := &fakeModels{
		errs:      []error{errors.New("503"), errors.New("503"), nil},
		responses: []*genai.GenerateContentResponse{nil, nil, textResponse("ok")},
	}
	w := newTestWriter(t, models, 2)
	task, kp, recent := fixtures(t)

	text, err := w.WriteStrategy(context.Background(), "association", task, kp, recent)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Len(t, models.prompts, 3)
}

func TestWriteStrategy_GivesUpAfterMaxRetries(t *testing.T) {
	models := &fakeModels{errs: []error{errors.New("a"), errors.New("b")}}
	w := newTestWriter(t, models, 1)
	task, kp, recent := fixtures(t)

	_, err := w.WriteStrategy(context.Background(), "contrast", task, kp, recent)
	assert.ErrorIs(t, err, ErrTransientFailure)
	assert.Len(t, models.prompts, 2)
}

func TestWriteStrategy_DoesNotRetryUnusableResponses(t *testing.T) {
	blocked := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}
	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		expected error
	}{
		{"nil response", nil, ErrInvalidResponse},
		{"no candidates", &genai.GenerateContentResponse{}, ErrInvalidResponse},
		{"blocked", blocked, ErrContentBlocked},
		{"blank text", textResponse("   "), ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &fakeModels{responses: []*genai.GenerateContentResponse{tt.resp}}
			w := newTestWriter(t, models, 3)
			task, kp, recent := fixtures(t)

			_, err := w.WriteStrategy(context.Background(), "mnemonic", task, kp, recent)
			assert.ErrorIs(t, err, tt.expected)
			assert.Len(t, models.prompts, 1)
		})
	}
}

func TestWriteStrategy_StopsOnCancel(t *testing.T) {
	models := &fakeModels{errs: []error{errors.New("a"), errors.New("b")}}
	tmpl, err := loadTemplate("")
	require.NoError(t, err)
	w := newStrategyWriter(models, nil, "gemini-test", tmpl, 3, time.Hour)
	task, kp, recent := fixtures(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.WriteStrategy(ctx, "mnemonic", task, kp, recent)
	assert.ErrorIs(t, err, ErrTransientFailure)
	assert.Len(t, models.prompts, 1)
}

func TestLoadTemplate_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{.StrategyType}} for {{.Content}}"), 0o600))

	tmpl, err := loadTemplate(path)
	require.NoError(t, err)
	task, kp, recent := fixtures(t)
	out, err := renderPrompt(tmpl, newPromptData("mnemonic", task, kp, recent))
	require.NoError(t, err)
	assert.Equal(t, "mnemonic for 7×8=56", out)

	_, err = loadTemplate(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewStrategyWriter_RequiresKeyAndModel(t *testing.T) {
	_, err := NewStrategyWriter(context.Background(), nil, config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewStrategyWriter(context.Background(), nil, config.LLMConfig{GeminiAPIKey: "k"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
