package gemini

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/mastery/internal/domain"
)

//go:embed strategy_prompt.tmpl
var defaultPromptTemplate string

// promptData is what the prompt template sees.
type promptData struct {
	StrategyType string
	Subject      string
	TaskTitle    string
	Content      string
	Type         string
	Notes        string
	MasteryLevel string
	CorrectCount int
	ErrorCount   int
	Recent       []string
	LastFeedback string
}

// loadTemplate parses the template at path, or the built-in one when path is empty.
func loadTemplate(path string) (*template.Template, error) {
	text := defaultPromptTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v", ErrInvalidConfig, path, err)
		}
		text = string(b)
	}
	tmpl, err := template.New("strategy").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}
	return tmpl, nil
}

func newPromptData(
	strategyType string,
	task *domain.Task,
	kp *domain.KnowledgePoint,
	recent []*domain.LearningHistory,
) promptData {
	data := promptData{
		StrategyType: strategyType,
		Subject:      string(task.Subject),
		TaskTitle:    task.Title,
		Content:      kp.Content,
		Type:         kp.Type,
		Notes:        kp.Notes,
		MasteryLevel: string(kp.MasteryLevel),
		CorrectCount: kp.CorrectCount,
		ErrorCount:   kp.ErrorCount,
	}
	for _, h := range recent {
		data.Recent = append(data.Recent, string(h.Result))
		if data.LastFeedback == "" && h.ParentFeedback != "" {
			data.LastFeedback = h.ParentFeedback
		}
	}
	return data
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
