package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Scheduling SchedulingConfig `mapstructure:"scheduling" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects and locates the record store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`
	Path   string `mapstructure:"path" validate:"required_if=Driver sqlite"`
}

// SchedulingConfig tunes the mastery evaluator and defines what "today" means.
type SchedulingConfig struct {
	LadderDays       []int  `mapstructure:"ladder_days" validate:"required,min=1,dive,gt=0"`
	MasteryStreak    int    `mapstructure:"mastery_streak" validate:"gt=0"`
	ReinforcementRun int    `mapstructure:"reinforcement_run" validate:"gt=0"`
	Timezone         string `mapstructure:"timezone" validate:"required,timezone"`
}

// Location resolves the configured time zone.
func (c SchedulingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// LLMConfig configures the optional teaching-strategy writer.
// An empty API key disables it.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name" validate:"required_with=GeminiAPIKey"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// Enabled reports whether an AI model is configured.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
