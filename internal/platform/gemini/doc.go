// Package gemini drafts teaching-strategy text with Google's Gemini API.
//
// StrategyWriter renders a prompt from a text/template (a built-in default,
// or the file named by llm.prompt_template_path), sends it through the genai
// client and returns the model's text unchanged. Transient API failures are
// retried with exponential backoff and jitter; blocked or empty responses are
// not retried.
package gemini
