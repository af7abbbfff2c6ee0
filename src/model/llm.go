package model

import "time"

// ----------------------------------------------------
// ================ LLM ================
// LLMConfig selects the chat model provider shared by the completion and perception services
type LLMConfig struct {
	Provider    string        `envconfig:"PROVIDER" default:"openai"` // openai, ollama, deepseek, ark
	Model       string        `envconfig:"MODEL" default:"google/gemini-2.5-flash"`
	VisionModel string        `envconfig:"VISION_MODEL"` // falls back to Model
	APIKey      string        `envconfig:"API_KEY"`
	BaseURL     string        `envconfig:"BASE_URL" default:"https://openrouter.ai/api/v1"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Temperature float64       `envconfig:"TEMPERATURE" default:"0.7"`
	MaxTokens   int           `envconfig:"MAX_TOKENS" default:"1024"`
}

// VisionModelName returns the model used for image analysis
func (c LLMConfig) VisionModelName() string {
	if c.VisionModel != "" {
		return c.VisionModel
	}
	return c.Model
}
