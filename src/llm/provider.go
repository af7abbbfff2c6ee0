package llm

import (
	"context"
	"fmt"
	"strings"

	"luna_companion/src/model"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"
)

// Supported chat model providers
const (
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderDeepSeek = "deepseek"
	ProviderArk      = "ark"
)

// NewChatModel creates the chat model for the configured provider.
// openai covers any OpenAI compatible endpoint, OpenRouter included.
func NewChatModel(ctx context.Context, config model.LLMConfig, modelName string) (einomodel.BaseChatModel, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	maxTokens := config.MaxTokens
	temperature := float32(config.Temperature)

	switch strings.ToLower(config.Provider) {
	case ProviderOpenAI, "":
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       modelName,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
			Timeout:     config.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating openai chat model: %w", err)
		}
		return chatModel, nil

	case ProviderOllama:
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: config.BaseURL,
			Model:   modelName,
			Timeout: config.Timeout,
			Options: &api.Options{
				Temperature: temperature,
				NumPredict:  maxTokens,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %w", err)
		}
		return chatModel, nil

	case ProviderDeepSeek:
		chatModel, err := deepseek.NewChatModel(ctx, deepSeekConfig(config, modelName))
		if err != nil {
			return nil, fmt.Errorf("error creating deepseek chat model: %w", err)
		}
		return chatModel, nil

	case ProviderArk:
		chatModel, err := ark.NewChatModel(ctx, arkConfig(config, modelName))
		if err != nil {
			return nil, fmt.Errorf("error creating ark chat model: %w", err)
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}

func deepSeekConfig(config model.LLMConfig, modelName string) *deepseek.ChatModelConfig {
	return &deepseek.ChatModelConfig{
		APIKey:      config.APIKey,
		BaseURL:     config.BaseURL,
		Model:       modelName,
		Timeout:     config.Timeout,
		MaxTokens:   config.MaxTokens,
		Temperature: float32(config.Temperature),
	}
}

func arkConfig(config model.LLMConfig, modelName string) *ark.ChatModelConfig {
	timeout := config.Timeout
	maxTokens := config.MaxTokens
	temperature := float32(config.Temperature)
	return &ark.ChatModelConfig{
		APIKey:      config.APIKey,
		BaseURL:     config.BaseURL,
		Model:       modelName,
		Timeout:     &timeout,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}
}
