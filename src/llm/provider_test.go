package llm

import (
	"context"
	"testing"
	"time"

	"luna_companion/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLLMConfig(provider string) model.LLMConfig {
	return model.LLMConfig{
		Provider:    provider,
		Model:       "chat-model",
		APIKey:      "test-key",
		BaseURL:     "http://localhost:1234/v1",
		Timeout:     12 * time.Second,
		Temperature: 0.5,
		MaxTokens:   256,
	}
}

func TestDeepSeekConfigCarriesGenerationSettings(t *testing.T) {
	cfg := deepSeekConfig(testLLMConfig(ProviderDeepSeek), "deepseek-chat")

	assert.Equal(t, "deepseek-chat", cfg.Model)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, 256, cfg.MaxTokens)
	assert.InDelta(t, 0.5, cfg.Temperature, 1e-6)
}

func TestArkConfigCarriesGenerationSettings(t *testing.T) {
	cfg := arkConfig(testLLMConfig(ProviderArk), "doubao")

	assert.Equal(t, "doubao", cfg.Model)
	require.NotNil(t, cfg.Timeout)
	assert.Equal(t, 12*time.Second, *cfg.Timeout)
	require.NotNil(t, cfg.MaxTokens)
	assert.Equal(t, 256, *cfg.MaxTokens)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.5, *cfg.Temperature, 1e-6)
}

func TestNewChatModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), testLLMConfig("carrier-pigeon"), "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")

	_, err = NewChatModel(context.Background(), testLLMConfig(ProviderOpenAI), "")
	require.Error(t, err)
}
