package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"luna_companion/internal/metrics"
	"luna_companion/src/logger"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// Client serves the completion and perception calls over eino chat models
type Client struct {
	chat    einomodel.BaseChatModel
	vision  einomodel.BaseChatModel
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient wraps a chat model and a vision capable model, which may be the same.
// A positive timeout bounds every call.
func NewClient(chat, vision einomodel.BaseChatModel, timeout time.Duration) *Client {
	if vision == nil {
		vision = chat
	}
	return &Client{
		chat:    chat,
		vision:  vision,
		timeout: timeout,
		log:     logger.Component("llm"),
	}
}

// Complete sends the system prompt followed by the dialogue
func (c *Client) Complete(ctx context.Context, system string, messages []*schema.Message) (string, error) {
	input := make([]*schema.Message, 0, len(messages)+1)
	input = append(input, schema.SystemMessage(system))
	input = append(input, messages...)

	return c.generate(ctx, c.chat, "complete", input)
}

// CompleteStructured sends a single user prompt expected to produce JSON
func (c *Client) CompleteStructured(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, c.chat, "complete_structured", []*schema.Message{schema.UserMessage(prompt)})
}

// AnalyzeImage sends the instruction and the image as a data URL in one user message
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	message := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: instruction},
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: dataURL}},
		},
	}

	return c.generate(ctx, c.vision, "analyze_image", []*schema.Message{message})
}

func (c *Client) generate(ctx context.Context, chatModel einomodel.BaseChatModel, operation string, input []*schema.Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := chatModel.Generate(ctx, input)
	elapsed := time.Since(start)
	metrics.RecordLLMCall(operation, err, elapsed.Seconds())

	if err != nil {
		c.log.Warn().Err(err).Str("operation", operation).Dur("elapsed", elapsed).Msg("model call failed")
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	if out == nil {
		return "", fmt.Errorf("%s: empty response", operation)
	}

	c.log.Debug().Str("operation", operation).Dur("elapsed", elapsed).Int("chars", len(out.Content)).Msg("model call completed")
	return strings.TrimSpace(out.Content), nil
}
