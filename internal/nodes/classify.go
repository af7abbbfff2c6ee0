package nodes

import (
	"context"
	"fmt"

	"luna_companion/internal/core"
	"luna_companion/internal/metrics"
	"luna_companion/pkg"
	"luna_companion/src/llm"
	"luna_companion/src/logger"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/rs/zerolog"
)

// ClassifyNode decides whether the user wants a photo or a chat reply
type ClassifyNode struct {
	completer core.Completer
	template  prompt.ChatTemplate
	log       zerolog.Logger
}

// NewClassifyNode creates the intent classification stage
func NewClassifyNode(completer core.Completer) *ClassifyNode {
	return &ClassifyNode{
		completer: completer,
		template:  llm.NewClassifyTemplate(),
		log:       logger.Component("classify"),
	}
}

// Run never fails: any call or parse error yields the chat fallback
func (n *ClassifyNode) Run(ctx context.Context, s core.AgentState) (core.AgentUpdate, error) {
	result, err := n.classify(ctx, s.UserMessage)
	if err != nil {
		n.log.Warn().Err(err).Str("user_id", s.UserID).Msg("classification failed, using chat fallback")
		metrics.RecordFallback(core.StageClassify)
		result = FallbackClassification
	}

	n.log.Debug().
		Str("intent", string(result.Intent)).
		Str("mood", result.Mood).
		Str("subject", result.Subject).
		Msg("message classified")

	return core.AgentUpdate{Classification: &result}, nil
}

func (n *ClassifyNode) classify(ctx context.Context, message string) (pkg.Classification, error) {
	messages, err := n.template.Format(ctx, map[string]any{"message": message})
	if err != nil {
		return pkg.Classification{}, fmt.Errorf("error formatting classify prompt: %w", err)
	}
	if len(messages) == 0 {
		return pkg.Classification{}, fmt.Errorf("classify prompt produced no messages")
	}

	out, err := n.completer.CompleteStructured(ctx, messages[len(messages)-1].Content)
	if err != nil {
		return pkg.Classification{}, err
	}
	return ParseClassification(out)
}
