package nodes

import (
	"context"
	"fmt"

	"luna_companion/internal/core"
	"luna_companion/internal/metrics"
	"luna_companion/pkg"
	"luna_companion/src/logger"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// ReplyNode generates the persona's text reply
type ReplyNode struct {
	completer    core.Completer
	systemPrompt string
	replies      Replies
	log          zerolog.Logger
}

// NewReplyNode creates the chat stage
func NewReplyNode(completer core.Completer, systemPrompt string, replies Replies) *ReplyNode {
	return &ReplyNode{
		completer:    completer,
		systemPrompt: systemPrompt,
		replies:      replies,
		log:          logger.Component("chat"),
	}
}

// Run is a no-op when a response already exists. Completion errors become the
// connection fallback reply.
func (n *ReplyNode) Run(ctx context.Context, s core.AgentState) (core.AgentUpdate, error) {
	if s.FinalResponse != "" {
		return core.AgentUpdate{}, nil
	}

	reply, err := n.completer.Complete(ctx, n.systemPrompt+s.ContextSummary, BuildMessages(s))
	if err == nil && reply == "" {
		err = fmt.Errorf("empty completion")
	}
	if err != nil {
		n.log.Warn().Err(err).Str("user_id", s.UserID).Msg("reply generation failed")
		metrics.RecordFallback(core.StageChat)
		reply = n.replies.ChatFailed
	}

	return core.AgentUpdate{FinalResponse: &reply}, nil
}

// BuildMessages maps the history to dialogue messages and appends the current
// message, with an image note when an image payload came with it.
func BuildMessages(s core.AgentState) []*schema.Message {
	messages := make([]*schema.Message, 0, len(s.ChatHistory)+1)
	for _, turn := range s.ChatHistory {
		if turn.Role == pkg.RoleUser {
			messages = append(messages, schema.UserMessage(turn.Content))
		} else {
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}

	current := s.UserMessage
	if len(s.ImageAnalysis) > 0 {
		current += "\n[Image Context: " + imageDescription(s.ImageAnalysis) + "]"
	}
	return append(messages, schema.UserMessage(current))
}

// imageDescription prefers the description field and falls back to the scene
func imageDescription(payload map[string]any) string {
	for _, key := range []string{"description", "scene"} {
		if text, ok := payload[key].(string); ok && text != "" {
			return text
		}
	}
	return ""
}
