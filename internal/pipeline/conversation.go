package pipeline

import (
	"context"
	"fmt"
	"time"

	"luna_companion/internal/core"
	"luna_companion/internal/metrics"
	"luna_companion/internal/nodes"
	"luna_companion/internal/storage"
	"luna_companion/pkg"
	"luna_companion/src/logger"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
)

const conversationGraph = "conversation"

// ConversationConfig wires the conversation graph
type ConversationConfig struct {
	Store        storage.ContextStore
	Completer    core.Completer
	Resolver     core.PhotoResolver
	SystemPrompt string
	HistoryLimit int
	MemoryLimit  int
	Replies      nodes.Replies
	Now          func() time.Time
}

// Request is one user turn
type Request struct {
	UserID        string
	Message       string
	ImageAnalysis map[string]any
	History       []pkg.ConversationTurn
}

// Reply is the answer to a turn. PhotoURL is nil unless a photo was sent.
type Reply struct {
	Reply    string  `json:"reply"`
	PhotoURL *string `json:"photo_url"`
}

// Conversation runs retrieve, classify, photo or chat, then persist
type Conversation struct {
	runnable compose.Runnable[core.AgentState, core.AgentState]
	log      zerolog.Logger
}

// NewConversation compiles the conversation graph
func NewConversation(ctx context.Context, config ConversationConfig) (*Conversation, error) {
	if config.Store == nil || config.Completer == nil || config.Resolver == nil {
		return nil, fmt.Errorf("conversation requires a store, a completer and a photo resolver")
	}

	log := logger.Component("conversation")

	retrieve := nodes.NewRetrieveNode(config.Store, config.HistoryLimit, config.MemoryLimit)
	classify := nodes.NewClassifyNode(config.Completer)
	photo := nodes.NewPhotoNode(config.Resolver, config.Replies)
	chat := nodes.NewReplyNode(config.Completer, config.SystemPrompt, config.Replies)
	persist := nodes.NewPersistNode(config.Store, config.Now)

	g := compose.NewGraph[core.AgentState, core.AgentState]()

	steps := []struct {
		key string
		run func(context.Context, core.AgentState) (core.AgentUpdate, error)
	}{
		{core.StageRetrieve, retrieve.Run},
		{core.StageClassify, classify.Run},
		{core.StagePhoto, photo.Run},
		{core.StageChat, chat.Run},
		{core.StagePersist, persist.Run},
	}
	for _, step := range steps {
		if err := g.AddLambdaNode(step.key, stageLambda(conversationGraph, step.key, log, step.run)); err != nil {
			return nil, fmt.Errorf("error adding %s node: %w", step.key, err)
		}
	}

	edges := [][2]string{
		{compose.START, core.StageRetrieve},
		{core.StageRetrieve, core.StageClassify},
		{core.StagePhoto, core.StagePersist},
		{core.StageChat, core.StagePersist},
		{core.StagePersist, compose.END},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	route := compose.NewGraphBranch(routeIntent, map[string]bool{
		core.StagePhoto: true,
		core.StageChat:  true,
	})
	if err := g.AddBranch(core.StageClassify, route); err != nil {
		return nil, fmt.Errorf("error adding intent branch: %w", err)
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName(conversationGraph))
	if err != nil {
		return nil, fmt.Errorf("error compiling conversation graph: %w", err)
	}

	return &Conversation{runnable: runnable, log: log}, nil
}

func routeIntent(_ context.Context, s core.AgentState) (string, error) {
	if s.Classification.Intent == pkg.IntentPhoto {
		return core.StagePhoto, nil
	}
	return core.StageChat, nil
}

// ProcessMessage answers one user turn and stores it. Only store failures and
// graph failures are returned as errors; model failures produce fallback replies.
func (c *Conversation) ProcessMessage(ctx context.Context, req Request) (Reply, error) {
	if req.UserID == "" {
		return Reply{}, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	initial := core.AgentState{
		UserID:         req.UserID,
		UserMessage:    req.Message,
		ImageAnalysis:  req.ImageAnalysis,
		ChatHistory:    req.History,
		Classification: nodes.FallbackClassification,
	}

	ctx, trace := withTrace(ctx)
	start := time.Now()
	out, err := c.runnable.Invoke(ctx, initial)
	if err != nil {
		err = unwrapRunError(trace, err)
		c.log.Error().Err(err).Str("user_id", req.UserID).Str("stage", trace.stage).Msg("conversation failed")
		metrics.RecordOutcome(conversationGraph, "error")
		return Reply{}, err
	}

	outcome := string(out.Classification.Intent)
	if out.Classification.Intent == pkg.IntentPhoto && out.PhotoURL == nil {
		outcome = "photo_failed"
	}
	metrics.RecordOutcome(conversationGraph, outcome)

	c.log.Info().
		Str("user_id", req.UserID).
		Str("intent", string(out.Classification.Intent)).
		Bool("photo", out.PhotoURL != nil).
		Dur("elapsed", time.Since(start)).
		Msg("message processed")

	return Reply{Reply: out.FinalResponse, PhotoURL: out.PhotoURL}, nil
}
