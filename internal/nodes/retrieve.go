package nodes

import (
	"context"
	"fmt"
	"strings"

	"luna_companion/internal/core"
	"luna_companion/internal/storage"
	"luna_companion/pkg"
	"luna_companion/src/logger"

	"github.com/rs/zerolog"
)

// RetrieveNode loads recent turns and visual memories for the user
type RetrieveNode struct {
	store        storage.ContextStore
	historyLimit int
	memoryLimit  int
	log          zerolog.Logger
}

// NewRetrieveNode creates the context retrieval stage
func NewRetrieveNode(store storage.ContextStore, historyLimit, memoryLimit int) *RetrieveNode {
	return &RetrieveNode{
		store:        store,
		historyLimit: historyLimit,
		memoryLimit:  memoryLimit,
		log:          logger.Component("retrieve"),
	}
}

// Run reads the latest turns oldest first and the latest memories newest first.
// Store errors are returned wrapped in core.ErrStore.
func (n *RetrieveNode) Run(ctx context.Context, s core.AgentState) (core.AgentUpdate, error) {
	var turns []pkg.ConversationTurn
	err := n.store.Find(ctx, pkg.CollectionConversations, storage.Query{
		UserID: s.UserID,
		Sort:   storage.Descending,
		Limit:  n.historyLimit,
	}, &turns)
	if err != nil {
		return core.AgentUpdate{}, fmt.Errorf("%w: load history: %w", core.ErrStore, err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	var memories []pkg.VisualMemory
	err = n.store.Find(ctx, pkg.CollectionVisualMemories, storage.Query{
		UserID: s.UserID,
		Sort:   storage.Descending,
		Limit:  n.memoryLimit,
	}, &memories)
	if err != nil {
		return core.AgentUpdate{}, fmt.Errorf("%w: load visual memories: %w", core.ErrStore, err)
	}

	n.log.Debug().
		Str("user_id", s.UserID).
		Int("turns", len(turns)).
		Int("memories", len(memories)).
		Msg("context retrieved")

	return core.AgentUpdate{
		ContextSummary: core.Ptr(ContextSummary(memories)),
		ChatHistory:    &turns,
	}, nil
}

// ContextSummary folds memory descriptions into the block appended to the persona prompt
func ContextSummary(memories []pkg.VisualMemory) string {
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n**Visual Memories:**\n")
	for _, mem := range memories {
		description := mem.Description
		if description == "" {
			description = "unknown image"
		}
		b.WriteString("- ")
		b.WriteString(description)
		b.WriteString("\n")
	}
	return b.String()
}
