package nodes

import (
	"context"
	"fmt"
	"time"

	"luna_companion/internal/core"
	"luna_companion/internal/storage"
	"luna_companion/pkg"
)

// PersistNode stores the user turn and the reply
type PersistNode struct {
	store storage.ContextStore
	now   func() time.Time
}

// NewPersistNode creates the persistence stage. now may be nil.
func NewPersistNode(store storage.ContextStore, now func() time.Time) *PersistNode {
	if now == nil {
		now = time.Now
	}
	return &PersistNode{store: store, now: now}
}

// Run writes both turns with one timestamp in a single insert
func (n *PersistNode) Run(ctx context.Context, s core.AgentState) (core.AgentUpdate, error) {
	timestamp := n.now().UTC()

	userTurn := pkg.ConversationTurn{
		UserID:    s.UserID,
		Role:      pkg.RoleUser,
		Content:   s.UserMessage,
		Timestamp: timestamp,
	}
	assistantTurn := pkg.ConversationTurn{
		UserID:    s.UserID,
		Role:      pkg.RoleAssistant,
		Content:   s.FinalResponse,
		PhotoSent: s.PhotoURL,
		Timestamp: timestamp,
	}

	if err := n.store.Insert(ctx, pkg.CollectionConversations, userTurn, assistantTurn); err != nil {
		return core.AgentUpdate{}, fmt.Errorf("%w: save turns: %w", core.ErrStore, err)
	}
	return core.AgentUpdate{}, nil
}
