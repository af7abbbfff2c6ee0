package nodes

import (
	"context"

	"luna_companion/internal/core"
	"luna_companion/internal/metrics"
	"luna_companion/src/logger"

	"github.com/rs/zerolog"
)

// Replies are the fixed in-character messages used by the stages
type Replies struct {
	MemoryFound     string
	PhotoFailed     string
	ChatFailed      string
	ImageUnreadable string
	PhotoCaption    string
}

// PhotoNode answers a photo request from the user's memories or a companion photo
type PhotoNode struct {
	resolver core.PhotoResolver
	replies  Replies
	log      zerolog.Logger
}

// NewPhotoNode creates the photo stage
func NewPhotoNode(resolver core.PhotoResolver, replies Replies) *PhotoNode {
	return &PhotoNode{
		resolver: resolver,
		replies:  replies,
		log:      logger.Component("photo"),
	}
}

// Run never fails: resolver errors become the camera glitch reply without a photo
func (n *PhotoNode) Run(ctx context.Context, s core.AgentState) (core.AgentUpdate, error) {
	query := s.Classification.Subject
	if query == "" {
		query = s.UserMessage
	}

	url, err := n.resolver.RecallMemory(ctx, s.UserID, query)
	if err != nil {
		return n.failed(s, err), nil
	}
	if url != "" {
		n.log.Info().Str("user_id", s.UserID).Str("query", query).Msg("sending a personal memory")
		return core.AgentUpdate{FinalResponse: core.Ptr(n.replies.MemoryFound), PhotoURL: &url}, nil
	}

	photo, err := n.resolver.CompanionPhoto(ctx, s.Classification.Mood, query)
	if err != nil {
		return n.failed(s, err), nil
	}
	if photo.URL == "" {
		return core.AgentUpdate{FinalResponse: core.Ptr(n.replies.PhotoFailed)}, nil
	}

	caption := photo.Caption
	if caption == "" {
		caption = n.replies.PhotoCaption
	}

	n.log.Info().Str("user_id", s.UserID).Str("query", query).Msg("sending a companion photo")
	return core.AgentUpdate{FinalResponse: &caption, PhotoURL: core.Ptr(photo.URL)}, nil
}

func (n *PhotoNode) failed(s core.AgentState, err error) core.AgentUpdate {
	n.log.Warn().Err(err).Str("user_id", s.UserID).Msg("photo resolution failed")
	metrics.RecordFallback(core.StagePhoto)
	return core.AgentUpdate{FinalResponse: core.Ptr(n.replies.PhotoFailed)}
}
