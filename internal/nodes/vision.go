package nodes

import (
	"context"
	"fmt"
	"time"

	"luna_companion/internal/core"
	"luna_companion/internal/metrics"
	"luna_companion/internal/storage"
	"luna_companion/pkg"
	"luna_companion/src/logger"

	"github.com/rs/zerolog"
)

// AnalyzeNode sends the image to the perception service
type AnalyzeNode struct {
	perceiver   core.Perceiver
	instruction string
	unreadable  string
	log         zerolog.Logger
}

// NewAnalyzeNode creates the image analysis stage
func NewAnalyzeNode(perceiver core.Perceiver, instruction, unreadable string) *AnalyzeNode {
	return &AnalyzeNode{
		perceiver:   perceiver,
		instruction: instruction,
		unreadable:  unreadable,
		log:         logger.Component("analyze"),
	}
}

// Run never fails: a perception error ends the run with status error
func (n *AnalyzeNode) Run(ctx context.Context, s core.VisionState) (core.VisionUpdate, error) {
	raw, err := n.perceiver.AnalyzeImage(ctx, s.Image, s.MimeType, n.instruction)
	if err != nil {
		n.log.Warn().Err(err).Str("user_id", s.UserID).Msg("image analysis failed")
		metrics.RecordFallback(core.StageAnalyze)
		return core.VisionUpdate{
			Analysis:     &pkg.ImageAnalysis{Comment: n.unreadable, Objects: []string{}, Tags: []string{}},
			IsSafe:       core.Ptr(false),
			SafetyIssues: []string{},
			Status:       core.Ptr(core.StatusError),
		}, nil
	}
	return core.VisionUpdate{RawAnalysis: &raw}, nil
}

// FilterNode parses the analysis, screens it and picks a memory type
type FilterNode struct {
	policy     SafetyPolicy
	unreadable string
	log        zerolog.Logger
}

// NewFilterNode creates the safety and classification stage
func NewFilterNode(policy SafetyPolicy, unreadable string) *FilterNode {
	return &FilterNode{
		policy:     policy,
		unreadable: unreadable,
		log:        logger.Component("filter"),
	}
}

// Run sets is_safe, safety_issues, safety_score and memory_type
func (n *FilterNode) Run(ctx context.Context, s core.VisionState) (core.VisionUpdate, error) {
	analysis, ok := ParseAnalysis(s.RawAnalysis, n.unreadable)
	if !ok {
		n.log.Warn().Str("user_id", s.UserID).Int("chars", len(s.RawAnalysis)).Msg("analysis is not JSON, using raw text")
		metrics.RecordFallback(core.StageFilter)
	}

	issues := n.policy.Check(analysis, AnalysisText(s.RawAnalysis))
	safe := len(issues) == 0
	analysis.SafetyScore = UnsafeScore
	if safe {
		analysis.SafetyScore = SafeScore
	}
	memoryType := n.policy.MemoryType(analysis)

	if !safe {
		n.log.Info().Str("user_id", s.UserID).Strs("issues", issues).Msg("image blocked by safety filter")
	}

	return core.VisionUpdate{
		Analysis:     &analysis,
		IsSafe:       &safe,
		SafetyIssues: issues,
		MemoryType:   &memoryType,
	}, nil
}

// SaveNode writes a visual memory for a safe image
type SaveNode struct {
	store storage.ContextStore
	now   func() time.Time
}

// NewSaveNode creates the save stage. now may be nil.
func NewSaveNode(store storage.ContextStore, now func() time.Time) *SaveNode {
	if now == nil {
		now = time.Now
	}
	return &SaveNode{store: store, now: now}
}

// Run refuses unsafe state so nothing unsafe is ever written
func (n *SaveNode) Run(ctx context.Context, s core.VisionState) (core.VisionUpdate, error) {
	if !s.IsSafe {
		return core.VisionUpdate{Status: core.Ptr(core.StatusBlocked)}, nil
	}

	memory := pkg.VisualMemory{
		UserID:      s.UserID,
		ImageURL:    s.StoredURL,
		Type:        "visual_memory",
		MemoryType:  s.MemoryType,
		Description: s.Analysis.Scene,
		Comment:     s.Analysis.Comment,
		Mood:        s.Analysis.Mood,
		Objects:     s.Analysis.Objects,
		Tags:        s.Analysis.Tags,
		SafetyScore: s.Analysis.SafetyScore,
		Timestamp:   n.now().UTC(),
	}
	if err := n.store.Insert(ctx, pkg.CollectionVisualMemories, memory); err != nil {
		return core.VisionUpdate{}, fmt.Errorf("%w: save visual memory: %w", core.ErrStore, err)
	}
	return core.VisionUpdate{Status: core.Ptr(core.StatusSaved)}, nil
}

// DropNode ends an unsafe run without writing anything
type DropNode struct{}

// Run marks the run blocked
func (DropNode) Run(ctx context.Context, s core.VisionState) (core.VisionUpdate, error) {
	return core.VisionUpdate{Status: core.Ptr(core.StatusBlocked)}, nil
}
