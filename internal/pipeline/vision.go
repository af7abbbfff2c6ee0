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

const visionGraph = "vision"

// VisionConfig wires the vision ingestion graph
type VisionConfig struct {
	Store       storage.ContextStore
	Perceiver   core.Perceiver
	Instruction string
	Policy      nodes.SafetyPolicy
	Replies     nodes.Replies
	Now         func() time.Time
}

// ImageRequest is one uploaded image
type ImageRequest struct {
	UserID    string
	Image     []byte
	MimeType  string
	StoredURL string
}

// IngestResult reports what happened to an image
type IngestResult struct {
	Analysis     pkg.ImageAnalysis `json:"analysis"`
	Status       string            `json:"status"`
	IsSafe       bool              `json:"is_safe"`
	SafetyIssues []string          `json:"safety_issues"`
}

// Vision runs analyze, filter, then save or drop
type Vision struct {
	runnable compose.Runnable[core.VisionState, core.VisionState]
	log      zerolog.Logger
}

// NewVision compiles the vision ingestion graph
func NewVision(ctx context.Context, config VisionConfig) (*Vision, error) {
	if config.Store == nil || config.Perceiver == nil {
		return nil, fmt.Errorf("vision requires a store and a perceiver")
	}

	log := logger.Component("vision")

	analyze := nodes.NewAnalyzeNode(config.Perceiver, config.Instruction, config.Replies.ImageUnreadable)
	filter := nodes.NewFilterNode(config.Policy, config.Replies.ImageUnreadable)
	save := nodes.NewSaveNode(config.Store, config.Now)
	drop := nodes.DropNode{}

	g := compose.NewGraph[core.VisionState, core.VisionState]()

	steps := []struct {
		key string
		run func(context.Context, core.VisionState) (core.VisionUpdate, error)
	}{
		{core.StageAnalyze, analyze.Run},
		{core.StageFilter, filter.Run},
		{core.StageSave, save.Run},
		{core.StageDrop, drop.Run},
	}
	for _, step := range steps {
		if err := g.AddLambdaNode(step.key, stageLambda(visionGraph, step.key, log, step.run)); err != nil {
			return nil, fmt.Errorf("error adding %s node: %w", step.key, err)
		}
	}

	edges := [][2]string{
		{compose.START, core.StageAnalyze},
		{core.StageSave, compose.END},
		{core.StageDrop, compose.END},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	analyzed := compose.NewGraphBranch(routeAnalysis, map[string]bool{
		core.StageFilter: true,
		compose.END:      true,
	})
	if err := g.AddBranch(core.StageAnalyze, analyzed); err != nil {
		return nil, fmt.Errorf("error adding analysis branch: %w", err)
	}

	screened := compose.NewGraphBranch(routeSafety, map[string]bool{
		core.StageSave: true,
		core.StageDrop: true,
	})
	if err := g.AddBranch(core.StageFilter, screened); err != nil {
		return nil, fmt.Errorf("error adding safety branch: %w", err)
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName(visionGraph))
	if err != nil {
		return nil, fmt.Errorf("error compiling vision graph: %w", err)
	}

	return &Vision{runnable: runnable, log: log}, nil
}

func routeAnalysis(_ context.Context, s core.VisionState) (string, error) {
	if s.Status == core.StatusError {
		return compose.END, nil
	}
	return core.StageFilter, nil
}

func routeSafety(_ context.Context, s core.VisionState) (string, error) {
	if s.IsSafe {
		return core.StageSave, nil
	}
	return core.StageDrop, nil
}

// IngestImage analyzes an image and stores it as a visual memory when safe.
// Blocked images and perception failures are results, not errors.
func (v *Vision) IngestImage(ctx context.Context, req ImageRequest) (IngestResult, error) {
	if req.UserID == "" {
		return IngestResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if len(req.Image) == 0 {
		return IngestResult{}, fmt.Errorf("%w: image is empty", ErrInvalidRequest)
	}

	initial := core.VisionState{
		UserID:    req.UserID,
		Image:     req.Image,
		MimeType:  req.MimeType,
		StoredURL: req.StoredURL,
	}

	ctx, trace := withTrace(ctx)
	start := time.Now()
	out, err := v.runnable.Invoke(ctx, initial)
	if err != nil {
		err = unwrapRunError(trace, err)
		v.log.Error().Err(err).Str("user_id", req.UserID).Str("stage", trace.stage).Msg("image ingestion failed")
		metrics.RecordOutcome(visionGraph, "failed")
		return IngestResult{}, err
	}

	metrics.RecordOutcome(visionGraph, out.Status)
	v.log.Info().
		Str("user_id", req.UserID).
		Str("status", out.Status).
		Str("memory_type", string(out.MemoryType)).
		Strs("safety_issues", out.SafetyIssues).
		Dur("elapsed", time.Since(start)).
		Msg("image processed")

	issues := out.SafetyIssues
	if issues == nil {
		issues = []string{}
	}
	return IngestResult{
		Analysis:     out.Analysis,
		Status:       out.Status,
		IsSafe:       out.IsSafe,
		SafetyIssues: issues,
	}, nil
}
