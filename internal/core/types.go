package core

import (
	"context"
	"errors"

	"luna_companion/pkg"

	"github.com/cloudwego/eino/schema"
)

// Stage names used as graph node keys, log fields and metric labels
const (
	StageRetrieve = "retrieve"
	StageClassify = "classify"
	StagePhoto    = "photo"
	StageChat     = "chat"
	StagePersist  = "persist"

	StageAnalyze = "analyze"
	StageFilter  = "filter"
	StageSave    = "save"
	StageDrop    = "drop"
)

// Terminal statuses of the vision pipeline
const (
	StatusSaved   = "saved"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// ErrStore marks context store failures; they fail the whole request
var ErrStore = errors.New("context store failure")

// Completer is the text completion service
type Completer interface {
	// Complete answers a dialogue given a system prompt and ordered messages
	Complete(ctx context.Context, system string, messages []*schema.Message) (string, error)
	// CompleteStructured sends a single prompt expected to produce JSON
	CompleteStructured(ctx context.Context, prompt string) (string, error)
}

// Perceiver is the image perception service
type Perceiver interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType, instruction string) (string, error)
}

// PhotoResolver finds a photo to send: the user's own memories first, then a companion photo.
type PhotoResolver interface {
	// RecallMemory returns the image URL of the best matching memory, or "" when none matches
	RecallMemory(ctx context.Context, userID, query string) (string, error)
	CompanionPhoto(ctx context.Context, mood, subject string) (pkg.Photo, error)
}

// AgentState is the request-scoped state of the conversation graph
type AgentState struct {
	UserID         string
	UserMessage    string
	ImageAnalysis  map[string]any
	Classification pkg.Classification
	ContextSummary string
	ChatHistory    []pkg.ConversationTurn
	FinalResponse  string
	PhotoURL       *string
}

// AgentUpdate is the partial result of one conversation stage.
// Nil fields leave the state untouched.
type AgentUpdate struct {
	Classification *pkg.Classification
	ContextSummary *string
	ChatHistory    *[]pkg.ConversationTurn
	FinalResponse  *string
	PhotoURL       *string
}

// Apply returns a copy of the state with the update merged in.
// A non-empty FinalResponse is never replaced, and PhotoURL only moves with it.
func (s AgentState) Apply(u AgentUpdate) AgentState {
	if u.Classification != nil {
		s.Classification = *u.Classification
	}
	if u.ContextSummary != nil {
		s.ContextSummary = *u.ContextSummary
	}
	if u.ChatHistory != nil {
		s.ChatHistory = *u.ChatHistory
	}
	if u.FinalResponse != nil && s.FinalResponse == "" {
		s.FinalResponse = *u.FinalResponse
		s.PhotoURL = u.PhotoURL
	}
	return s
}

// VisionState is the request-scoped state of the vision ingestion graph
type VisionState struct {
	UserID       string
	Image        []byte
	MimeType     string
	StoredURL    string
	RawAnalysis  string
	Analysis     pkg.ImageAnalysis
	IsSafe       bool
	SafetyIssues []string
	MemoryType   pkg.MemoryType
	Status       string
}

// VisionUpdate is the partial result of one vision stage
type VisionUpdate struct {
	RawAnalysis  *string
	Analysis     *pkg.ImageAnalysis
	IsSafe       *bool
	SafetyIssues []string
	MemoryType   *pkg.MemoryType
	Status       *string
}

// Apply returns a copy of the state with the update merged in
func (s VisionState) Apply(u VisionUpdate) VisionState {
	if u.RawAnalysis != nil {
		s.RawAnalysis = *u.RawAnalysis
	}
	if u.Analysis != nil {
		s.Analysis = *u.Analysis
	}
	if u.IsSafe != nil {
		s.IsSafe = *u.IsSafe
	}
	if u.SafetyIssues != nil {
		s.SafetyIssues = u.SafetyIssues
	}
	if u.MemoryType != nil {
		s.MemoryType = *u.MemoryType
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	return s
}

// Ptr returns a pointer to v, for building updates
func Ptr[T any](v T) *T {
	return &v
}
