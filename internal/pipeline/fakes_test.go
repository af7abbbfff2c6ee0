package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"luna_companion/internal/nodes"
	"luna_companion/internal/storage"
	"luna_companion/pkg"

	"github.com/cloudwego/eino/schema"
)

var (
	errUpstream = errors.New("upstream unavailable")
	fixedNow    = time.Date(2025, 7, 4, 10, 15, 0, 0, time.UTC)
)

func clock() time.Time { return fixedNow }

// scriptedCompleter answers structured prompts in order and chat calls with reply
type scriptedCompleter struct {
	mu         sync.Mutex
	structured []string
	reply      string
	chatErr    error

	chatCalls  int
	lastSystem string
	prompts    []string
}

func (s *scriptedCompleter) Complete(_ context.Context, system string, _ []*schema.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatCalls++
	s.lastSystem = system
	return s.reply, s.chatErr
}

func (s *scriptedCompleter) CompleteStructured(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.structured) == 0 {
		return "", errUpstream
	}
	next := s.structured[0]
	s.structured = s.structured[1:]
	return next, nil
}

type stubResolver struct {
	memoryURL string
	photo     pkg.Photo
	err       error
}

func (s stubResolver) RecallMemory(context.Context, string, string) (string, error) {
	return s.memoryURL, s.err
}

func (s stubResolver) CompanionPhoto(context.Context, string, string) (pkg.Photo, error) {
	return s.photo, s.err
}

type stubPerceiver struct {
	raw string
	err error
}

func (s stubPerceiver) AnalyzeImage(context.Context, []byte, string, string) (string, error) {
	return s.raw, s.err
}

// flakyStore fails reads or writes on demand and otherwise delegates to memory
type flakyStore struct {
	*storage.MemoryStore
	failFind   bool
	failInsert bool
}

func (f *flakyStore) Find(ctx context.Context, collection string, q storage.Query, dest any) error {
	if f.failFind {
		return errors.New("store offline")
	}
	return f.MemoryStore.Find(ctx, collection, q, dest)
}

func (f *flakyStore) Insert(ctx context.Context, collection string, records ...any) error {
	if f.failInsert {
		return errors.New("store read-only")
	}
	return f.MemoryStore.Insert(ctx, collection, records...)
}

var replies = nodes.Replies{
	MemoryFound:     "I found this memory! 📸",
	PhotoFailed:     "Camera glitch! Can't send photo right now.",
	ChatFailed:      "My connection is fluctuating. Let's wait a moment! ✨",
	ImageUnreadable: "Arre photo load nahi hui theek se, dobara bhejo!",
	PhotoCaption:    "Ye lo! ✨",
}

var policy = nodes.SafetyPolicy{
	DisallowedTerms: []string{
		"nudity", "nude", "naked", "nsfw", "explicit",
		"violence", "violent", "blood", "gore", "weapon", "gun", "knife",
		"illegal", "drug", "substance",
		"self-harm", "suicide", "cutting",
	},
	PersonTerms:   []string{"person", "people", "man", "woman", "child", "friends"},
	LocationTerms: []string{"location", "place", "outdoor"},
}

func loadTurns(store storage.ContextStore, userID string) []pkg.ConversationTurn {
	var turns []pkg.ConversationTurn
	_ = store.Find(context.Background(), pkg.CollectionConversations, storage.Query{UserID: userID}, &turns)
	return turns
}

func loadMemories(store storage.ContextStore, userID string) []pkg.VisualMemory {
	var memories []pkg.VisualMemory
	_ = store.Find(context.Background(), pkg.CollectionVisualMemories, storage.Query{UserID: userID}, &memories)
	return memories
}
