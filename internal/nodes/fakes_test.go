package nodes

import (
	"context"
	"errors"

	"luna_companion/internal/storage"
	"luna_companion/pkg"

	"github.com/cloudwego/eino/schema"
)

var errUpstream = errors.New("upstream unavailable")

type fakeCompleter struct {
	reply      string
	structured string
	err        error

	system   string
	messages []*schema.Message
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, system string, messages []*schema.Message) (string, error) {
	f.system = system
	f.messages = messages
	return f.reply, f.err
}

func (f *fakeCompleter) CompleteStructured(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.structured, f.err
}

type fakeResolver struct {
	memoryURL string
	recallErr error
	photo     pkg.Photo
	photoErr  error

	queries []string
	moods   []string
}

func (f *fakeResolver) RecallMemory(_ context.Context, _ string, query string) (string, error) {
	f.queries = append(f.queries, query)
	return f.memoryURL, f.recallErr
}

func (f *fakeResolver) CompanionPhoto(_ context.Context, mood, subject string) (pkg.Photo, error) {
	f.moods = append(f.moods, mood)
	return f.photo, f.photoErr
}

type fakePerceiver struct {
	raw string
	err error
}

func (f *fakePerceiver) AnalyzeImage(context.Context, []byte, string, string) (string, error) {
	return f.raw, f.err
}

// brokenStore fails every call
type brokenStore struct{}

func (brokenStore) Insert(context.Context, string, ...any) error {
	return errors.New("disk full")
}

func (brokenStore) Find(context.Context, string, storage.Query, any) error {
	return errors.New("disk unreadable")
}

func (brokenStore) Close() error { return nil }

var testReplies = Replies{
	MemoryFound:     "I found this memory! 📸",
	PhotoFailed:     "Camera glitch! Can't send photo right now.",
	ChatFailed:      "My connection is fluctuating. Let's wait a moment! ✨",
	ImageUnreadable: "Arre photo load nahi hui theek se, dobara bhejo!",
	PhotoCaption:    "Ye lo! ✨",
}

var testPolicy = SafetyPolicy{
	DisallowedTerms: []string{
		"nudity", "nude", "naked", "nsfw", "explicit",
		"violence", "violent", "blood", "gore", "weapon", "gun", "knife",
		"illegal", "drug", "substance",
		"self-harm", "suicide", "cutting",
	},
	PersonTerms:   []string{"person", "people", "man", "woman", "child", "friends"},
	LocationTerms: []string{"location", "place", "outdoor"},
}
