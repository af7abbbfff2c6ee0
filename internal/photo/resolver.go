package photo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"luna_companion/internal/core"
	"luna_companion/internal/storage"
	"luna_companion/pkg"
	"luna_companion/src/llm"
	"luna_companion/src/logger"

	"github.com/rs/zerolog"
)

const (
	generatedURLFormat = "https://image.pollinations.ai/prompt/%s?width=1024&height=1024&nologo=true&seed=%d&model=flux"
	stockURLFormat     = "https://images.unsplash.com/photo-%s?w=800&q=80"

	// subjects longer than this many characters get a generated image
	minGeneratedSubject = 5

	DefaultCaption = "Ye lo! ✨"
	StockCaption   = "Here is a random click for you! 📸"
)

// stockCollections holds photo ids by mood; unknown moods use neutral
var stockCollections = map[string][]string{
	"happy":    {"1514888286974-6c03e2ca1dba", "1502920917128-1aa500764cbd"},
	"sad":      {"1516550893723-fab71cc96e50", "1494368308039-ed3393a7eb28"},
	"romantic": {"1518199266791-5375a83190b7", "1529333446548-aaef567d8cd1"},
	"nature":   {"1501854140884-074cf2b2c3af", "1470071459604-3b5ec3a7fe05"},
	"neutral":  {"1509042239860-f550ce710b93", "1486312338219-ce68d2c6f44d"},
}

// Resolver picks photos from the user's visual memories or a public image service
type Resolver struct {
	store     storage.ContextStore
	completer core.Completer
	intn      func(n int) int
	log       zerolog.Logger
}

// NewResolver creates a resolver backed by the context store and the completion service
func NewResolver(store storage.ContextStore, completer core.Completer) *Resolver {
	return &Resolver{
		store:     store,
		completer: completer,
		intn:      rand.IntN,
		log:       logger.Component("photo-resolver"),
	}
}

// RecallMemory asks the model to pick the user's memory that best matches the
// query. It returns "" when the user has no memories or the model picks none.
func (r *Resolver) RecallMemory(ctx context.Context, userID, query string) (string, error) {
	var memories []pkg.VisualMemory
	if err := r.store.Find(ctx, pkg.CollectionVisualMemories, storage.Query{UserID: userID}, &memories); err != nil {
		return "", fmt.Errorf("error loading visual memories: %w", err)
	}
	if len(memories) == 0 {
		return "", nil
	}

	lines := make([]llm.MemoryLine, len(memories))
	for i, mem := range memories {
		lines[i] = llm.MemoryLine{Description: mem.Description, Objects: mem.Objects, Mood: mem.Mood}
	}

	answer, err := r.completer.CompleteStructured(ctx, llm.RecallPrompt(query, lines))
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("memory selection failed")
		return "", nil
	}

	idx, ok := parseMemoryID(answer, len(memories))
	if !ok {
		r.log.Debug().Str("user_id", userID).Str("answer", answer).Msg("no matching memory")
		return "", nil
	}
	return memories[idx].ImageURL, nil
}

// parseMemoryID accepts a bare index, optionally quoted
func parseMemoryID(answer string, count int) (int, bool) {
	answer = strings.Trim(strings.TrimSpace(answer), `'"`+"`")
	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 0 || idx >= count {
		return 0, false
	}
	return idx, true
}

// CompanionPhoto generates an image for a specific subject, or picks a stock
// photo for the mood when the subject is short. Caption failures use a default.
func (r *Resolver) CompanionPhoto(ctx context.Context, mood, subject string) (pkg.Photo, error) {
	if utf8.RuneCountInString(subject) > minGeneratedSubject {
		photoURL := fmt.Sprintf(generatedURLFormat, url.PathEscape(subject), r.intn(99999)+1)
		return pkg.Photo{URL: photoURL, Caption: r.caption(ctx, mood, subject)}, nil
	}

	ids, ok := stockCollections[strings.ToLower(mood)]
	if !ok {
		ids = stockCollections["neutral"]
	}
	photoURL := fmt.Sprintf(stockURLFormat, ids[r.intn(len(ids))])
	return pkg.Photo{URL: photoURL, Caption: StockCaption}, nil
}

func (r *Resolver) caption(ctx context.Context, mood, subject string) string {
	caption, err := r.completer.CompleteStructured(ctx, llm.CaptionPrompt(subject, mood))
	caption = strings.TrimSpace(caption)
	if err != nil || caption == "" {
		r.log.Warn().Err(err).Str("subject", subject).Msg("caption generation failed, using default")
		return DefaultCaption
	}
	return caption
}
