package pipeline

import (
	"context"
	"testing"

	"luna_companion/internal/core"
	"luna_companion/internal/storage"
	"luna_companion/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVision(t *testing.T, store storage.ContextStore, perceiver core.Perceiver) *Vision {
	t.Helper()
	v, err := NewVision(context.Background(), VisionConfig{
		Store:       store,
		Perceiver:   perceiver,
		Instruction: "React to this image as JSON.",
		Policy:      policy,
		Replies:     replies,
		Now:         clock,
	})
	require.NoError(t, err)
	return v
}

var image = ImageRequest{UserID: "u1", Image: []byte{0xff, 0xd8, 0xff, 0xe0}, MimeType: "image/jpeg", StoredURL: "/uploads/a.jpg"}

func TestIngestSafeImageSavesMemory(t *testing.T) {
	store := storage.NewMemoryStore()
	raw := "```json\n{\"comment\": \"Coffee time? Kaunsi coffee hai?\", \"scene\": \"a ceramic cup on a wooden desk\", \"objects\": [\"cup\", \"desk\"], \"mood\": \"cozy\", \"tags\": [\"coffee\"], \"safety_concerns\": \"none\"}\n```"

	result, err := newVision(t, store, stubPerceiver{raw: raw}).IngestImage(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, core.StatusSaved, result.Status)
	assert.True(t, result.IsSafe)
	assert.Empty(t, result.SafetyIssues)
	assert.Equal(t, 100, result.Analysis.SafetyScore)
	assert.Equal(t, "Coffee time? Kaunsi coffee hai?", result.Analysis.Comment)

	memories := loadMemories(store, "u1")
	require.Len(t, memories, 1)
	assert.Equal(t, "/uploads/a.jpg", memories[0].ImageURL)
	assert.Equal(t, "a ceramic cup on a wooden desk", memories[0].Description)
	assert.Equal(t, pkg.MemoryObject, memories[0].MemoryType)
	assert.Equal(t, []string{"cup", "desk"}, memories[0].Objects)
	assert.True(t, memories[0].Timestamp.Equal(fixedNow))
}

func TestIngestKnifeIsBlocked(t *testing.T) {
	store := storage.NewMemoryStore()
	raw := `{"comment": "Whoa, careful!", "scene": "kitchen counter", "objects": ["knife", "cutting board"], "mood": "tense", "tags": ["weapon"], "safety_concerns": "sharp blade"}`

	result, err := newVision(t, store, stubPerceiver{raw: raw}).IngestImage(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, core.StatusBlocked, result.Status)
	assert.False(t, result.IsSafe)
	assert.Equal(t, []string{"weapon", "knife", "cutting"}, result.SafetyIssues)
	assert.Equal(t, 0, result.Analysis.SafetyScore)
	assert.Equal(t, "Whoa, careful!", result.Analysis.Comment)
	assert.Empty(t, loadMemories(store, "u1"))
}

func TestIngestNeverPersistsDisallowedTerms(t *testing.T) {
	for _, term := range policy.DisallowedTerms {
		t.Run(term, func(t *testing.T) {
			store := storage.NewMemoryStore()
			raw := `{"comment": "hmm", "scene": "A photo showing ` + upperFirst(term) + ` somewhere", "objects": [], "tags": []}`

			result, err := newVision(t, store, stubPerceiver{raw: raw}).IngestImage(context.Background(), image)
			require.NoError(t, err)
			assert.False(t, result.IsSafe)
			assert.Contains(t, result.SafetyIssues, term)
			assert.Empty(t, loadMemories(store, "u1"))
		})
	}
}

func TestIngestScreensFieldsOutsideTheAnalysisRecord(t *testing.T) {
	store := storage.NewMemoryStore()
	raw := `{"comment": "Nice desk!", "scene": "a desk", "objects": ["cup"], "mood": "calm", "tags": [], "safety_concerns": "none", "colors": ["blood red"], "description": "a man holding a gun"}`

	result, err := newVision(t, store, stubPerceiver{raw: raw}).IngestImage(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, core.StatusBlocked, result.Status)
	assert.False(t, result.IsSafe)
	assert.Equal(t, []string{"blood", "gun"}, result.SafetyIssues)
	assert.Empty(t, loadMemories(store, "u1"))
}

func TestIngestNullAnalysisDegrades(t *testing.T) {
	store := storage.NewMemoryStore()

	result, err := newVision(t, store, stubPerceiver{raw: "null"}).IngestImage(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, "null", result.Analysis.Comment)
	assert.Empty(t, result.Analysis.Scene)
	memories := loadMemories(store, "u1")
	require.Len(t, memories, 1)
	assert.Equal(t, "null", memories[0].Comment)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func TestIngestPersonBeatsLocation(t *testing.T) {
	store := storage.NewMemoryStore()
	raw := `{"comment": "Kaun hai ye?", "scene": "an outdoor place in the hills", "objects": ["mountain", "woman"], "mood": "happy", "tags": []}`

	_, err := newVision(t, store, stubPerceiver{raw: raw}).IngestImage(context.Background(), image)
	require.NoError(t, err)

	memories := loadMemories(store, "u1")
	require.Len(t, memories, 1)
	assert.Equal(t, pkg.MemoryRelationship, memories[0].MemoryType)
}

func TestIngestUnparseableOutputKeepsRawComment(t *testing.T) {
	store := storage.NewMemoryStore()

	result, err := newVision(t, store, stubPerceiver{raw: "Kya baat hai, mast photo!"}).IngestImage(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, core.StatusSaved, result.Status)
	assert.Equal(t, "Kya baat hai, mast photo!", result.Analysis.Comment)
	assert.Empty(t, result.Analysis.Scene)

	memories := loadMemories(store, "u1")
	require.Len(t, memories, 1)
	assert.Equal(t, pkg.MemoryVisual, memories[0].MemoryType)
}

func TestIngestPerceptionFailureEndsWithoutSaving(t *testing.T) {
	store := storage.NewMemoryStore()

	result, err := newVision(t, store, stubPerceiver{err: errUpstream}).IngestImage(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, result.Status)
	assert.False(t, result.IsSafe)
	assert.Equal(t, []string{}, result.SafetyIssues)
	assert.Equal(t, replies.ImageUnreadable, result.Analysis.Comment)
	assert.Empty(t, loadMemories(store, "u1"))
}

func TestIngestStoreFailureIsSurfaced(t *testing.T) {
	store := &flakyStore{MemoryStore: storage.NewMemoryStore(), failInsert: true}

	_, err := newVision(t, store, stubPerceiver{raw: `{"scene": "a desk"}`}).IngestImage(context.Background(), image)
	assert.ErrorIs(t, err, core.ErrStore)
}

func TestIngestImageValidatesRequest(t *testing.T) {
	v := newVision(t, storage.NewMemoryStore(), stubPerceiver{})

	_, err := v.IngestImage(context.Background(), ImageRequest{Image: []byte{1}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = v.IngestImage(context.Background(), ImageRequest{UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
