package pkg

import (
	"time"
)

// Companion core types shared by the pipelines, stores and HTTP layer

// Role of a stored conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Intent of a user turn as decided by the classifier
type Intent string

const (
	IntentChat  Intent = "chat"
	IntentPhoto Intent = "photo"
)

// MemoryType categorises a visual memory
type MemoryType string

const (
	MemoryVisual       MemoryType = "visual"
	MemoryRelationship MemoryType = "relationship"
	MemoryLocation     MemoryType = "location"
	MemoryObject       MemoryType = "object"
)

// Collection names used by the context store
const (
	CollectionConversations  = "conversations"
	CollectionVisualMemories = "visual_memories"
)

// ConversationTurn represents one stored message of a dialogue
type ConversationTurn struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	PhotoSent *string   `json:"photo_sent,omitempty"` // only on assistant turns that carried a photo
	Timestamp time.Time `json:"timestamp"`
}

// VisualMemory represents a previously analyzed, safe image
type VisualMemory struct {
	UserID      string     `json:"user_id"`
	ImageURL    string     `json:"image_url"`
	Type        string     `json:"type"`
	MemoryType  MemoryType `json:"memory_type"`
	Description string     `json:"description"`
	Comment     string     `json:"luna_comment"`
	Mood        string     `json:"mood"`
	Objects     []string   `json:"objects"`
	Tags        []string   `json:"tags"`
	SafetyScore int        `json:"safety_score"` // 100 safe, 0 unsafe
	Timestamp   time.Time  `json:"timestamp"`
}

// ImageAnalysis is the structured output of the perception model
type ImageAnalysis struct {
	Comment        string   `json:"comment"`
	Scene          string   `json:"scene"`
	Objects        []string `json:"objects"`
	Mood           string   `json:"mood"`
	Tags           []string `json:"tags"`
	SafetyConcerns string   `json:"safety_concerns"`
	SafetyScore    int      `json:"safety_score"`
}

// Classification is the routing decision for a user turn
type Classification struct {
	Intent  Intent `json:"intent"`
	Mood    string `json:"mood"`
	Subject string `json:"subject"` // empty means no subject
}

// Photo is a resolved companion photo
type Photo struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}
