package llm

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

func getClassifyTemplate() string {
	return `Analyze this message: '{message}'.
1. Does the user want a photo/image?
2. If YES, what is the main VISUAL SUBJECT? (Extract 1-2 words only, e.g. 'girl', 'coffee cup', 'rainy city').

Return ONLY JSON with double quotes, no markdown:
{{"intent": "photo" or "chat", "mood": "neutral/happy/sad", "subject": "..."}}`
}

// NewClassifyTemplate creates the intent classification template.
// Variables: message.
func NewClassifyTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString, schema.UserMessage(getClassifyTemplate()))
}

// MemoryLine is one candidate in the memory selection prompt
type MemoryLine struct {
	Description string
	Objects     []string
	Mood        string
}

// RecallPrompt asks the model to pick the memory that best matches the query
func RecallPrompt(query string, memories []MemoryLine) string {
	var b strings.Builder
	for i, mem := range memories {
		description := mem.Description
		if description == "" {
			description = "Unknown"
		}
		fmt.Fprintf(&b, "ID: %d | Description: %s | Objects: %s | Mood: %s\n",
			i, description, strings.Join(mem.Objects, ", "), mem.Mood)
	}

	return fmt.Sprintf(`User Query: "%s"

Available Images in Memory:
%s
Task: Identify the single best matching image ID.
If nothing matches well, return 'NONE'.
Return ONLY the ID number (e.g., '2').`, query, b.String())
}

// CaptionPrompt asks for a one line caption for a photo sent in character
func CaptionPrompt(subject, mood string) string {
	return fmt.Sprintf(`You are Luna. You just sent a photo of: "%s". Your mood is %s.

Write a 1-line Hinglish caption acting like you are IN the photo.
Keep it under 10 words. Don't be generic.`, subject, mood)
}
