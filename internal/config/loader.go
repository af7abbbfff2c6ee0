package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml
type YAMLConfig struct {
	Persona struct {
		SystemPrompt      string `yaml:"system_prompt"`
		VisionInstruction string `yaml:"vision_instruction"`
	} `yaml:"persona"`
	Agent struct {
		HistoryLimit int `yaml:"history_limit"`
		MemoryLimit  int `yaml:"memory_limit"`
	} `yaml:"agent"`
	Safety struct {
		DisallowedTerms []string `yaml:"disallowed_terms"`
		PersonTerms     []string `yaml:"person_terms"`
		LocationTerms   []string `yaml:"location_terms"`
	} `yaml:"safety"`
	Replies struct {
		MemoryFound     string `yaml:"memory_found"`
		PhotoFailed     string `yaml:"photo_failed"`
		ChatFailed      string `yaml:"chat_failed"`
		ImageUnreadable string `yaml:"image_unreadable"`
		PhotoCaption    string `yaml:"photo_caption"`
	} `yaml:"replies"`
}

// Default returns the built-in configuration used when no file is present
func Default() *YAMLConfig {
	var c YAMLConfig
	c.Persona.SystemPrompt = defaultSystemPrompt
	c.Persona.VisionInstruction = defaultVisionInstruction
	c.Agent.HistoryLimit = 10
	c.Agent.MemoryLimit = 5
	c.Safety.DisallowedTerms = []string{
		"nudity", "nude", "naked", "nsfw", "explicit",
		"violence", "violent", "blood", "gore", "weapon", "gun", "knife",
		"illegal", "drug", "substance",
		"self-harm", "suicide", "cutting",
	}
	c.Safety.PersonTerms = []string{"person", "people", "man", "woman", "child", "friends"}
	c.Safety.LocationTerms = []string{"location", "place", "outdoor"}
	c.Replies.MemoryFound = "I found this memory! 📸"
	c.Replies.PhotoFailed = "Camera glitch! Can't send photo right now."
	c.Replies.ChatFailed = "My connection is fluctuating. Let's wait a moment! ✨"
	c.Replies.ImageUnreadable = "Arre photo load nahi hui theek se, dobara bhejo!"
	c.Replies.PhotoCaption = "Ye lo! ✨"
	return &c
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// A missing file is not an error.
func LoadConfig(filepath string) (*YAMLConfig, error) {
	config := Default()

	data, err := os.ReadFile(filepath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks limits and required prompts
func (c *YAMLConfig) Validate() error {
	if c.Agent.HistoryLimit <= 0 || c.Agent.HistoryLimit > 10 {
		return fmt.Errorf("agent.history_limit must be in 1..10, got %d", c.Agent.HistoryLimit)
	}
	if c.Agent.MemoryLimit <= 0 || c.Agent.MemoryLimit > 5 {
		return fmt.Errorf("agent.memory_limit must be in 1..5, got %d", c.Agent.MemoryLimit)
	}
	if c.Persona.SystemPrompt == "" {
		return errors.New("persona.system_prompt cannot be empty")
	}
	if c.Persona.VisionInstruction == "" {
		return errors.New("persona.vision_instruction cannot be empty")
	}

	terms := 0
	for _, term := range c.Safety.DisallowedTerms {
		if strings.TrimSpace(term) != "" {
			terms++
		}
	}
	if terms == 0 {
		return errors.New("safety.disallowed_terms cannot be empty")
	}

	replies := []struct {
		key   string
		value string
	}{
		{"memory_found", c.Replies.MemoryFound},
		{"photo_failed", c.Replies.PhotoFailed},
		{"chat_failed", c.Replies.ChatFailed},
		{"image_unreadable", c.Replies.ImageUnreadable},
		{"photo_caption", c.Replies.PhotoCaption},
	}
	for _, reply := range replies {
		if strings.TrimSpace(reply.value) == "" {
			return fmt.Errorf("replies.%s cannot be empty", reply.key)
		}
	}
	return nil
}

const defaultSystemPrompt = `You are Luna, a warm, witty and curious companion who chats like a close friend.
Keep replies short and casual, mix Hinglish and English when the user does, and ask follow-up questions.
Never mention that you are an AI model. Use the visual memories below when they are relevant.`

const defaultVisionInstruction = `You are Luna, a cool, witty, intelligent best friend from Delhi.
Analyze this image and return a valid JSON response.

IMPORTANT: In the "comment" field, DO NOT just describe the image.
Instead, REACT to it in Hinglish (Hindi+English mix) or casual English and ASK a relevant question to start a conversation.

OUTPUT RAW JSON ONLY. NO MARKDOWN. NO BACKTICKS.
{
    "comment": "Your interactive reaction + question here",
    "scene": "Short technical description in English for database search",
    "objects": ["obj1", "obj2"],
    "mood": "mood",
    "tags": ["tag1", "tag2"],
    "safety_concerns": "none"
}`
