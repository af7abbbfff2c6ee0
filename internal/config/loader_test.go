package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Agent.HistoryLimit)
	assert.Equal(t, 5, cfg.Agent.MemoryLimit)
	assert.Contains(t, cfg.Safety.DisallowedTerms, "knife")
	assert.Equal(t, "I found this memory! 📸", cfg.Replies.MemoryFound)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
persona:
  system_prompt: "You are Abhay."
agent:
  history_limit: 4
safety:
  disallowed_terms: [spider]
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "You are Abhay.", cfg.Persona.SystemPrompt)
	assert.Equal(t, 4, cfg.Agent.HistoryLimit)
	assert.Equal(t, 5, cfg.Agent.MemoryLimit)
	assert.Equal(t, []string{"spider"}, cfg.Safety.DisallowedTerms)
	assert.NotEmpty(t, cfg.Persona.VisionInstruction)
}

func TestLoadConfigRejectsLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  history_limit: 50\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnsafeOrSilentSettings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no disallowed terms", "safety:\n  disallowed_terms: []\n", "safety.disallowed_terms"},
		{"blank disallowed terms", "safety:\n  disallowed_terms: [\"\", \" \"]\n", "safety.disallowed_terms"},
		{"empty chat fallback", "replies:\n  chat_failed: \"\"\n", "replies.chat_failed"},
		{"empty photo fallback", "replies:\n  photo_failed: \"  \"\n", "replies.photo_failed"},
		{"empty caption", "replies:\n  photo_caption: \"\"\n", "replies.photo_caption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
