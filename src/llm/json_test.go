package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Intent string `json:"intent"`
	Mood   string `json:"mood"`
}

func TestDecodeJSONStrict(t *testing.T) {
	var s sample
	require.NoError(t, DecodeJSON(` {"intent":"photo","mood":"happy"} `, &s))
	assert.Equal(t, "photo", s.Intent)
	assert.Equal(t, "happy", s.Mood)
}

func TestDecodeJSONFromFencedOutput(t *testing.T) {
	text := "Sure! Here you go:\n```json\n{\"intent\": \"chat\", \"mood\": \"sad\"}\n```\nAnything else?"

	var s sample
	require.NoError(t, DecodeJSON(text, &s))
	assert.Equal(t, "chat", s.Intent)
	assert.Equal(t, "sad", s.Mood)
}

func TestDecodeJSONFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", "   "},
		{"plain text", "I think they want a photo"},
		{"unbalanced", `{"intent": "photo"`},
		{"broken inside braces", `result: {intent: photo}`},
		{"null", "null"},
		{"array", `[1, 2]`},
		{"string", `"photo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s sample
			assert.ErrorIs(t, DecodeJSON(tt.text, &s), ErrNoJSONObject)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", `prefix {"a":{"b":2}} suffix {"c":3}`, `{"a":{"b":2}}`, true},
		{"braces in strings", `x {"comment":"smile :} {","n":1} y`, `{"comment":"smile :} {","n":1}`, true},
		{"escaped quote", `{"comment":"she said \"hi}\""}`, `{"comment":"she said \"hi}\""}`, true},
		{"none", `no object here`, "", false},
		{"unclosed", `{"a": {"b": 1}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
