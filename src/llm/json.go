package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrNoJSONObject is returned when model output holds no parseable JSON object
var ErrNoJSONObject = errors.New("no JSON object in model output")

// DecodeJSON decodes model output into dest in two attempts: the whole text
// when it is an object, then the first balanced top-level {...} found in it.
func DecodeJSON(text string, dest any) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrNoJSONObject
	}

	if strings.HasPrefix(trimmed, "{") {
		if err := sonic.UnmarshalString(trimmed, dest); err == nil {
			return nil
		}
	}

	object, ok := ExtractJSONObject(trimmed)
	if !ok {
		return ErrNoJSONObject
	}
	if err := sonic.UnmarshalString(object, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrNoJSONObject, err)
	}
	return nil
}

// ExtractJSONObject returns the first balanced top-level {...} in text.
// Braces inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
