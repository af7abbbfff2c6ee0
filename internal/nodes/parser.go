package nodes

import (
	"strings"

	"luna_companion/pkg"
	"luna_companion/src/llm"

	"github.com/bytedance/sonic"
)

// FallbackClassification is used whenever classification fails
var FallbackClassification = pkg.Classification{Intent: pkg.IntentChat, Mood: "neutral"}

type classificationJSON struct {
	Intent  string `json:"intent"`
	Mood    string `json:"mood"`
	Subject string `json:"subject"`
}

// ParseClassification reads the classifier output.
// Any intent other than photo is chat, and an empty mood is neutral.
func ParseClassification(text string) (pkg.Classification, error) {
	var raw classificationJSON
	if err := llm.DecodeJSON(text, &raw); err != nil {
		return FallbackClassification, err
	}

	result := pkg.Classification{
		Intent:  pkg.IntentChat,
		Mood:    strings.TrimSpace(raw.Mood),
		Subject: strings.TrimSpace(raw.Subject),
	}
	if strings.EqualFold(strings.TrimSpace(raw.Intent), string(pkg.IntentPhoto)) {
		result.Intent = pkg.IntentPhoto
	}
	if result.Mood == "" {
		result.Mood = FallbackClassification.Mood
	}
	return result, nil
}

// ParseAnalysis reads the perception output. When no JSON object can be read it
// returns a degraded analysis whose comment is the raw text, or unreadable when
// the text is empty, and ok is false.
func ParseAnalysis(raw, unreadable string) (analysis pkg.ImageAnalysis, ok bool) {
	if err := llm.DecodeJSON(raw, &analysis); err != nil {
		comment := raw
		if strings.TrimSpace(comment) == "" {
			comment = unreadable
		}
		return pkg.ImageAnalysis{Comment: comment, Objects: []string{}, Tags: []string{}}, false
	}

	if analysis.Objects == nil {
		analysis.Objects = []string{}
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return analysis, true
}

// AnalysisText serializes every field of the analysis object in raw, including
// fields ImageAnalysis does not carry. It is empty when raw holds no object.
func AnalysisText(raw string) string {
	var fields map[string]any
	if err := llm.DecodeJSON(raw, &fields); err != nil {
		return ""
	}
	text, err := sonic.MarshalString(fields)
	if err != nil {
		return ""
	}
	return text
}
