package nodes

import (
	"strings"

	"luna_companion/pkg"

	"github.com/bytedance/sonic"
)

// Safety scores are binary
const (
	SafeScore   = 100
	UnsafeScore = 0
)

// SafetyPolicy holds the keyword lists used to screen and categorise images
type SafetyPolicy struct {
	DisallowedTerms []string
	PersonTerms     []string
	LocationTerms   []string
}

// Check returns the disallowed terms found anywhere in the serialized analysis
// or in extra, case-insensitively, in policy order.
func (p SafetyPolicy) Check(analysis pkg.ImageAnalysis, extra ...string) []string {
	serialized, err := sonic.MarshalString(analysis)
	if err != nil {
		// screen the text fields directly
		fields := []string{analysis.Comment, analysis.Scene, analysis.Mood, analysis.SafetyConcerns}
		fields = append(fields, analysis.Objects...)
		fields = append(fields, analysis.Tags...)
		serialized = strings.Join(fields, " ")
	}
	haystack := strings.ToLower(serialized + " " + strings.Join(extra, " "))

	issues := []string{}
	for _, term := range p.DisallowedTerms {
		if term != "" && strings.Contains(haystack, strings.ToLower(term)) {
			issues = append(issues, term)
		}
	}
	return issues
}

// MemoryType categorises an analysis: a person object wins, then a location
// mentioned in the scene, then any object, else visual.
func (p SafetyPolicy) MemoryType(analysis pkg.ImageAnalysis) pkg.MemoryType {
	for _, object := range analysis.Objects {
		label := strings.ToLower(object)
		for _, term := range p.PersonTerms {
			if term != "" && strings.Contains(label, strings.ToLower(term)) {
				return pkg.MemoryRelationship
			}
		}
	}

	scene := strings.ToLower(analysis.Scene)
	for _, term := range p.LocationTerms {
		if term != "" && strings.Contains(scene, strings.ToLower(term)) {
			return pkg.MemoryLocation
		}
	}

	if len(analysis.Objects) > 0 {
		return pkg.MemoryObject
	}
	return pkg.MemoryVisual
}
