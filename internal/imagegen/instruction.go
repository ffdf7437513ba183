package imagegen

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"tennis-transform/internal/domain"
)

// AnalysisSchema is the JSON object the vision model must answer with.
const AnalysisSchema = `{"age":string,"gender":string,"skinTone":string,"hairColor":string,"hairStyle":string,"facialFeatures":string,"bodyType":string,"height":string,"distinctiveFeatures":string}`

const defaultAnalysisLanguage = "Spanish"

// AnalysisSystemInstruction asks the provider to describe the visible person
// as a single JSON object.
func AnalysisSystemInstruction() string {
	return "Analyze the person briefly. Respond only with a JSON object matching this schema: " +
		AnalysisSchema +
		". Every value is short free text. Use an empty string when an attribute cannot be seen."
}

// AnalysisUserInstruction names the language the attribute values should use.
// lang is a BCP-47 tag; an unknown tag falls back to Spanish.
func AnalysisUserInstruction(lang string) string {
	return "Quick analysis in " + LanguageName(lang)
}

// LanguageName renders a BCP-47 tag as an English language name.
func LanguageName(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return defaultAnalysisLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return defaultAnalysisLanguage
	}
	base, _ := tag.Base()
	name := display.English.Languages().Name(base)
	if name == "" {
		return defaultAnalysisLanguage
	}
	return name
}

// Build renders the instruction used by the given pipeline stage. Variation
// calls take no text, so the stage yields an empty string.
func Build(stage domain.Stage, analysis *domain.PersonAnalysis, action domain.TennisAction) string {
	switch stage {
	case domain.StageEdit:
		return BuildEditInstruction(analysis, action)
	case domain.StageGeneration:
		return BuildGenerationInstruction(analysis, action)
	default:
		return ""
	}
}

// BuildEditInstruction asks the provider to turn the photographed person into a
// tennis player while leaving identity markers untouched.
func BuildEditInstruction(analysis *domain.PersonAnalysis, action domain.TennisAction) string {
	lines := []string{
		"Transform this exact person into a professional tennis player. CRITICAL: Keep the EXACT same face, facial features, and identity of the original person.",
	}
	if details := personDetails(analysis); len(details) > 0 {
		lines = append(lines, "", "Original person details:")
		lines = append(lines, details...)
	}
	lines = append(lines,
		"",
		"TRANSFORM TO:",
		fmt.Sprintf("- Action: %s", action),
		fmt.Sprintf("- Outfit: Professional tennis attire (%s with athletic top, vibrant professional colors)", outfit(analysis)),
		"- Location: Professional tennis court with blue hard court surface, stadium lighting",
		"- Style: High-quality sports photography, sharp focus on athlete",
		"",
		"CRITICAL REQUIREMENTS:",
		"1. Use the EXACT SAME FACE from the original photo - no changes to facial features",
		"2. Do not change body proportions, skin tone, hair, or distinctive features",
		"3. Only change: clothing, background, pose, and add tennis equipment",
		"4. The person must be 100% recognizable as the same individual",
		"5. Photo-realistic quality matching professional tennis photography",
	)
	return strings.Join(lines, "\n")
}

// BuildGenerationInstruction is used when the provider cannot see the photo.
// Every available attribute is embedded verbatim so the text stands in for the
// missing reference image. Without an analysis the prompt is generic.
func BuildGenerationInstruction(analysis *domain.PersonAnalysis, action domain.TennisAction) string {
	details := personDetails(analysis)
	var lines []string
	if len(details) == 0 {
		lines = append(lines, "Photo-realistic image of a professional tennis player.")
	} else {
		lines = append(lines, "Photo-realistic image of a professional tennis player who matches this description exactly:")
		lines = append(lines, details...)
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Action: %s", action),
		fmt.Sprintf("Outfit: Professional tennis attire (%s with athletic top, vibrant professional colors)", outfit(analysis)),
		"Location: Professional tennis court with blue hard court surface, stadium lighting",
		"Style: High-quality sports photography, sharp focus on athlete, natural skin texture",
	)
	if len(details) > 0 {
		lines = append(lines, "Render the face, hair, skin tone, and body type exactly as described above.")
	}
	return strings.Join(lines, "\n")
}

func personDetails(analysis *domain.PersonAnalysis) []string {
	if analysis == nil {
		return nil
	}
	var out []string
	for _, f := range analysis.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		out = append(out, fmt.Sprintf("- %s: %s", f.Label, f.Value))
	}
	return out
}

func outfit(analysis *domain.PersonAnalysis) string {
	switch {
	case analysis == nil || strings.TrimSpace(analysis.Gender) == "":
		return "tennis shorts or skirt"
	case analysis.IsFemale():
		return "tennis dress or skirt"
	default:
		return "tennis shorts"
	}
}
