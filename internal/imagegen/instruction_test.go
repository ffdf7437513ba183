package imagegen

import (
	"strings"
	"testing"

	"tennis-transform/internal/domain"
)

func sampleAnalysis() *domain.PersonAnalysis {
	return &domain.PersonAnalysis{
		Age:                 "25 años",
		Gender:              "femenino",
		SkinTone:            "morena clara",
		HairColor:           "castaño oscuro",
		HairStyle:           "largo y ondulado",
		FacialFeatures:      "ojos almendrados, pómulos marcados",
		BodyType:            "atlético",
		Height:              "estatura media",
		DistinctiveFeatures: "lunar sobre el labio",
	}
}

func TestBuildGenerationInstructionEmbedsAnalysisVerbatim(t *testing.T) {
	analysis := sampleAnalysis()
	action := domain.TennisAction("celebrando un punto ganador con el puño en alto")

	got := BuildGenerationInstruction(analysis, action)

	if !strings.Contains(got, string(action)) {
		t.Fatalf("instruction missing action %q: %s", action, got)
	}
	for _, f := range analysis.Fields() {
		if !strings.Contains(got, f.Value) {
			t.Fatalf("instruction missing %s value %q: %s", f.Label, f.Value, got)
		}
	}
	if !strings.Contains(got, "tennis dress or skirt") {
		t.Fatalf("expected female outfit wording: %s", got)
	}
}

func TestBuildGenerationInstructionWithoutAnalysisIsGeneric(t *testing.T) {
	action := domain.TennisActions[0]
	for _, analysis := range []*domain.PersonAnalysis{nil, {}} {
		got := BuildGenerationInstruction(analysis, action)
		if !strings.Contains(got, string(action)) {
			t.Fatalf("instruction missing action: %s", got)
		}
		if strings.Contains(got, "matches this description") {
			t.Fatalf("generic instruction should not reference a description: %s", got)
		}
	}
}

func TestBuildEditInstructionForbidsIdentityChanges(t *testing.T) {
	action := domain.TennisActions[2]
	checks := []string{
		string(action),
		"EXACT SAME FACE",
		"Do not change body proportions",
		"Only change: clothing, background, pose",
	}

	for _, analysis := range []*domain.PersonAnalysis{nil, sampleAnalysis()} {
		got := BuildEditInstruction(analysis, action)
		for _, expect := range checks {
			if !strings.Contains(got, expect) {
				t.Fatalf("instruction missing %q: %s", expect, got)
			}
		}
		if analysis == nil && strings.Contains(got, "Original person details") {
			t.Fatalf("unexpected person details without analysis: %s", got)
		}
		if analysis != nil && !strings.Contains(got, analysis.FacialFeatures) {
			t.Fatalf("expected facial features in instruction: %s", got)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	analysis := sampleAnalysis()
	for _, stage := range []domain.Stage{domain.StageEdit, domain.StageVariation, domain.StageGeneration} {
		for _, action := range domain.TennisActions {
			first := Build(stage, analysis, action)
			second := Build(stage, analysis, action)
			if first != second {
				t.Fatalf("Build(%s) not deterministic", stage)
			}
		}
	}
	if got := Build(domain.StageVariation, analysis, domain.TennisActions[0]); got != "" {
		t.Fatalf("variation stage takes no text, got %q", got)
	}
}

func TestBuildPassesMalformedFieldsThrough(t *testing.T) {
	analysis := &domain.PersonAnalysis{Age: `"}{ 30?`, HairColor: "n/a\n- injected"}
	got := BuildGenerationInstruction(analysis, domain.TennisActions[1])
	if !strings.Contains(got, analysis.Age) || !strings.Contains(got, analysis.HairColor) {
		t.Fatalf("malformed fields should pass through unchanged: %s", got)
	}
}

func TestAnalysisInstructions(t *testing.T) {
	sys := AnalysisSystemInstruction()
	for _, key := range []string{"age", "gender", "skinTone", "hairColor", "hairStyle", "facialFeatures", "bodyType", "height", "distinctiveFeatures"} {
		if !strings.Contains(sys, `"`+key+`"`) {
			t.Fatalf("schema missing %q: %s", key, sys)
		}
	}

	tests := []struct {
		lang string
		want string
	}{
		{lang: "es", want: "Quick analysis in Spanish"},
		{lang: "en-US", want: "Quick analysis in English"},
		{lang: "", want: "Quick analysis in Spanish"},
		{lang: "%%%", want: "Quick analysis in Spanish"},
	}
	for _, tc := range tests {
		if got := AnalysisUserInstruction(tc.lang); got != tc.want {
			t.Fatalf("AnalysisUserInstruction(%q) = %q, want %q", tc.lang, got, tc.want)
		}
	}
}
