package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is missing")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-1234567890")
	t.Setenv("PORT", "")
	t.Setenv("REQUEST_BUDGET_SECONDS", "")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "")
	t.Setenv("PIPELINE_VARIANT", "")
	t.Setenv("PIPELINE_STAGES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RequestBudget != 60*time.Second {
		t.Fatalf("RequestBudget = %v, want 60s", cfg.RequestBudget)
	}
	if cfg.HTTPWriteTimeout != 70*time.Second {
		t.Fatalf("HTTPWriteTimeout = %v, want 70s", cfg.HTTPWriteTimeout)
	}
	if cfg.PipelineVariant != "full" {
		t.Fatalf("PipelineVariant = %q, want full", cfg.PipelineVariant)
	}
	if cfg.PipelineStages != nil {
		t.Fatalf("PipelineStages = %#v, want nil", cfg.PipelineStages)
	}
	if cfg.AnalysisLanguage != "es" {
		t.Fatalf("AnalysisLanguage = %q, want es", cfg.AnalysisLanguage)
	}
}

func TestLoadConfigClampsRequestBudget(t *testing.T) {
	tests := []struct {
		name    string
		seconds string
		want    time.Duration
	}{
		{name: "below hosting minimum", seconds: "3", want: 10 * time.Second},
		{name: "above hosting maximum", seconds: "600", want: 180 * time.Second},
		{name: "within range", seconds: "90", want: 90 * time.Second},
		{name: "garbage uses default", seconds: "soon", want: 60 * time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "sk-test")
			t.Setenv("REQUEST_BUDGET_SECONDS", tc.seconds)

			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig returned error: %v", err)
			}
			if cfg.RequestBudget != tc.want {
				t.Fatalf("RequestBudget = %v, want %v", cfg.RequestBudget, tc.want)
			}
		})
	}
}

func TestLoadConfigParsesStageList(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PIPELINE_STAGES", " variation, ,generation ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"variation", "generation"}
	if len(cfg.PipelineStages) != len(want) {
		t.Fatalf("PipelineStages = %#v, want %#v", cfg.PipelineStages, want)
	}
	for i := range want {
		if cfg.PipelineStages[i] != want[i] {
			t.Fatalf("PipelineStages[%d] = %q, want %q", i, cfg.PipelineStages[i], want[i])
		}
	}
}

func TestAPIKeyHint(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-proj-abcdefghijkl"}
	if got := cfg.APIKeyHint(); got != "sk-proj-ab..." {
		t.Fatalf("APIKeyHint() = %q", got)
	}
	short := &Config{OpenAIAPIKey: "sk"}
	if got := short.APIKeyHint(); got != "***" {
		t.Fatalf("APIKeyHint() = %q", got)
	}
}

func TestLoadConfigTrustProxyHeaders(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "", want: false},
		{value: "true", want: true},
		{value: "1", want: true},
		{value: "nope", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "sk-test")
			t.Setenv("TRUST_PROXY_HEADERS", tc.value)

			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig returned error: %v", err)
			}
			if cfg.TrustProxyHeaders != tc.want {
				t.Fatalf("TrustProxyHeaders = %v, want %v", cfg.TrustProxyHeaders, tc.want)
			}
		})
	}
}
