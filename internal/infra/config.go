package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	minRequestBudget = 10 * time.Second
	maxRequestBudget = 180 * time.Second
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIOrg           string
	AnalysisModel       string
	ImageModel          string
	ImageSize           string
	ImageQuality        string
	AnalysisDetail      string
	AnalysisLanguage    string
	PipelineVariant     string
	PipelineStages      []string
	RequestBudget       time.Duration
	MinStageBudget      time.Duration
	ProviderCallTimeout time.Duration
	MaxUploadBytes      int
	RateLimitPerMin     int
	RedisURL            string
	CORSAllowedOrigins  []string
	TrustProxyHeaders   bool
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	HTTPShutdownTimeout time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		OpenAIAPIKey:        strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:           os.Getenv("OPENAI_ORG"),
		AnalysisModel:       getEnv("OPENAI_ANALYSIS_MODEL", "gpt-4o-mini"),
		ImageModel:          getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		ImageSize:           getEnv("IMAGE_SIZE", "1024x1024"),
		ImageQuality:        getEnv("IMAGE_QUALITY", "medium"),
		AnalysisDetail:      getEnv("ANALYSIS_IMAGE_DETAIL", "low"),
		AnalysisLanguage:    getEnv("ANALYSIS_LANGUAGE", "es"),
		PipelineVariant:     strings.ToLower(getEnv("PIPELINE_VARIANT", "full")),
		PipelineStages:      getEnvList("PIPELINE_STAGES"),
		RequestBudget:       time.Second * time.Duration(getEnvInt("REQUEST_BUDGET_SECONDS", 60)),
		MinStageBudget:      time.Second * time.Duration(getEnvInt("MIN_STAGE_BUDGET_SECONDS", 2)),
		ProviderCallTimeout: time.Second * time.Duration(getEnvInt("PROVIDER_CALL_TIMEOUT_SECONDS", 45)),
		MaxUploadBytes:      getEnvInt("MAX_UPLOAD_BYTES", 10<<20),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		RedisURL:            os.Getenv("REDIS_URL"),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),
		TrustProxyHeaders:   getEnvBool("TRUST_PROXY_HEADERS", false),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		HTTPShutdownTimeout: time.Second * time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 20)),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if cfg.RequestBudget < minRequestBudget {
		cfg.RequestBudget = minRequestBudget
	}
	if cfg.RequestBudget > maxRequestBudget {
		cfg.RequestBudget = maxRequestBudget
	}
	if cfg.MinStageBudget < 0 || cfg.MinStageBudget >= cfg.RequestBudget {
		cfg.MinStageBudget = 0
	}
	// A response must still be writable after the pipeline gives up.
	if cfg.HTTPWriteTimeout <= 0 {
		cfg.HTTPWriteTimeout = cfg.RequestBudget + 10*time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}

	return cfg, nil
}

// APIKeyHint returns a short prefix of the API key that is safe to log.
func (c *Config) APIKeyHint() string {
	if len(c.OpenAIAPIKey) <= 10 {
		return "***"
	}
	return c.OpenAIAPIKey[:10] + "..."
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
