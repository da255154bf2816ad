package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	RedisURL    string
	Search      SearchConfig
	LLM         LLMConfig
	// AlertRecovery selects the partial-output recovery strategy (regex|stream).
	AlertRecovery string
	Artifact      ArtifactConfig
	RateLimit     RateLimitConfig
}

type SearchConfig struct {
	APIKey    string
	BaseURL   string
	CacheTTL  time.Duration
	CacheSize int
}

type LLMConfig struct {
	Provider     string
	APIKey       string
	GeminiAPIKey string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float32
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	// Dir is the local directory used when S3 is not configured.
	Dir string
}

// CanUseS3 reports whether the S3 settings are complete.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled && a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command-line arguments.
func LoadArgs(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cfg := &Config{
		Port:          *port,
		Env:           env,
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
		Search:        loadSearchConfig(),
		LLM:           loadLLMConfig(),
		AlertRecovery: firstNonEmpty(strings.TrimSpace(os.Getenv("ALERT_RECOVERY")), "regex"),
		Artifact:      loadArtifactConfig(env),
		RateLimit: RateLimitConfig{
			Requests: envInt("RATE_LIMIT_REQUESTS", 10),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
	if strings.EqualFold(env, "local") {
		applyLocalDefaults(cfg)
	}
	return cfg, nil
}

func loadSearchConfig() SearchConfig {
	return SearchConfig{
		APIKey:    firstNonEmpty(strings.TrimSpace(os.Getenv("SEARCH_API_KEY")), strings.TrimSpace(os.Getenv("SERPAPI_API_KEY"))),
		BaseURL:   strings.TrimSpace(os.Getenv("SEARCH_BASE_URL")),
		CacheTTL:  envDuration("SEARCH_CACHE_TTL", 10*time.Minute),
		CacheSize: envInt("SEARCH_CACHE_SIZE", 256),
	}
}

func loadLLMConfig() LLMConfig {
	provider := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "groq"))
	key := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	switch provider {
	case "openai":
		key = firstNonEmpty(key, strings.TrimSpace(os.Getenv("OPENAI_API_KEY")))
	case "groq":
		key = firstNonEmpty(key, strings.TrimSpace(os.Getenv("GROQ_API_KEY")))
	}
	return LLMConfig{
		Provider:     provider,
		APIKey:       key,
		GeminiAPIKey: firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), key),
		BaseURL:      strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		Model:        strings.TrimSpace(os.Getenv("LLM_MODEL")),
		MaxTokens:    envInt("LLM_MAX_TOKENS", 4000),
		Temperature:  float32(envFloat("LLM_TEMPERATURE", 0.3)),
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   strings.EqualFold(strings.TrimSpace(env), "local") || endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "safewatch-artifacts"),
		Prefix:    strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")),
		UseSSL:    resolveArtifactUseSSL(env),
		Dir:       strings.TrimSpace(os.Getenv("ARTIFACT_DIR")),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
