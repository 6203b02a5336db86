package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	AppURL    string
	LogLevel  string
	LogFormat string

	// reasoning service
	AIProvider       string
	GeminiAPIKey     string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AIModel          string
	MaxInputTokens   int
	MaxOutputTokens  int
	MaxImages        int
	CostSoftLimitUSD float64
	AITimeout        time.Duration
	DocSummaryChars  int

	// pdf
	PDFMaxPages        int
	PDFRenderWidth     int
	PDFMaxDiagramPages int

	// documentation
	AllowedDocDomains []string
	HTTPTimeout       time.Duration

	// binary store
	BlobProvider      string
	AwsAccessKey      string
	AwsSecretKey      string
	AwsRegion         string
	BucketName        string
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioUseSSL       bool
	BlobPublicBaseURL string

	// key-value store
	DatabaseURL     string
	SslCertPath     string
	MemoryCacheSize int

	// notion
	NotionToken       string
	NotionDatabaseID  string
	NotionPropertyMap map[string]string
	NotionAPIURL      string

	// telegram
	TelegramBotToken      string
	TelegramChannelID     string
	TelegramThreadID      int64
	TelegramWebhookSecret string
	TelegramReviewers     []string
	TelegramAPIURL        string

	// security
	InternalAPISecret  string
	APIJWTSecret       string
	NeedsInfoOnComment bool
	RateLimitWindow    time.Duration

	propertyMapErr error
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		AppURL:    getEnv("APP_URL", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AIProvider:       strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		AIModel:          getEnv("AI_MODEL", ""),
		MaxInputTokens:   getEnvInt("AI_MAX_INPUT_TOKENS", 180000),
		MaxOutputTokens:  getEnvInt("AI_MAX_OUTPUT_TOKENS", 2048),
		MaxImages:        getEnvInt("AI_MAX_IMAGES", 10),
		CostSoftLimitUSD: getEnvFloat("COST_SOFT_LIMIT_USD", 0.5),
		AITimeout:        getEnvDuration("AI_TIMEOUT", 3*time.Minute),
		DocSummaryChars:  getEnvInt("DOC_SUMMARY_CHARS", 5000),

		PDFMaxPages:        getEnvInt("PDF_MAX_PAGES", 200),
		PDFRenderWidth:     getEnvInt("PDF_RENDER_WIDTH", 1600),
		PDFMaxDiagramPages: getEnvInt("PDF_MAX_DIAGRAM_PAGES", 10),

		AllowedDocDomains: getEnvList("ALLOWED_DOC_DOMAINS"),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		BlobProvider:      strings.ToLower(getEnv("BLOB_PROVIDER", "s3")),
		AwsAccessKey:      getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:      getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:         getEnv("AWS_REGION", "us-east-2"),
		BucketName:        getEnv("BUCKET_NAME", "project-analyzer"),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", true),
		BlobPublicBaseURL: strings.TrimRight(getEnv("BLOB_PUBLIC_BASE_URL", ""), "/"),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SslCertPath:     getEnv("SSL_CERT_PATH", ""),
		MemoryCacheSize: getEnvInt("MEMORY_CACHE_SIZE", 10000),

		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DATABASE_ID", ""),
		NotionAPIURL:     getEnv("NOTION_API_URL", "https://api.notion.com/v1"),

		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChannelID:     getEnv("TELEGRAM_CHANNEL_ID", ""),
		TelegramThreadID:      int64(getEnvInt("TELEGRAM_THREAD_ID", 0)),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		TelegramReviewers:     getEnvList("TELEGRAM_REVIEWERS"),
		TelegramAPIURL:        getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),

		InternalAPISecret:  getEnv("INTERNAL_API_SECRET", ""),
		APIJWTSecret:       getEnv("API_JWT_SECRET", ""),
		NeedsInfoOnComment: getEnvBool("NEEDS_INFO_ON_COMMENT", true),
		RateLimitWindow:    getEnvDuration("RATE_LIMIT_WINDOW", 10*time.Second),
	}

	cfg.NotionPropertyMap, cfg.propertyMapErr = parsePropertyMap(getEnv("NOTION_PROPERTY_MAP", ""))

	if cfg.AIModel == "" {
		cfg.AIModel = defaultModel(cfg.AIProvider)
	}

	return cfg
}

// Validate reports configuration the service cannot start with.
// Missing collaborator credentials are not fatal; those calls fail when made.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("AI_PROVIDER %q is not supported (gemini, openai)", c.AIProvider)
	}
	switch c.BlobProvider {
	case "s3", "minio":
	default:
		return fmt.Errorf("BLOB_PROVIDER %q is not supported (s3, minio)", c.BlobProvider)
	}
	if c.propertyMapErr != nil {
		return fmt.Errorf("NOTION_PROPERTY_MAP: %w", c.propertyMapErr)
	}
	if c.MaxInputTokens <= 0 || c.MaxOutputTokens <= 0 {
		return fmt.Errorf("AI_MAX_INPUT_TOKENS and AI_MAX_OUTPUT_TOKENS must be positive")
	}
	return nil
}

func defaultModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o"
	}
	return "gemini-1.5-pro"
}

func parsePropertyMap(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]string{}, err
	}
	return out, nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a number, using default %g", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
