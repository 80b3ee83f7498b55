package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config holds application configuration.
type Config struct {
	AppName    string
	AppVersion string
	Port       string

	Environment   string
	AdminAPIToken string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string

	// Episode lifecycle
	PendingTimeout        time.Duration // pending episodes older than this fail
	ReconcileInterval     time.Duration
	ReconcileBatchSize    int
	PostProcessingEnabled bool
	TranscriptMaxChars    int
	TranscriptRetries     int

	// Object storage
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3PublicBaseURL string

	// Text generation
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Image generation
	ImageAPIBaseURL string
	ImageAPIKey     string
	ImageAPIModel   string

	// Email
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string
	EmailRatePerMinute int
	EmailBurst         int

	// Presentation layer + content source
	CachePurgeBaseURL string
	ScraperBaseURL    string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "wavecast-cloud"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Port:        getenv("PORT", "8080"),
		Environment: getenv("ENVIRONMENT", "development"),

		AdminAPIToken: strings.TrimSpace(getenv("ADMIN_API_TOKEN", "")),

		DBType:            getenv("DB_TYPE", "postgres"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "wavecast"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     10,
		DBMaxOpenConn:     100,
		DBConnMaxLifetime: 3600,
		DBConnMaxIdleTime: 60,

		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		PendingTimeout:        time.Duration(getenvInt("PENDING_TIMEOUT_MINUTES", 30)) * time.Minute,
		ReconcileInterval:     time.Duration(getenvInt("RECONCILE_INTERVAL_SECONDS", 300)) * time.Second,
		ReconcileBatchSize:    getenvInt("RECONCILE_BATCH_SIZE", 50),
		PostProcessingEnabled: getenvBool("POST_PROCESSING_ENABLED", true),
		TranscriptMaxChars:    getenvInt("TRANSCRIPT_MAX_CHARS", 15000),
		TranscriptRetries:     getenvInt("TRANSCRIPT_RETRIES", 3),

		S3Endpoint:      strings.TrimSpace(getenv("S3_ENDPOINT", "")),
		S3Region:        getenv("S3_REGION", "us-east-1"),
		S3Bucket:        getenv("S3_BUCKET", "wavecast-media"),
		S3PublicBaseURL: getenv("S3_PUBLIC_BASE_URL", "https://media.wavecast.fm"),

		LLMProvider:     getenv("LLM_PROVIDER", ProviderOpenAI),
		LLMModel:        getenv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:    strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
		AnthropicAPIKey: strings.TrimSpace(getenv("ANTHROPIC_API_KEY", "")),
		OllamaHost:      getenv("OLLAMA_HOST", "http://localhost:11434"),

		ImageAPIBaseURL: getenv("IMAGE_API_BASE_URL", "https://api.openai.com"),
		ImageAPIKey:     strings.TrimSpace(getenv("IMAGE_API_KEY", "")),
		ImageAPIModel:   getenv("IMAGE_API_MODEL", "gpt-image-1"),

		SMTPHost:           getenv("SMTP_HOST", "localhost"),
		SMTPPort:           getenvInt("SMTP_PORT", 587),
		SMTPUser:           getenv("SMTP_USER", ""),
		SMTPPassword:       getenv("SMTP_PASSWORD", ""),
		SMTPFrom:           getenv("SMTP_FROM", "no-reply@wavecast.fm"),
		EmailRatePerMinute: getenvInt("EMAIL_RATE_PER_MINUTE", 60),
		EmailBurst:         getenvInt("EMAIL_BURST", 10),

		CachePurgeBaseURL: getenv("CACHE_PURGE_BASE_URL", "http://localhost:3000/api/cache"),
		ScraperBaseURL:    getenv("SCRAPER_BASE_URL", "http://localhost:9100"),
	}

	return &cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
