package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	LogLevel         string
	JWTSecret        string
	JWTExpiry        time.Duration
	JWTRefreshExpiry time.Duration

	DatabaseDSN string

	EncryptionKey string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleProjectID    string
	GoogleCredentials  string

	SyncTopic string

	FirebaseCredentials string

	// Classifier provider: "gemini", "ollama" or "heuristic"
	ClassifierProvider string
	GeminiAPIKey       string
	OllamaBaseURL      string
	OllamaModel        string

	// Sync tuning
	SyncMessageCap  int           // max provider items collected per stage
	SyncPageSize    int64         // provider page size
	SyncMaxRetries  int           // delayed-retry bound for throttled syncs
	SyncMaxDelay    time.Duration // cap for delayed retry messages
	HandlerTimeout  time.Duration // per-message processing budget
	DeadlineMargin  time.Duration // remaining-budget threshold before giving the message back
	TimelineWorkers int           // concurrent per-person timeline writes
	MockMode        bool          // substitute fixture sources for provider calls
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiry:        getDuration("JWT_EXPIRY", 24*time.Hour),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),

		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=rolodex password=rolodex dbname=rolodex port=5432 sslmode=disable"),

		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleProjectID:    getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		SyncTopic: getEnv("SYNC_TOPIC", "contact-sync-jobs"),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		ClassifierProvider: getEnv("CLASSIFIER_PROVIDER", "heuristic"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llama3"),

		SyncMessageCap:  getInt("SYNC_MESSAGE_CAP", 500),
		SyncPageSize:    int64(getInt("SYNC_PAGE_SIZE", 100)),
		SyncMaxRetries:  getInt("SYNC_MAX_RETRIES", 5),
		SyncMaxDelay:    getDuration("SYNC_MAX_DELAY", 10*time.Minute),
		HandlerTimeout:  getDuration("SYNC_HANDLER_TIMEOUT", 10*time.Minute),
		DeadlineMargin:  getDuration("SYNC_DEADLINE_MARGIN", 30*time.Second),
		TimelineWorkers: getInt("TIMELINE_WORKERS", 10),
		MockMode:        getBool("MOCK_MODE", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
