package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Keys      APIKeys
	Ai        AIConfig
	Assistant AssistantConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	GoogleGemini string
	Groq         string
	Jina         string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama", "gemini" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "groq"
	LLMModel          string // e.g. "llama3.1", "llama-3.1-8b-instant"
	LLMBaseURL        string
	LLMAPIKey         string
}

// AssistantConfig holds the tunables of the conversational workflow:
// session memory sizing, retrieval depth, reflection retries and the
// consolidation threshold.
type AssistantConfig struct {
	SessionWindow         int     // max turns kept per session
	SessionTTLSeconds     int     // session expiry in the fast store
	ShortTermTurns        int     // recent turns injected into prompts
	LongTermMemories      int     // durable memories injected into prompts
	RetrieveK             int     // passages fetched per query
	MaxReflectRetries     int     // regenerations allowed after a failed check
	PromotionThreshold    float64 // min importance score to promote a turn
	RequestTimeoutSeconds int     // per-request budget for a full turn
	MemoryDir             string  // file fallback location for durable memories
	ChunkSize             int     // ingestion chunk size in characters
	ChunkOverlap          int     // ingestion chunk overlap in characters
	IngestTopic           string  // internal bus topic for document ingestion
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "ByteMe Assistant"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Groq:         getEnv("GROQ_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.1"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		},
		Assistant: AssistantConfig{
			SessionWindow:         getEnvAsInt("SESSION_WINDOW", 10),
			SessionTTLSeconds:     getEnvAsInt("SESSION_TTL_SECONDS", 3600),
			ShortTermTurns:        getEnvAsInt("SHORT_TERM_TURNS", 3),
			LongTermMemories:      getEnvAsInt("LONG_TERM_MEMORIES", 2),
			RetrieveK:             getEnvAsInt("RETRIEVE_K", 5),
			MaxReflectRetries:     getEnvAsInt("MAX_REFLECT_RETRIES", 2),
			PromotionThreshold:    getEnvAsFloat("PROMOTION_THRESHOLD", 0.5),
			RequestTimeoutSeconds: getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 30),
			MemoryDir:             getEnv("MEMORY_DIR", "data/memory"),
			ChunkSize:             getEnvAsInt("INGEST_CHUNK_SIZE", 1500),
			ChunkOverlap:          getEnvAsInt("INGEST_CHUNK_OVERLAP", 200),
			IngestTopic:           getEnv("INGEST_DOCUMENT_TOPIC_NAME", "document.ingest"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
