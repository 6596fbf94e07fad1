package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service, loaded once at startup.
type Config struct {
	Port   string
	DBPath string

	// LLM provider selection: "openai", "ollama" or "gemini".
	LLMProvider    string
	OpenAIAPIKey   string
	OpenAIModel    string
	OllamaBaseURL  string
	OllamaModel    string
	GeminiAPIKey   string
	GeminiModel    string
	LLMTemperature float64
	LLMTimeoutSecs int

	// Embedding provider: "openai" or "ollama". Must match the provider the
	// index was built with.
	EmbeddingProvider string
	EmbeddingModel    string

	// Retrieval settings.
	VectorDBPath   string
	RAGK           int
	ScoreThreshold float64

	// Vector store backend: "file" (persisted on disk) or "chroma".
	VectorStore      string
	ChromaURL        string
	ChromaCollection string

	HistoryWindow int

	TelegramBotToken string
}

// Load reads configuration from the environment, after loading a .env file if
// one is present. Missing optional values fall back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	return &Config{
		Port:   getEnv("PORT", "8000"),
		DBPath: getEnv("DATABASE_PATH", "chat_history.db"),

		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "qwen2.5:7b-instruct"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeoutSecs: getEnvInt("LLM_TIMEOUT_SECS", 60),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:    getEnv("RAG_EMBEDDING_MODEL", "text-embedding-3-large"),

		VectorDBPath:   getEnv("RAG_VECTOR_DB_PATH", "vector_store"),
		RAGK:           getEnvInt("RAG_K", 5),
		ScoreThreshold: getEnvFloat("RAG_SCORE_THRESHOLD", 0.1),

		VectorStore:      getEnv("VECTOR_STORE", "file"),
		ChromaURL:        getEnv("CHROMA_URL", "http://localhost:8000"),
		ChromaCollection: getEnv("CHROMA_COLLECTION", "regulations"),

		HistoryWindow: getEnvInt("HISTORY_WINDOW", 6),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
}

// Validate checks that the credentials required by the selected providers are
// present. A failure here is fatal at startup: the process must not serve
// traffic with an unusable model provider.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("LLM_PROVIDER=openai requires OPENAI_API_KEY")
		}
	case "ollama":
		// Ollama needs no credential, only a reachable base URL.
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("LLM_PROVIDER=gemini requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLMProvider)
	}

	switch c.EmbeddingProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("EMBEDDING_PROVIDER=openai requires OPENAI_API_KEY")
		}
	case "ollama":
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER: %s", c.EmbeddingProvider)
	}

	switch c.VectorStore {
	case "file", "chroma":
	default:
		return fmt.Errorf("unknown VECTOR_STORE: %s", c.VectorStore)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("WARN: invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("WARN: invalid float for %s, using default %v", key, fallback)
	}
	return fallback
}
