package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env        string
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	GeminiBaseURL   string
	GeminiAPIKey    string
	EmbeddingModel  string
	GenerationModel string
	EmbeddingDim    int
	EmbedCacheSize  int

	Alpha             float64
	MinRelevance      float64
	MinScoreFloor     float64
	MaxArticles       int
	TopK              int
	MaxQuestionLen    int
	VariantTimeoutMS  int
	GenerateTimeoutMS int
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "9020"),
		DBHost:     getEnv("DB_HOST", "qanoon-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "qanoon_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "qanoon_password"),
		DBName:     getEnv("DB_NAME", "qanoon_db"),

		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiAPIKey:    getSecret("GEMINI_API_KEY", "GEMINI_API_KEY_FILE", ""),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		GenerationModel: getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		EmbeddingDim:    getEnvInt("EMBEDDING_DIM", 768),
		EmbedCacheSize:  getEnvInt("EMBED_CACHE_SIZE", 512),

		Alpha:             getEnvFloat("RAG_ALPHA", 0.6),
		MinRelevance:      getEnvFloat("RAG_MIN_RELEVANCE", 0.15),
		MinScoreFloor:     getEnvFloat("RAG_MIN_SCORE_FLOOR", 0.05),
		MaxArticles:       getEnvInt("RAG_MAX_ARTICLES", 5),
		TopK:              getEnvInt("RAG_TOP_K", 20),
		MaxQuestionLen:    getEnvInt("RAG_MAX_QUESTION_LEN", 2000),
		VariantTimeoutMS:  getEnvInt("RAG_VARIANT_TIMEOUT_MS", 3000),
		GenerateTimeoutMS: getEnvInt("RAG_GENERATE_TIMEOUT_MS", 30000),
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("RAG_ALPHA must be in [0,1], got %v", c.Alpha)
	}
	if c.MinRelevance < 0 || c.MinRelevance > 1 {
		return fmt.Errorf("RAG_MIN_RELEVANCE must be in [0,1], got %v", c.MinRelevance)
	}
	if c.MaxArticles <= 0 {
		return fmt.Errorf("RAG_MAX_ARTICLES must be positive, got %d", c.MaxArticles)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.TopK)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim)
	}
	if c.VariantTimeoutMS <= 0 || c.GenerateTimeoutMS <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Env != "development" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// Docker-style secret file indirection.
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
