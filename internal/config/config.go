// Package config loads runtime settings from the environment. A local .env
// file is honored when present so development does not require exporting
// variables by hand.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	OllamaHost    string
	EmbedModel    string
	CORSOrigins   []string
	SignupCredits int
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	return Config{
		Port:          getenv("PORT", "8081"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		OllamaHost:    getenv("OLLAMA_HOST", "http://localhost:11434"),
		EmbedModel:    getenv("EMBED_MODEL", "nomic-embed-text"),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		SignupCredits: getenvInt("SIGNUP_CREDITS", 100),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
