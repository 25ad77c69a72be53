package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port               int
	AppEnv             string
	MaxDocumentBytes   int
	WorkerCount        int
	DatabaseURL        string
	Neo4jURI           string
	Neo4jUser          string
	Neo4jPassword      string
	CORSAllowedOrigins []string
	FileRoot           string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	return FromEnv()
}

// FromEnv builds a Config from the process environment without reading .env.
func FromEnv() *Config {
	return &Config{
		Port:               getEnvInt("PORT", 5000),
		AppEnv:             getEnv("APP_ENV", "production"),
		MaxDocumentBytes:   getEnvInt("MAX_DOCUMENT_BYTES", 5*1024*1024),
		WorkerCount:        getEnvInt("WORKER_COUNT", 8),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Neo4jURI:           getEnv("NEO4J_URI", ""),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", "password"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		FileRoot:           getEnv("FILE_ROOT", ""),
	}
}

// Development reports whether debug logging and verbose errors are wanted.
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// HistoryEnabled reports whether run history is persisted to PostgreSQL.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// InventoryEnabled reports whether the Neo4j phrase inventory is configured.
func (c *Config) InventoryEnabled() bool {
	return c.Neo4jURI != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
