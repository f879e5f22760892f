// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config is the server-level configuration. Adapter-specific settings
// (provider keys, Mongo pool options) are read by the adapters themselves.
type Config struct {
	Port               string
	MongoURI           string
	MongoDatabase      string
	BrokerPartitions   int
	TranscriberBackend string
	LanguageCode       string
}

// Load reads the environment, after loading .env when present.
func Load(logger *zap.Logger) Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           os.Getenv("MONGODB_URI"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "audiolesson"),
		BrokerPartitions:   4,
		TranscriberBackend: getEnv("TRANSCRIBER_BACKEND", "assemblyai"),
		LanguageCode:       getEnv("TRANSCRIBER_LANGUAGE", "en-US"),
	}

	if partitions := os.Getenv("BROKER_PARTITIONS"); partitions != "" {
		if n, err := strconv.Atoi(partitions); err == nil && n > 0 {
			cfg.BrokerPartitions = n
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
