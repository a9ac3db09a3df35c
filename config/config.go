package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	ModelUrl         string
	ModelInputOp     string
	ModelOutputOp    string
	CredentialsFile  string
	ProjectId        string
	SentryDsn        string
	RequestTimeout   time.Duration
	PredictWorkers   int
	PredictQueueSize int
	Debug            bool
}

func Load() *Config {
	//load the .env file (ignore the error if there is none)
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "3000"),
		ModelUrl:         getEnv("MODEL_URL", "https://storage.googleapis.com/bkt-amirul/model/graph.pb"),
		ModelInputOp:     getEnv("MODEL_INPUT_OP", "x"),
		ModelOutputOp:    getEnv("MODEL_OUTPUT_OP", "Identity"),
		CredentialsFile:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", "key.json"),
		ProjectId:        getEnv("FIRESTORE_PROJECT_ID", ""),
		SentryDsn:        getEnv("SENTRY_DSN", ""),
		RequestTimeout:   getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
		PredictWorkers:   getIntEnv("PREDICT_WORKERS", 4),
		PredictQueueSize: getIntEnv("PREDICT_QUEUE_SIZE", 100),
		Debug:            getBoolEnv("DEBUG", false),
	}
}

func getEnv(key string, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
