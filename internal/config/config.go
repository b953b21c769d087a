package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                 int
	DBDSN                string
	JWTSecret            string
	WSInsecureSkipVerify bool
	EventQueueSize       int
	ClientBufferSize     int
	LogLevel             string
}

func Load() Config {
	return Config{
		Port:                 envInt("APP_PORT", 8084),
		DBDSN:                os.Getenv("DB_DSN"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		WSInsecureSkipVerify: os.Getenv("WS_INSECURE_SKIP_VERIFY") == "true",
		EventQueueSize:       envInt("EVENT_QUEUE_SIZE", 1024),
		ClientBufferSize:     envInt("CLIENT_BUFFER_SIZE", 64),
		LogLevel:             os.Getenv("LOG_LEVEL"),
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
