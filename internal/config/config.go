package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	CatalogBaseURL        string
	SalesBaseURL          string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	SnapshotTTLSeconds    int
	HTTPTimeoutSeconds    int
	AuthSecret            string
	AccessTokenTTLMinutes int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	snapshotTTL, err := strconv.Atoi(getEnv("SNAPSHOT_TTL_SECONDS", "30"))
	if err != nil || snapshotTTL < 1 {
		snapshotTTL = 30
	}
	httpTimeout, err := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "10"))
	if err != nil || httpTimeout < 1 {
		httpTimeout = 10
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		CatalogBaseURL:        strings.TrimRight(getEnv("CATALOG_API_URL", "http://localhost:9090/api"), "/"),
		SalesBaseURL:          strings.TrimRight(getEnv("SALES_API_URL", "http://localhost:9090/api"), "/"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		SnapshotTTLSeconds:    snapshotTTL,
		HTTPTimeoutSeconds:    httpTimeout,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
