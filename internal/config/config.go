package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	AllowedOrigin    string
	DatabaseURL      string
	SnapshotPath     string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
	AuthSecret       string
	TokenTTLMinutes  int
	OwnerEmail       string
	OwnerPassword    string
	ActivityCap      int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	reportTTL, err := strconv.Atoi(getEnv("REPORT_TTL_SECONDS", "60"))
	if err != nil || reportTTL < 1 {
		reportTTL = 60
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	activityCap, err := strconv.Atoi(getEnv("ACTIVITY_CAP", "500"))
	if err != nil || activityCap < 1 {
		activityCap = 500
	}

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SnapshotPath:     getEnv("SNAPSHOT_PATH", "stocksight-store.json"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		ReportTTLSeconds: reportTTL,
		AuthSecret:       strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		TokenTTLMinutes:  tokenTTL,
		OwnerEmail:       strings.ToLower(strings.TrimSpace(getEnv("OWNER_EMAIL", "owner@stocksight.local"))),
		OwnerPassword:    strings.TrimSpace(os.Getenv("OWNER_PASSWORD")),
		ActivityCap:      activityCap,
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
