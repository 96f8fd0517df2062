package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress  string
	AllowedOrigins []string
	JWTSecret      string
	JWTIssuer      string
	JWTExpiration  time.Duration
	DBDriver       string
	DatabaseDSN    string
	DatabaseDebug  bool
	MongoURI       string
	MongoDB        string
	Timezone       string
}

// Load reads the environment, after merging an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to read .env: %v", err)
	}

	return &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTIssuer:      getEnv("JWT_ISSUER", "hctf"),
		JWTExpiration:  time.Duration(getIntEnv("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "file:hctf.db?_pragma=foreign_keys(1)"),
		DatabaseDebug:  getEnv("DB_DEBUG", "") == "true",
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDB:        getEnv("MONGO_DB", "hctf"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Shanghai"),
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown time zone %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getSliceEnv(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
