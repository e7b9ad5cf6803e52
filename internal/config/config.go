// Package config loads the atlas service's environment-driven settings,
// following cmd/server/main.go's ".env is optional" godotenv idiom.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every value the atlas daemon reads from its environment.
type Config struct {
	Port             string
	DatabaseURL      string
	DBPassword       string
	DBRemote         bool
	GeoNamesUsername string
	GettyBaseURL     string
	APILog           bool
	GazetteerDir     string

	// GoogleAPIKey and PTVAPIKey back the out-of-scope /zone and transit
	// side services; the core search pipeline never reads them, but Load
	// still surfaces them so a caller wiring those services doesn't need
	// a second env-loading path.
	GoogleAPIKey string
	PTVAPIKey    string
}

// Load reads .env (if present) then populates Config from the process
// environment; a missing .env file is fine in production and not an error.
func Load() Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("could not load .env file:", err)
		}
	}

	return Config{
		Port:             envOr("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBPassword:       os.Getenv("DB_PWD"),
		DBRemote:         envBool("DB_REMOTE", true),
		GeoNamesUsername: os.Getenv("GEONAMES_USERNAME"),
		GettyBaseURL:     envOr("GETTY_BASE_URL", "https://www.getty.edu/vow/TGNServlet"),
		APILog:           envBool("SVC_API_LOG", false),
		GazetteerDir:     envOr("ATLAS_GAZETTEER_DIR", "gazetteer-data"),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		PTVAPIKey:        os.Getenv("PTV_API_KEY"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
