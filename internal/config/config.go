// Package config centralizes server settings. Defaults live in code;
// environment variables override them.
package config

import (
	"os"
	"strconv"
)

// Config holds the complete server configuration.
type Config struct {
	Addr        string  // HTTP listen address
	MetricsAddr string  // debug/metrics listen address, localhost only
	PublicURL   string  // externally reachable URL, used by the /qr endpoint
	ClientDir   string  // static client assets
	DBPath      string  // SQLite database file
	ArenaX      float64 // arena extent along X (positions span [-ArenaX/2, ArenaX/2])
	ArenaZ      float64 // arena extent along Z
}

// Load returns the configuration with environment overrides applied.
func Load() Config {
	cfg := Config{
		Addr:        ":8080",
		MetricsAddr: "127.0.0.1:6060",
		PublicURL:   "http://localhost:8080",
		ClientDir:   "./client",
		DBPath:      "arena.db",
		ArenaX:      400,
		ArenaZ:      400,
	}

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		cfg.PublicURL = v
	}
	if v := os.Getenv("CLIENT_DIR"); v != "" {
		cfg.ClientDir = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getEnvFloat("ARENA_X", 0); v > 0 {
		cfg.ArenaX = v
	}
	if v := getEnvFloat("ARENA_Z", 0); v > 0 {
		cfg.ArenaZ = v
	}
	return cfg
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
