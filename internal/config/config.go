// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"

	"github.com/iliyamo/hotel-front-office/internal/inventory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The database section supports two drivers: the
// embedded sqlite store used for single-property deployments and tests, and
// MySQL for a shared installation.  RoomBlocks is the fixed inventory the
// engine validates every room number against; it is configuration, not
// business logic.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	DBDriver string // "sqlite" or "mysql"
	DBPath   string // sqlite database file (sqlite driver only)
	DBUser   string // database username (mysql)
	DBPass   string // database password (mysql, optional)
	DBHost   string // database host address (mysql)
	DBPort   string // database port number (mysql)
	DBName   string // database name (mysql)

	RoomBlocks inventory.Blocks // inclusive room-number ranges
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Which database
// variables are required depends on DB_DRIVER.
func Load() Config {
	cfg := Config{
		Env:      must("APP_ENV"),
		Port:     must("APP_PORT"),
		DBDriver: getenv("DB_DRIVER", "sqlite"),
	}

	switch cfg.DBDriver {
	case "sqlite":
		cfg.DBPath = getenv("DB_PATH", "hotel_fo.db")
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	default:
		log.Fatalf("unsupported DB_DRIVER: %q (want sqlite or mysql)", cfg.DBDriver)
	}

	if raw := os.Getenv("ROOM_BLOCKS"); raw != "" {
		blocks, err := inventory.Parse(raw)
		if err != nil {
			log.Fatalf("invalid ROOM_BLOCKS: %v", err)
		}
		cfg.RoomBlocks = blocks
	} else {
		cfg.RoomBlocks = inventory.Default()
	}

	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the value of an optional environment variable or the
// provided default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
