package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for
// intervals.
type Config struct {
	Env                string        // application environment (e.g. "dev", "prod")
	Port               string        // HTTP port to listen on
	DBUser             string        // database username
	DBPass             string        // database password (optional)
	DBHost             string        // database host address
	DBPort             string        // database port number
	DBName             string        // database name
	JWTSecret          string        // secret used to verify staff JWTs
	ServiceLaneLetters string        // turn-code letters routed to the service-desk lane, e.g. "B"
	DeskTurnLetter     string        // letter stamped on cash-desk turn references
	ReconcileInterval  time.Duration // how often the room billing sweep runs
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"), // empty allowed
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		JWTSecret:          must("JWT_SECRET"),
		ServiceLaneLetters: getenv("SERVICE_LANE_LETTERS", "B"),
		DeskTurnLetter:     getenv("DESK_TURN_LETTER", "B"),
		ReconcileInterval:  envDur("RECONCILE_INTERVAL", time.Minute),
	}
}

// ServiceLaneSet expands ServiceLaneLetters into a lookup set of
// single-letter prefixes.  Letters are upper-cased; anything that is not
// an ASCII letter is ignored.
func (c Config) ServiceLaneSet() map[string]bool {
	set := make(map[string]bool)
	for _, r := range strings.ToUpper(c.ServiceLaneLetters) {
		if r >= 'A' && r <= 'Z' {
			set[string(r)] = true
		}
	}
	return set
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

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
