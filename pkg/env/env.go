package env

import "os"

// Get returns the environment variable's value, or fallback when the
// variable is unset or empty. Structured config goes through pkg/config;
// this exists for the few knobs read before config loads.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
