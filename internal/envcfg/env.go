// Package envcfg reads typed configuration values from the environment.
// Every reader takes a default that wins when the variable is unset,
// blank, or fails to parse.
package envcfg

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// String returns the variable's trimmed value, or def when unset.
func String(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

// Bool parses the variable with strconv.ParseBool semantics.
func Bool(key string, def bool) bool {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// Int parses the variable as a positive integer; zero and negative values
// fall back to def.
func Int(key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}

// Duration parses the variable as a positive time.Duration ("30s", "2m").
func Duration(key string, def time.Duration) time.Duration {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}
