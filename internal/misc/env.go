package misc

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

// parsed returns parse(value of key), or def when the key is blank or parse rejects it.
func parsed[T any](key string, def T, parse func(string) (T, bool)) T {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	if out, ok := parse(v); ok {
		return out
	}
	return def
}

// Getenv returns the trimmed value of key, or def when it is unset or blank.
func Getenv(key, def string) string {
	return parsed(key, def, func(s string) (string, bool) { return s, true })
}

// GetDuration accepts plain seconds ("5") or Go duration syntax ("1m30s").
// Non-positive values collapse to zero.
func GetDuration(key string, def time.Duration) time.Duration {
	return parsed(key, def, func(s string) (time.Duration, bool) {
		d, err := time.ParseDuration(s)
		if n, nerr := strconv.ParseInt(s, 10, 64); nerr == nil {
			d, err = time.Duration(n)*time.Second, nil
		}
		return max(d, 0), err == nil
	})
}

func GetBool(key string, def bool) bool {
	return parsed(key, def, func(s string) (bool, bool) {
		switch strings.ToLower(s) {
		case "1", "true", "t", "yes", "y":
			return true, true
		case "0", "false", "f", "no", "n":
			return false, true
		}
		return false, false
	})
}

// GetInt returns the integer value of key when it parses and is >= min.
func GetInt(key string, def, min int) int {
	return parsed(key, def, func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil && n >= min
	})
}
