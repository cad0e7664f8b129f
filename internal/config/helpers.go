package config

import (
	"os"
	"strings"
	"time"

	"github.com/vshulcz/Cubeship/internal/misc"
)

// Agent settings are layered: environment first, then the command line, then the config file or a
// built-in default. Collector settings use the opposite order and live in collector.go.

func envSet(key string) bool {
	return strings.TrimSpace(os.Getenv(key)) != ""
}

// firstValid returns the first candidate accepted by ok, or fallback.
func firstValid[T any](ok func(T) bool, fallback T, candidates ...T) T {
	for _, c := range candidates {
		if ok(c) {
			return c
		}
	}
	return fallback
}

func layeredString(envKey, flagVal, fallback string) string {
	nonBlank := func(s string) bool { return s != "" }
	return firstValid(nonBlank, fallback, misc.Getenv(envKey, ""), strings.TrimSpace(flagVal))
}

// layeredBool lets an unparsable environment value fall back to the file/default, never to the flag.
func layeredBool(envKey string, flagVal, fallback bool) bool {
	if envSet(envKey) {
		return misc.GetBool(envKey, fallback)
	}
	return flagVal || fallback
}

// layeredInt skips zero and anything below min.
func layeredInt(envKey string, flagVal, fallback, min int) int {
	inRange := func(n int) bool { return n != 0 && n >= min }
	return firstValid(inRange, fallback, misc.GetInt(envKey, 0, min), flagVal)
}

// layeredSeconds resolves an interval given in seconds on the command line (0 = unset).
// The environment also accepts Go duration syntax. custom reports whether env or flag supplied it.
func layeredSeconds(envKey string, flagSeconds, fallbackSeconds int) (d time.Duration, custom bool) {
	fallback := time.Duration(fallbackSeconds) * time.Second
	switch {
	case envSet(envKey):
		return misc.GetDuration(envKey, fallback), true
	case flagSeconds != 0:
		return time.Duration(flagSeconds) * time.Second, true
	default:
		return fallback, false
	}
}
