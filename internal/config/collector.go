package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/Cubeship/internal/misc"
)

const (
	defaultListenAndServeAddr = ":8080"
	defaultFilePath           = "events-db.json"
	defaultDSN                = ""
	defaultStoreInterval      = 300
	defaultRestore            = false
)

// CollectorConfig configures the receiving server.
type CollectorConfig struct {
	Address   string
	File      string
	DSN       string
	Key       string
	BasicAuth string
	Interval  time.Duration
	Restore   bool
}

// CLI > ENV > config file > defaults
func LoadCollectorConfig(args []string, out io.Writer) (CollectorConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("collector", flag.ContinueOnError)
	fs.SetOutput(out)

	var cfgOpt, addrOpt, fileOpt, dsnOpt, keyOpt, authOpt string
	var ivalOpt int
	var restoreOpt bool

	fs.StringVar(&cfgOpt, "c", "", "YAML config file")
	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("HTTP listen address, default: %s", defaultListenAndServeAddr))
	fs.StringVar(&fileOpt, "f", "", fmt.Sprintf("FILE_STORAGE_PATH, default: %s", defaultFilePath))
	fs.StringVar(&dsnOpt, "d", "", "DATABASE_DSN for Postgres, empty keeps events in memory")
	fs.StringVar(&keyOpt, "k", "", "secret key to verify HashSHA256 header")
	fs.StringVar(&authOpt, "u", "", "required basic auth credentials as user:password")
	fs.IntVar(&ivalOpt, "i", -1, fmt.Sprintf("STORE_INTERVAL seconds (0 - sync), default: %d", defaultStoreInterval))
	fs.BoolVar(&restoreOpt, "r", false, fmt.Sprintf("RESTORE on start (true/false), default: %t", defaultRestore))

	if err := fs.Parse(args); err != nil {
		return CollectorConfig{}, err
	}

	var file collectorFile
	if err := readYAML(firstNonEmpty(strings.TrimSpace(cfgOpt), misc.Getenv("CONFIG", "")), &file); err != nil {
		return CollectorConfig{}, err
	}

	addr := firstNonEmpty(strings.TrimSpace(addrOpt), misc.Getenv("ADDRESS", firstNonEmpty(file.Address, defaultListenAndServeAddr)))
	addr = normalizeListenAndServeURL(addr)
	if _, port, err := net.SplitHostPort(addr); err != nil || port == "" {
		return CollectorConfig{}, fmt.Errorf("invalid listen address: %q", addr)
	}

	basic := firstNonEmpty(strings.TrimSpace(authOpt), misc.Getenv("BASIC_AUTH", file.BasicAuth))
	if basic != "" && !strings.Contains(basic, ":") {
		return CollectorConfig{}, fmt.Errorf("basic auth must be user:password")
	}

	storeDef := time.Duration(defaultStoreInterval) * time.Second
	if file.StoreInterval != nil {
		storeDef = *file.StoreInterval
	}
	interval := misc.GetDuration("STORE_INTERVAL", storeDef)
	if ivalOpt >= 0 {
		interval = time.Duration(ivalOpt) * time.Second
	}

	restore := restoreOpt
	if !restore {
		restore = misc.GetBool("RESTORE", file.Restore)
	}

	return CollectorConfig{
		Address:   addr,
		File:      firstNonEmpty(strings.TrimSpace(fileOpt), misc.Getenv("FILE_STORAGE_PATH", firstNonEmpty(file.File, defaultFilePath))),
		DSN:       firstNonEmpty(strings.TrimSpace(dsnOpt), misc.Getenv("DATABASE_DSN", firstNonEmpty(file.DSN, defaultDSN))),
		Key:       firstNonEmpty(strings.TrimSpace(keyOpt), misc.Getenv("KEY", file.Key)),
		BasicAuth: basic,
		Interval:  interval,
		Restore:   restore,
	}, nil
}

func normalizeListenAndServeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultListenAndServeAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
