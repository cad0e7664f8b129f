package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type agentFile struct {
	Collector  string `yaml:"collector"`
	Marker     string `yaml:"marker"`
	BasicAuth  string `yaml:"basic_auth"`
	AuthHeader string `yaml:"auth_header"`
	Key        string `yaml:"key"`
	Proxy      struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"proxy"`
	TLS struct {
		CAFile   string `yaml:"ca_file"`
		CertFile string `yaml:"cert_file"`
		KeyFile  string `yaml:"key_file"`
		Insecure bool   `yaml:"insecure"`
	} `yaml:"tls"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ReportInterval time.Duration `yaml:"report_interval"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimit      int           `yaml:"rate_limit"`
}

type collectorFile struct {
	StoreInterval *time.Duration `yaml:"store_interval"`
	Address       string         `yaml:"address"`
	DSN           string         `yaml:"database_dsn"`
	File          string         `yaml:"file_storage_path"`
	Key           string         `yaml:"key"`
	BasicAuth     string         `yaml:"basic_auth"`
	Restore       bool           `yaml:"restore"`
}

// readYAML decodes path into dst. An empty path or an empty file leaves dst untouched.
func readYAML(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
