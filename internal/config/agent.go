package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultCollectorAddr  = "http://localhost:8080"
	defaultReportInterval = 10
	defaultPollInterval   = 2
	defaultRateLimit      = 1
	defaultTimeout        = 10
)

// AgentConfig configures the reporting agent and its connection to the collector.
type AgentConfig struct {
	Collector   string
	Marker      string
	ProxyHost   string
	BasicAuth   string
	AuthHeader  string
	Key         string
	TLSCAFile   string
	TLSCertFile string
	TLSKeyFile  string

	ProxyPort int
	RateLimit int

	PollInterval   time.Duration
	ReportInterval time.Duration
	Timeout        time.Duration

	TLSInsecure bool
}

// ENV > CLI > config file > defaults
func LoadAgentConfig(args []string, out io.Writer) (AgentConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		cfgOpt, addrOpt, markerOpt, proxyHostOpt, authOpt, keyOpt string
		caOpt, certOpt, certKeyOpt                                string
		proxyPortOpt, reportOpt, pollOpt, limitOpt, timeoutOpt    int
		insecureOpt                                               bool
	)

	fs.StringVar(&cfgOpt, "c", "", "YAML config file")
	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("collector address (host:port or URL), default: %s", defaultCollectorAddr))
	fs.StringVar(&markerOpt, "m", "", "node marker, default: hostname")
	fs.StringVar(&proxyHostOpt, "proxy-host", "", "HTTP proxy host")
	fs.IntVar(&proxyPortOpt, "proxy-port", 0, "HTTP proxy port")
	fs.StringVar(&authOpt, "u", "", "basic auth credentials as user:password")
	fs.StringVar(&keyOpt, "k", "", "secret key for HashSHA256 header")
	fs.StringVar(&caOpt, "tls-ca", "", "PEM file with CA certificates to trust")
	fs.StringVar(&certOpt, "tls-cert", "", "PEM client certificate")
	fs.StringVar(&certKeyOpt, "tls-key", "", "PEM client key")
	fs.BoolVar(&insecureOpt, "tls-insecure", false, "skip collector certificate verification")
	fs.IntVar(&reportOpt, "r", 0, fmt.Sprintf("report interval in seconds, default: %d", defaultReportInterval))
	fs.IntVar(&pollOpt, "p", 0, fmt.Sprintf("poll interval in seconds, default: %d", defaultPollInterval))
	fs.IntVar(&limitOpt, "l", 0, "rate limit (max concurrent outgoing requests), default: 1")
	fs.IntVar(&timeoutOpt, "t", 0, fmt.Sprintf("request timeout in seconds, default: %d", defaultTimeout))

	if err := fs.Parse(args); err != nil {
		return AgentConfig{}, err
	}

	var file agentFile
	if err := readYAML(layeredString("CONFIG", cfgOpt, ""), &file); err != nil {
		return AgentConfig{}, err
	}

	addr := normalizeAddressURL(layeredString("COLLECTOR_URL", addrOpt, file.Collector))
	if _, err := url.ParseRequestURI(addr); err != nil {
		return AgentConfig{}, fmt.Errorf("invalid collector address: %q", addr)
	}

	basic := layeredString("BASIC_AUTH", authOpt, file.BasicAuth)
	if basic != "" && !strings.Contains(basic, ":") {
		return AgentConfig{}, fmt.Errorf("basic auth must be user:password")
	}

	report, err := interval("REPORT_INTERVAL", reportOpt, defaultReportInterval, file.ReportInterval, "report interval")
	if err != nil {
		return AgentConfig{}, err
	}
	poll, err := interval("POLL_INTERVAL", pollOpt, defaultPollInterval, file.PollInterval, "poll interval")
	if err != nil {
		return AgentConfig{}, err
	}
	timeout, err := interval("TIMEOUT", timeoutOpt, defaultTimeout, file.Timeout, "request timeout")
	if err != nil {
		return AgentConfig{}, err
	}

	limitDef := defaultRateLimit
	if file.RateLimit > 0 {
		limitDef = file.RateLimit
	}

	return AgentConfig{
		Collector:      addr,
		Marker:         layeredString("MARKER", markerOpt, firstNonEmpty(file.Marker, hostname())),
		ProxyHost:      layeredString("PROXY_HOST", proxyHostOpt, file.Proxy.Host),
		ProxyPort:      layeredInt("PROXY_PORT", proxyPortOpt, file.Proxy.Port, 1),
		BasicAuth:      basic,
		AuthHeader:     layeredString("AUTH_HEADER", "", file.AuthHeader),
		Key:            layeredString("KEY", keyOpt, file.Key),
		TLSCAFile:      layeredString("TLS_CA_FILE", caOpt, file.TLS.CAFile),
		TLSCertFile:    layeredString("TLS_CERT_FILE", certOpt, file.TLS.CertFile),
		TLSKeyFile:     layeredString("TLS_KEY_FILE", certKeyOpt, file.TLS.KeyFile),
		TLSInsecure:    layeredBool("TLS_INSECURE", insecureOpt, file.TLS.Insecure),
		PollInterval:   poll,
		ReportInterval: report,
		Timeout:        timeout,
		RateLimit:      layeredInt("RATE_LIMIT", limitOpt, limitDef, 1),
	}, nil
}

func interval(envKey string, flagSeconds, defSeconds int, fromFile time.Duration, what string) (time.Duration, error) {
	d, custom := layeredSeconds(envKey, flagSeconds, defSeconds)
	if !custom && fromFile != 0 {
		d = fromFile
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0, got %v", what, d)
	}
	return d, nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}

func normalizeAddressURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultCollectorAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, ":") {
		return "http://localhost" + s
	}
	return "http://" + s
}
