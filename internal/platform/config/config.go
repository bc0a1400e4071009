package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errTimeoutOutOfRange     = errors.New("config: SCRAPING_TIMEOUT must be 1-60 seconds")
	errRedirectsOutOfRange   = errors.New("config: MAX_REDIRECTS must be 0-30")
	errDNSTimeoutOutOfRange  = errors.New("config: DNS_TIMEOUT must be 100ms-10s")
	errConcurrencyOutOfRange = errors.New("config: BATCH_CONCURRENCY must be 1-100")
	errRateOutOfRange        = errors.New("config: MAX_REQUESTS_PER_MINUTE must be 0-100000")
	errThresholdOutOfRange   = errors.New("config: LOOKALIKE_THRESHOLD must be 0-100")
	errNoModel               = errors.New("config: one of MODEL_URL or MODEL_PATH is required")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port       string
	LogLevel   string
	APIVersion string

	// Analysis pipeline.
	ScrapingTimeout     time.Duration
	MaxRedirects        int
	DNSTimeout          time.Duration
	DNSServers          []string
	GeoEnabled          bool
	GeoBaseURL          string
	AllowPrivateTargets bool
	LookalikeThreshold  float64
	BatchConcurrency    int

	// Reference data; empty means the embedded defaults.
	TLDRegistryPath string
	CorpusPath      string

	// Classifier backend.
	ModelURL  string
	ModelPath string

	// HTTP surface.
	AllowedOrigins       []string
	MaxRequestsPerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "ERROR"),
		APIVersion: getEnv("API_VERSION", "v1"),

		ScrapingTimeout:     getEnvAsSeconds("SCRAPING_TIMEOUT", 5*time.Second),
		MaxRedirects:        getEnvAsInt("MAX_REDIRECTS", 10),
		DNSTimeout:          getEnvAsDuration("DNS_TIMEOUT", 2*time.Second),
		DNSServers:          getEnvAsList("DNS_SERVERS", nil),
		GeoEnabled:          getEnvAsBool("GEO_ENABLED", true),
		GeoBaseURL:          getEnv("GEO_BASE_URL", "http://ip-api.com"),
		AllowPrivateTargets: getEnvAsBool("ALLOW_PRIVATE_TARGETS", false),
		LookalikeThreshold:  getEnvAsFloat("LOOKALIKE_THRESHOLD", 80),
		BatchConcurrency:    getEnvAsInt("BATCH_CONCURRENCY", 5),

		TLDRegistryPath: getEnv("TLD_REGISTRY_PATH", ""),
		CorpusPath:      getEnv("CORPUS_PATH", ""),

		ModelURL:  getEnv("MODEL_URL", ""),
		ModelPath: getEnv("MODEL_PATH", ""),

		AllowedOrigins:       getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxRequestsPerMinute: getEnvAsInt("MAX_REQUESTS_PER_MINUTE", 60),
	}

	return cfg, cfg.validate()
}

// RequireModel reports an error when no classifier backend is configured.
// The CLI and the API server both need one; tests construct engines directly.
func (c Config) RequireModel() error {
	if c.ModelURL == "" && c.ModelPath == "" {
		return errNoModel
	}
	return nil
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.ScrapingTimeout < time.Second || c.ScrapingTimeout > time.Minute {
		return fmt.Errorf("%w: got %s", errTimeoutOutOfRange, c.ScrapingTimeout)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 30 {
		return fmt.Errorf("%w: got %d", errRedirectsOutOfRange, c.MaxRedirects)
	}

	if c.DNSTimeout < 100*time.Millisecond || c.DNSTimeout > 10*time.Second {
		return fmt.Errorf("%w: got %s", errDNSTimeoutOutOfRange, c.DNSTimeout)
	}

	if c.BatchConcurrency < 1 || c.BatchConcurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.BatchConcurrency)
	}

	if c.MaxRequestsPerMinute < 0 || c.MaxRequestsPerMinute > 100000 {
		return fmt.Errorf("%w: got %d", errRateOutOfRange, c.MaxRequestsPerMinute)
	}

	if c.LookalikeThreshold < 0 || c.LookalikeThreshold > 100 {
		return fmt.Errorf("%w: got %g", errThresholdOutOfRange, c.LookalikeThreshold)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}

// getEnvAsSeconds accepts a bare integer number of seconds, matching the
// original deployment files, or a Go duration string such as "1500ms".
func getEnvAsSeconds(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return getEnvAsDuration(key, fallback)
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsList(key string, fallback []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
