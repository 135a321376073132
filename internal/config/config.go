// Package config provides configuration loading from environment variables
// and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// ServiceConfig holds configuration for the dashboard service and CLI.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	DataBaseURL       string        // Where index.json and run directories are served from
	IndexPath         string        // Index document, relative to DataBaseURL
	FetchConcurrency  int           // Artifacts fetched in parallel per view request
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)
	LogLevel          string
	Display           DisplayConfig
}

// DisplayConfig holds render-time display policy. None of these affect data
// correctness; they bound how much of a payload is shown.
type DisplayConfig struct {
	BoxplotGroupCap       int
	TopCustomers          int
	TopListSize           int
	TableMaxRows          int
	RecommendationMaxRows int
	CorrelationExclude    []string
}

// Defaults returns the built-in configuration.
func Defaults() *ServiceConfig {
	return &ServiceConfig{
		Port:              "8080",
		MetricsPort:       "9090",
		DataBaseURL:       "http://localhost/data/",
		IndexPath:         "index.json",
		FetchConcurrency:  8,
		ShutdownDrainWait: 5 * time.Second,
		LogLevel:          "info",
		Display: DisplayConfig{
			BoxplotGroupCap:       20,
			TopCustomers:          200,
			TopListSize:           10,
			TableMaxRows:          20,
			RecommendationMaxRows: 40,
			CorrelationExclude:    []string{"frequency"},
		},
	}
}

// LoadServiceConfig loads configuration with layered precedence:
// built-in defaults, then the YAML file named by DASHBOARD_CONFIG, then
// environment variables.
func LoadServiceConfig() *ServiceConfig {
	base := Defaults()
	if path := GetEnv("DASHBOARD_CONFIG", ""); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			slog.Warn("Ignoring config file", "path", path, "error", err)
		} else {
			base = fileCfg
		}
	}
	return applyEnv(base)
}

// Load loads the YAML file at path, when path is non-empty, then applies
// environment variables. A file that cannot be read is an error.
func Load(path string) (*ServiceConfig, error) {
	base := Defaults()
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		base = fileCfg
	}
	return applyEnv(base), nil
}

func applyEnv(base *ServiceConfig) *ServiceConfig {
	d := base.Display
	return &ServiceConfig{
		Port:              GetEnv("PORT", base.Port),
		MetricsPort:       GetEnv("METRICS_PORT", base.MetricsPort),
		DataBaseURL:       GetEnv("DATA_BASE_URL", base.DataBaseURL),
		IndexPath:         GetEnv("INDEX_PATH", base.IndexPath),
		FetchConcurrency:  GetIntEnv("FETCH_CONCURRENCY", base.FetchConcurrency),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", base.ShutdownDrainWait),
		LogLevel:          GetEnv("LOG_LEVEL", base.LogLevel),
		Display: DisplayConfig{
			BoxplotGroupCap:       GetIntEnv("BOXPLOT_GROUP_CAP", d.BoxplotGroupCap),
			TopCustomers:          GetIntEnv("TOP_CUSTOMERS", d.TopCustomers),
			TopListSize:           GetIntEnv("TOP_LIST_SIZE", d.TopListSize),
			TableMaxRows:          GetIntEnv("TABLE_MAX_ROWS", d.TableMaxRows),
			RecommendationMaxRows: GetIntEnv("RECOMMENDATION_MAX_ROWS", d.RecommendationMaxRows),
			CorrelationExclude:    GetListEnv("CORRELATION_EXCLUDE", d.CorrelationExclude),
		},
	}
}

// Validate checks that the configuration is usable.
func (c *ServiceConfig) Validate() error {
	parsed, err := url.Parse(c.DataBaseURL)
	if err != nil {
		return fmt.Errorf("data base url: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("data base url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("data base url must have a host")
	}
	if c.IndexPath == "" {
		return fmt.Errorf("index path is required")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be positive, got %d", c.FetchConcurrency)
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
