package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of the optional config file.
type fileConfig struct {
	Port              string        `yaml:"port"`
	MetricsPort       string        `yaml:"metrics_port"`
	DataBaseURL       string        `yaml:"data_base_url"`
	IndexPath         string        `yaml:"index_path"`
	FetchConcurrency  int           `yaml:"fetch_concurrency"`
	ShutdownDrainWait time.Duration `yaml:"shutdown_drain_wait"`
	LogLevel          string        `yaml:"log_level"`
	Display           struct {
		BoxplotGroupCap       int      `yaml:"boxplot_group_cap"`
		TopCustomers          int      `yaml:"top_customers"`
		TopListSize           int      `yaml:"top_list_size"`
		TableMaxRows          int      `yaml:"table_max_rows"`
		RecommendationMaxRows int      `yaml:"recommendation_max_rows"`
		CorrelationExclude    []string `yaml:"correlation_exclude"`
	} `yaml:"display"`
}

// LoadFile loads a YAML config file on top of the built-in defaults.
// Fields absent from the file keep their default values.
func LoadFile(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Defaults()
	setString(&cfg.Port, fc.Port)
	setString(&cfg.MetricsPort, fc.MetricsPort)
	setString(&cfg.DataBaseURL, fc.DataBaseURL)
	setString(&cfg.IndexPath, fc.IndexPath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setInt(&cfg.FetchConcurrency, fc.FetchConcurrency)
	if fc.ShutdownDrainWait > 0 {
		cfg.ShutdownDrainWait = fc.ShutdownDrainWait
	}

	setInt(&cfg.Display.BoxplotGroupCap, fc.Display.BoxplotGroupCap)
	setInt(&cfg.Display.TopCustomers, fc.Display.TopCustomers)
	setInt(&cfg.Display.TopListSize, fc.Display.TopListSize)
	setInt(&cfg.Display.TableMaxRows, fc.Display.TableMaxRows)
	setInt(&cfg.Display.RecommendationMaxRows, fc.Display.RecommendationMaxRows)
	if fc.Display.CorrelationExclude != nil {
		cfg.Display.CorrelationExclude = fc.Display.CorrelationExclude
	}

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
