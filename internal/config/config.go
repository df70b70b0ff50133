// Package config loads and validates the reaper configuration.
//
// Configuration is resolved once at startup into a single immutable value:
// defaults, then an optional YAML file, then environment variables, later
// sources winning. The rest of the program receives the resolved value and
// never consults the environment again.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/labels"
)

// Defaults applied before any file or environment value.
const (
	DefaultNodeMinAge      = 30 * time.Minute
	DefaultDeletionTimeout = 15 * time.Minute
	DefaultMetricsAddr     = ":8080"
)

// Config holds the full reaper configuration.
type Config struct {
	DryRun                 bool
	NodeMinAge             time.Duration
	DeletionTimeout        time.Duration
	UnhealthyTaints        []string
	ProtectionAnnotations  map[string]string
	ProtectionLabels       map[string]string
	EnableFinalizerCleanup bool
	RemovableFinalizers    []string
	SlackWebhookURL        string
	LogLevel               string
	EnableJSONLogs         bool
	NodeLabelSelector      string
	ClusterName            string

	// Interval between passes. Zero means run once and exit.
	Interval time.Duration
	// MetricsAddr is the bind address for /metrics and health probes.
	MetricsAddr string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		NodeMinAge:             DefaultNodeMinAge,
		DeletionTimeout:        DefaultDeletionTimeout,
		EnableFinalizerCleanup: true,
		LogLevel:               "info",
		EnableJSONLogs:         true,
		ClusterName:            "unknown",
		MetricsAddr:            DefaultMetricsAddr,
	}
}

// Load resolves the configuration from defaults, the optional YAML file at
// path, and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	return file.apply(c)
}

// fileConfig mirrors Config with string durations so the YAML file accepts
// the same "30m"/"2h"/"3d" syntax as the environment.
type fileConfig struct {
	DryRun                 *bool             `yaml:"dry_run"`
	NodeMinAge             string            `yaml:"node_min_age"`
	DeletionTimeout        string            `yaml:"deletion_timeout"`
	UnhealthyTaints        []string          `yaml:"unhealthy_taints"`
	ProtectionAnnotations  map[string]string `yaml:"protection_annotations"`
	ProtectionLabels       map[string]string `yaml:"protection_labels"`
	EnableFinalizerCleanup *bool             `yaml:"enable_finalizer_cleanup"`
	RemovableFinalizers    []string          `yaml:"removable_finalizers"`
	SlackWebhookURL        string            `yaml:"slack_webhook_url"`
	LogLevel               string            `yaml:"log_level"`
	EnableJSONLogs         *bool             `yaml:"enable_json_logs"`
	NodeLabelSelector      string            `yaml:"node_label_selector"`
	ClusterName            string            `yaml:"cluster_name"`
	Interval               string            `yaml:"interval"`
	MetricsAddr            string            `yaml:"metrics_addr"`
}

func (f *fileConfig) apply(c *Config) error {
	if f.DryRun != nil {
		c.DryRun = *f.DryRun
	}
	if f.EnableFinalizerCleanup != nil {
		c.EnableFinalizerCleanup = *f.EnableFinalizerCleanup
	}
	if f.EnableJSONLogs != nil {
		c.EnableJSONLogs = *f.EnableJSONLogs
	}
	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{f.NodeMinAge, &c.NodeMinAge},
		{f.DeletionTimeout, &c.DeletionTimeout},
		{f.Interval, &c.Interval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := ParseDuration(d.raw)
		if err != nil {
			return err
		}
		*d.dst = parsed
	}
	if f.UnhealthyTaints != nil {
		c.UnhealthyTaints = f.UnhealthyTaints
	}
	if f.ProtectionAnnotations != nil {
		c.ProtectionAnnotations = f.ProtectionAnnotations
	}
	if f.ProtectionLabels != nil {
		c.ProtectionLabels = f.ProtectionLabels
	}
	if f.RemovableFinalizers != nil {
		c.RemovableFinalizers = f.RemovableFinalizers
	}
	if f.SlackWebhookURL != "" {
		c.SlackWebhookURL = f.SlackWebhookURL
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.NodeLabelSelector != "" {
		c.NodeLabelSelector = f.NodeLabelSelector
	}
	if f.ClusterName != "" {
		c.ClusterName = f.ClusterName
	}
	if f.MetricsAddr != "" {
		c.MetricsAddr = f.MetricsAddr
	}
	return nil
}

func (c *Config) loadEnv() error {
	var err error
	if v, ok := os.LookupEnv("DRY_RUN"); ok {
		c.DryRun = parseBool(v)
	}
	if v, ok := os.LookupEnv("NODE_MIN_AGE"); ok {
		if c.NodeMinAge, err = ParseDuration(v); err != nil {
			return fmt.Errorf("invalid NODE_MIN_AGE: %w", err)
		}
	}
	if v, ok := os.LookupEnv("DELETION_TIMEOUT"); ok {
		if c.DeletionTimeout, err = ParseDuration(v); err != nil {
			return fmt.Errorf("invalid DELETION_TIMEOUT: %w", err)
		}
	}
	if v, ok := os.LookupEnv("UNHEALTHY_TAINTS"); ok {
		c.UnhealthyTaints = ParseList(v)
	}
	if v, ok := os.LookupEnv("PROTECTION_ANNOTATIONS"); ok {
		c.ProtectionAnnotations = ParsePairs(v)
	}
	if v, ok := os.LookupEnv("PROTECTION_LABELS"); ok {
		c.ProtectionLabels = ParsePairs(v)
	}
	if v, ok := os.LookupEnv("ENABLE_FINALIZER_CLEANUP"); ok {
		c.EnableFinalizerCleanup = parseBool(v)
	}
	if v, ok := os.LookupEnv("REMOVABLE_FINALIZERS"); ok {
		c.RemovableFinalizers = ParseList(v)
	}
	if v, ok := os.LookupEnv("SLACK_WEBHOOK_URL"); ok {
		c.SlackWebhookURL = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("ENABLE_JSON_LOGS"); ok {
		c.EnableJSONLogs = parseBool(v)
	}
	if v, ok := os.LookupEnv("NODE_LABEL_SELECTOR"); ok {
		c.NodeLabelSelector = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("CLUSTER_NAME"); ok {
		c.ClusterName = v
	}
	if v, ok := os.LookupEnv("INTERVAL"); ok {
		if c.Interval, err = ParseDuration(v); err != nil {
			return fmt.Errorf("invalid INTERVAL: %w", err)
		}
	}
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	return nil
}

// Validate checks the resolved configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.NodeMinAge < 0 {
		return fmt.Errorf("node_min_age must not be negative")
	}
	if c.DeletionTimeout < 0 {
		return fmt.Errorf("deletion_timeout must not be negative")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative")
	}
	if c.NodeLabelSelector != "" {
		if _, err := labels.Parse(c.NodeLabelSelector); err != nil {
			return fmt.Errorf("invalid node_label_selector: %w", err)
		}
	}
	return nil
}
