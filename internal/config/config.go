package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/u2takey/go-utils/filesystem/homedir"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/alerting"
	"github.com/helm-preview/helm-preview/internal/diff"
	"github.com/helm-preview/helm-preview/internal/filter"
	"github.com/helm-preview/helm-preview/internal/risk"
	"github.com/helm-preview/helm-preview/internal/runner"
)

// Config holds application configuration.
type Config struct {
	Namespace   string
	Kubeconfig  string
	KubeContext string
	Timeout     time.Duration
	Concurrency int
	NoColor     bool

	// IgnorePaths are extra noise paths added to the defaults.
	IgnorePaths []string

	// ImmutableFields and ListSortKeys are nil unless a config file
	// customizes them; nil selects the built-in tables.
	ImmutableFields map[string][]string
	ListSortKeys    map[string]string

	// Exclude lists resources left out of the report.
	Exclude *filter.Exclude

	AlertConfig *alerting.Config
}

// FileConfig is the layout of the YAML configuration file.
type FileConfig struct {
	Namespace       string              `yaml:"namespace,omitempty"`
	Kubeconfig      string              `yaml:"kubeconfig,omitempty"`
	KubeContext     string              `yaml:"kubeContext,omitempty"`
	Timeout         string              `yaml:"timeout,omitempty"`
	Concurrency     int                 `yaml:"concurrency,omitempty"`
	IgnorePaths     []string            `yaml:"ignorePaths,omitempty"`
	ImmutableFields map[string][]string `yaml:"immutableFields,omitempty"`
	ListSortKeys    map[string]string   `yaml:"listSortKeys,omitempty"`
	Exclude         *filter.Exclude     `yaml:"exclude,omitempty"`
	Alerting        *alerting.Config    `yaml:"alerting,omitempty"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	cfg := &Config{
		Namespace:   getEnv("HELM_NAMESPACE", "default"),
		KubeContext: getEnv("HELM_KUBECONTEXT", ""),
		Timeout:     runner.DefaultTimeout,
		Concurrency: 1,
		IgnorePaths: parseList(getEnv("HELM_PREVIEW_IGNORE_PATHS", "")),
	}

	if kinds := parseList(getEnv("HELM_PREVIEW_EXCLUDE_KINDS", "")); len(kinds) > 0 {
		cfg.Exclude = &filter.Exclude{KindPatterns: kinds}
	}

	// A KUBECONFIG list is left to helm and kubectl, which read it themselves
	if kubeconfig := getEnv("KUBECONFIG", ""); kubeconfig != "" && !strings.ContainsRune(kubeconfig, filepath.ListSeparator) {
		cfg.Kubeconfig = ExpandHome(kubeconfig)
	}

	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		cfg.NoColor = true
	}

	if timeout := getEnv("HELM_PREVIEW_TIMEOUT", ""); timeout != "" {
		if d, err := parseDuration(timeout); err == nil {
			cfg.Timeout = d
		} else {
			klog.Warningf("Failed to parse HELM_PREVIEW_TIMEOUT: %v, using %s", err, cfg.Timeout)
		}
	}

	if concurrency := getEnv("HELM_PREVIEW_CONCURRENCY", ""); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil && n > 0 {
			cfg.Concurrency = n
		} else {
			klog.Warningf("Invalid HELM_PREVIEW_CONCURRENCY %q, using %d", concurrency, cfg.Concurrency)
		}
	}

	// Load alerting configuration if provided
	if alertJSON := getEnv("ALERT_CONFIG", ""); alertJSON != "" {
		alertJSON = strings.TrimSpace(alertJSON)
		var alertConfig alerting.Config
		if err := json.Unmarshal([]byte(alertJSON), &alertConfig); err == nil {
			cfg.AlertConfig = &alertConfig
		} else {
			klog.Warningf("Failed to parse ALERT_CONFIG JSON: %v", err)
		}
	}

	return cfg
}

// LoadFile merges a YAML configuration file into cfg. Ignore paths and
// exclusions are appended, immutable field prefixes are added to the built-in ones per kind,
// list sort keys override the built-in ones per path, and the remaining
// fields replace their current value when set.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if file.Namespace != "" {
		c.Namespace = file.Namespace
	}
	if file.Kubeconfig != "" {
		c.Kubeconfig = ExpandHome(file.Kubeconfig)
	}
	if file.KubeContext != "" {
		c.KubeContext = file.KubeContext
	}
	if file.Timeout != "" {
		d, err := parseDuration(file.Timeout)
		if err != nil {
			return fmt.Errorf("failed to parse timeout in %s: %w", path, err)
		}
		c.Timeout = d
	}
	if file.Concurrency > 0 {
		c.Concurrency = file.Concurrency
	}

	c.IgnorePaths = append(c.IgnorePaths, file.IgnorePaths...)

	if len(file.ImmutableFields) > 0 {
		c.ImmutableFields = mergeImmutableFields(risk.DefaultImmutableFields, file.ImmutableFields)
	}
	if len(file.ListSortKeys) > 0 {
		c.ListSortKeys = make(map[string]string, len(diff.DefaultListSortKeys)+len(file.ListSortKeys))
		for k, v := range diff.DefaultListSortKeys {
			c.ListSortKeys[k] = v
		}
		for k, v := range file.ListSortKeys {
			c.ListSortKeys[k] = v
		}
	}

	c.Exclude = c.Exclude.Merge(file.Exclude)

	if file.Alerting != nil {
		c.AlertConfig = file.Alerting
	}

	klog.V(2).Infof("Loaded config file %s", path)
	return nil
}

func mergeImmutableFields(defaults, extra map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(defaults)+len(extra))
	for kind, prefixes := range defaults {
		merged[kind] = append([]string{}, prefixes...)
	}
	for kind, prefixes := range extra {
		key := strings.ToLower(kind)
		for _, prefix := range prefixes {
			if !contains(merged[key], prefix) {
				merged[key] = append(merged[key], prefix)
			}
		}
	}
	return merged
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := homedir.HomeDir()
	if home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// parseDuration accepts Go durations ("90s", "2m") and plain seconds ("60").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.Atoi(s); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %d", seconds)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// parseList parses a comma-separated list of strings.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
