package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/devarsh10/javasync/domain"
)

// Config is the top-level configuration for javasync.
type Config struct {
	Repositories string `yaml:"repositories"` // Path to the repository list (.csv or .ini)
	Template     string `yaml:"template"`     // Path to the master CI-config template
	Workspace    string `yaml:"workspace"`    // Root directory for working copies
	Token        string `yaml:"token"`        // Inline, ${ENV_VAR}, or file path

	// Images binds each template choice to its build container image.
	// Unset entries fall back to the defaults below.
	Images map[string]string `yaml:"images"`

	Workers               int    `yaml:"workers"`                 // Concurrent pipelines; 1 = sequential
	MaxRetries            int    `yaml:"max_retries"`             // Sync retry budget per repository
	RetryBackoffSeconds   int    `yaml:"retry_backoff_seconds"`   // Base backoff between sync retries
	NetworkTimeoutSeconds int    `yaml:"network_timeout_seconds"` // Per clone/fetch/push operation
	CleanWorkspace        bool   `yaml:"clean_workspace"`         // Remove working copies after processing
	Report                string `yaml:"report"`                  // Optional JSON report path
	CommitAuthorName      string `yaml:"commit_author_name"`
	CommitAuthorEmail     string `yaml:"commit_author_email"`
}

// Defaults applied by Load for values the file leaves unset. The image
// references mirror the CircleCI OpenJDK images the operator would
// otherwise pin by hand.
const (
	defaultWorkspace      = "./workspace"
	defaultWorkers        = 1
	defaultMaxRetries     = 3
	defaultRetryBackoff   = 2
	defaultNetworkTimeout = 60
	defaultAuthorName     = "javasync"
	defaultAuthorEmail    = "javasync@users.noreply.github.com"
)

// DefaultImages returns the built-in template-choice image bindings.
func DefaultImages() map[domain.TemplateChoice]string {
	return map[domain.TemplateChoice]string{
		domain.ChoiceLegacy: "circleci/openjdk:11-buster-node-browsers-legacy",
		domain.ChoiceMid:    "circleci/openjdk:13.0-buster-node-browsers-legacy",
		domain.ChoiceModern: "circleci/openjdk:17-buster-node-browsers-legacy",
	}
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment
// variables in the token, resolving token file paths, and applying
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.Token = ResolveToken(cfg.Token)
	applyDefaults(&cfg)

	if validateErr := Validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".javasync.yaml",
		".javasync.yml",
		"javasync.yaml",
		"javasync.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ResolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func ResolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// TokenFromEnv reads the auth token from the well-known environment
// variables. Used when neither the CLI flag nor the config file sets one.
func TokenFromEnv() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

// ImageBindings merges the configured images over the defaults.
func (c *Config) ImageBindings() map[domain.TemplateChoice]string {
	images := DefaultImages()
	for name, image := range c.Images {
		if image == "" {
			continue
		}
		images[domain.TemplateChoice(name)] = image
	}
	return images
}

// RetryBackoff returns the base delay between sync retry attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}

// NetworkTimeout returns the timeout for a single network operation.
func (c *Config) NetworkTimeout() time.Duration {
	return time.Duration(c.NetworkTimeoutSeconds) * time.Second
}

func applyDefaults(cfg *Config) {
	if cfg.Workspace == "" {
		cfg.Workspace = defaultWorkspace
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoffSeconds <= 0 {
		cfg.RetryBackoffSeconds = defaultRetryBackoff
	}
	if cfg.NetworkTimeoutSeconds <= 0 {
		cfg.NetworkTimeoutSeconds = defaultNetworkTimeout
	}
	if cfg.CommitAuthorName == "" {
		cfg.CommitAuthorName = defaultAuthorName
	}
	if cfg.CommitAuthorEmail == "" {
		cfg.CommitAuthorEmail = defaultAuthorEmail
	}
}

// Validate checks for required configuration values.
func Validate(cfg *Config) error {
	if cfg.Repositories == "" {
		return errors.New("repositories is required (path to the repository list)")
	}
	if cfg.Template == "" {
		return errors.New("template is required (path to the master CI config)")
	}

	for name := range cfg.Images {
		switch domain.TemplateChoice(name) {
		case domain.ChoiceLegacy, domain.ChoiceMid, domain.ChoiceModern:
		default:
			return fmt.Errorf("images.%s does not name a known template choice", name)
		}
	}

	return nil
}
