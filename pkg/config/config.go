package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads and validates an operational configuration file.
// An empty path yields the defaults with environment overrides applied.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. Existing variables are not overwritten. When required is
// false a missing file is not an error.
func LoadEnvFile(path string, required bool) error {
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Validate checks an operational configuration and fills in defaults.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes: must be positive, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ValidatePipeline checks pipeline settings and compiles the timestamp pattern.
func ValidatePipeline(p *Pipeline) error {
	if p.SheetName == "" {
		return errors.New("sheet name is required")
	}
	if p.HeaderRow < 0 {
		return fmt.Errorf("header row must be >= 0, got %d", p.HeaderRow)
	}
	if p.Columns.Start < 0 || p.Columns.End < 0 {
		return fmt.Errorf("column positions must be >= 0, got start=%d end=%d", p.Columns.Start, p.Columns.End)
	}
	if p.Columns.Start == p.Columns.End {
		return fmt.Errorf("start and end columns must differ, both are %d", p.Columns.Start)
	}
	if p.MinDuration <= 0 {
		return fmt.Errorf("minimum duration must be positive, got %s", p.MinDuration)
	}

	if p.Timestamp.Layout == "" {
		return errors.New("timestamp layout is required")
	}
	if p.Timestamp.Pattern == "" {
		return errors.New("timestamp pattern is required")
	}
	re, err := regexp.Compile(p.Timestamp.Pattern)
	if err != nil {
		return fmt.Errorf("invalid timestamp pattern: %w", err)
	}
	p.Timestamp.compiledPattern = re

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnViolations, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_violations, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnViolations
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
