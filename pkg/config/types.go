// Package config provides the fixed pipeline settings and the operational
// configuration for timecheck.
package config

import (
	"regexp"
	"time"
)

// Pipeline holds the design-time settings of the validation pipeline.
// It is never read from a file or flag; DefaultPipeline returns the
// production values and tests construct their own.
type Pipeline struct {
	// SheetName is the worksheet that holds the data.
	SheetName string

	// HeaderRow is the 0-based physical row that carries column labels.
	// All rows above it are skipped.
	HeaderRow int

	// Columns selects the start and end time columns.
	Columns Columns

	// Timestamp is the single accepted datetime format.
	Timestamp Timestamp

	// MinDuration is the shortest allowed start-to-end duration.
	// Rows strictly below it are violations.
	MinDuration time.Duration
}

// Columns holds 0-based column positions.
type Columns struct {
	Start int
	End   int
}

// Required returns the number of columns a table needs for both
// positions to exist.
func (c Columns) Required() int {
	if c.Start > c.End {
		return c.Start + 1
	}
	return c.End + 1
}

// Timestamp defines how a cell is turned into a time.
type Timestamp struct {
	// Pattern guards the exact shape of the text (field widths, separators).
	Pattern string

	// Layout is the Go time layout used for calendar validation.
	Layout string

	compiledPattern *regexp.Regexp
}

// CompiledPattern returns the pre-compiled regex pattern.
func (t *Timestamp) CompiledPattern() *regexp.Regexp {
	return t.compiledPattern
}

// RowOffset is the amount added to a 0-based data index to get the
// 1-based row number shown in a spreadsheet application.
func (p *Pipeline) RowOffset() int {
	// one for the header row itself, one for 1-based display
	return p.HeaderRow + 1 + 1
}

// Config is the operational configuration loaded from YAML.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ServerConfig configures the upload web server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// MaxUploadBytes caps the size of an uploaded workbook.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnViolations fires only when violations are found (default).
	WebhookTriggerOnViolations WebhookTrigger = "on_violations"
	// WebhookTriggerAlways fires after every check.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines an endpoint that receives check reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_violations" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
