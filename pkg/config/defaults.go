package config

import (
	"os"
	"strconv"
	"time"
)

// Fixed pipeline values.
const (
	DefaultSheetName        = "Sheet1"
	DefaultHeaderRow        = 7
	DefaultStartColumn      = 0
	DefaultEndColumn        = 8
	DefaultTimestampPattern = `^\d{4}\.\d{2}\.\d{2} \d{2}:\d{2}:\d{2}$`
	DefaultTimestampLayout  = "2006.01.02 15:04:05"
	DefaultMinDuration      = 60 * time.Second
)

// Canonical labels for the two time columns and the computed duration.
const (
	StartTimeLabel      = "Start Time"
	EndTimeLabel        = "End Time"
	TimeDifferenceLabel = "Time Difference (s)"
)

// Operational defaults.
const (
	DefaultAddr           = ":8080"
	DefaultMaxUploadBytes = 10 << 20 // 10MB
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvAddr           = "TIMECHECK_ADDR"
	EnvMaxUploadBytes = "TIMECHECK_MAX_UPLOAD_BYTES"
)

// DefaultPipeline returns the production pipeline settings with the
// timestamp pattern already compiled.
func DefaultPipeline() Pipeline {
	p := Pipeline{
		SheetName: DefaultSheetName,
		HeaderRow: DefaultHeaderRow,
		Columns: Columns{
			Start: DefaultStartColumn,
			End:   DefaultEndColumn,
		},
		Timestamp: Timestamp{
			Pattern: DefaultTimestampPattern,
			Layout:  DefaultTimestampLayout,
		},
		MinDuration: DefaultMinDuration,
	}
	if err := ValidatePipeline(&p); err != nil {
		panic("config: invalid default pipeline: " + err.Error())
	}
	return p
}

// DefaultConfig returns an operational configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           DefaultAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Server.Addr = addr
	}
	if v := os.Getenv(EnvMaxUploadBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Server.MaxUploadBytes = n
		}
	}
}
