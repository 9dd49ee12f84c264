package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry represents a single configuration entry.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns the default configuration entries.
// These seed viper's defaults, so every known key appears here exactly once.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		{
			Key:         "home",
			Value:       d.Home,
			Description: "Fixture root directory (cards/<id>/ lives underneath)",
		},
		{
			Key:         "log_level",
			Value:       d.LogLevel,
			Description: "Log level: debug, info, warn or error",
		},

		// ===================
		// Grading service
		// ===================
		{
			Key:         "service.base_url",
			Value:       d.Service.BaseURL,
			Description: "Base URL of the scan statistics service",
		},
		{
			Key:         "service.auth_token",
			Value:       d.Service.AuthToken,
			Description: "Bearer token sent to the service (uses environment variable)",
		},
		{
			Key:         "service.timeout_seconds",
			Value:       d.Service.TimeoutSeconds,
			Description: "HTTP timeout in seconds for service requests",
		},
		{
			Key:         "service.max_retries",
			Value:       d.Service.MaxRetries,
			Description: "Maximum attempts for retryable service failures",
		},
		{
			Key:         "service.retry_delay_ms",
			Value:       d.Service.RetryDelayMS,
			Description: "Base delay between retries in milliseconds",
		},

		// ===================
		// Commands
		// ===================
		{
			Key:         "fetch.image_name",
			Value:       d.Fetch.ImageName,
			Description: "File name for the downloaded scan image",
		},
		{
			Key:         "encode.quality",
			Value:       d.Encode.Quality,
			Description: "JPEG quality used when re-encoding images (1-100)",
		},
		{
			Key:         "encode.max_side",
			Value:       d.Encode.MaxSide,
			Description: "Downscale images whose longest side exceeds this (0 = off)",
		},
		{
			Key:         "encode.workers",
			Value:       d.Encode.Workers,
			Description: "Concurrent image encoders (0 = one per CPU)",
		},
		{
			Key:         "encode.raw",
			Value:       d.Encode.Raw,
			Description: "Embed image bytes as-is instead of re-encoding to JPEG",
		},
		{
			Key:         "post.fill_rate",
			Value:       d.Post.FillRate,
			Description: "Fill rate sent with recognition results",
		},
	}
}

// GetDefault returns the default entry for key, or nil if none exists.
func GetDefault(key string) *Entry {
	for _, e := range DefaultEntries() {
		if e.Key == key {
			return &e
		}
	}
	return nil
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots and underscores.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// sortEntries orders entries by key for stable output.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}
