package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"trace", "debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"json", "console"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Pool.Workers < 1 {
		add("pool.workers", c.Pool.Workers, "must be at least 1")
	}
	if c.Pool.CapacityHint < 0 {
		add("pool.capacity_hint", c.Pool.CapacityHint, "must not be negative")
	}
	if c.Pool.InboxSize < 0 {
		add("pool.inbox_size", c.Pool.InboxSize, "must not be negative")
	}
	if c.Pool.StealInterval <= 0 {
		add("pool.steal_interval", c.Pool.StealInterval, "must be positive")
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		add("log.level", c.Log.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Log.Format)) {
		add("log.format", c.Log.Format, "must be one of "+strings.Join(ValidLogFormats(), ", "))
	}
	if c.Bench.Tasks < 0 {
		add("bench.tasks", c.Bench.Tasks, "must not be negative")
	}
	if c.Bench.Work < 0 {
		add("bench.work", c.Bench.Work, "must not be negative")
	}
	if c.Bench.Fanout < 0 {
		add("bench.fanout", c.Bench.Fanout, "must not be negative")
	}
	return errs
}
