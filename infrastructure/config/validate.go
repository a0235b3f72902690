package config

import (
	"fmt"
	"net/url"
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired rejects empty values.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort rejects ports outside 1-65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateURL requires an absolute http or https URL.
func ValidateURL(field, value string) error {
	if err := ValidateRequired(field, value); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: field, Message: "must be an absolute http(s) URL"}
	}
	return nil
}

// ValidateLogLevel accepts the levels understood by the logger package.
func ValidateLogLevel(field, level string) error {
	switch level {
	case "", "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: field, Message: "must be one of: debug, info, warn, error, fatal"}
	}
}
