package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport indicates the sensor bus could not be read
	ErrTransport = errors.New("sensor transport unavailable")

	// ErrConversion is wrapped by every lux conversion failure
	ErrConversion = errors.New("lux conversion failed")

	// ErrOverflow indicates a raw channel reached the saturation ceiling
	ErrOverflow = fmt.Errorf("%w: channel overflow", ErrConversion)

	// ErrDivideByZero indicates a degenerate gain/integration configuration
	ErrDivideByZero = fmt.Errorf("%w: counts per lux is zero", ErrConversion)

	// ErrSampleNotFound indicates no sample is stored yet
	ErrSampleNotFound = errors.New("sample not found")
)

// ConfigError reports an invalid startup configuration.
// It is fatal: acquisition must not start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError with a formatted reason
func NewConfigError(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
