package domain

import "fmt"

// DataError reports malformed or missing input data, such as an absent
// column or a value that cannot be coerced to a number.
type DataError struct {
	Column string
	Reason string
}

func (e *DataError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("data error: %s", e.Reason)
	}
	return fmt.Sprintf("data error: column %q: %s", e.Column, e.Reason)
}

// ConfigError reports an invalid or unknown configuration value. It is
// raised at construction time, never mid-run.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s=%q: %s", e.Field, e.Value, e.Reason)
}

// ExecutionError wraps an unexpected fault raised during a simulation run
// with the instrument and failing bar for context.
type ExecutionError struct {
	Instrument Instrument
	BarIndex   int
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed for %s at bar %d: %v", e.Instrument, e.BarIndex, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
