package domain

import "fmt"

// ConfigError - a config record could not be read or failed validation.
// Discovery skips the record and keeps going; only a failure to read the
// config location itself is fatal.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Path, e.Err.Error())
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DataUnavailableError - the source is unreachable or doesn't know the
// symbol, after retries were exhausted. The company is marked unavailable.
type DataUnavailableError struct {
	Symbol string
	Kind   SeriesKind
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for %s (%s): %s", e.Symbol, e.Kind, e.Err.Error())
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// InsufficientDataError - alignment could not produce a usable series, e.g.
// an input with zero points or no overlapping date range.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Reason)
}

// MetricComputationError - a derived metric is undefined for the company,
// e.g. the treasury asset cannot be priced against the declared benchmark.
type MetricComputationError struct {
	Ticker string
	Reason string
}

func (e *MetricComputationError) Error() string {
	return fmt.Sprintf("cannot compute metrics for %s: %s", e.Ticker, e.Reason)
}
