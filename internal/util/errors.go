package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrConnectivity indicates the schema store is unreachable or rejected the credentials
	ErrConnectivity = errors.New("store unreachable")

	// ErrDatasetFormat indicates a missing required column or an undecodable dataset file
	ErrDatasetFormat = errors.New("invalid dataset format")

	// ErrStatisticalUndefined indicates a zero standard deviation, zero mean
	// or empty population while computing a normalized score
	ErrStatisticalUndefined = errors.New("statistic undefined")

	// ErrInvalidState indicates an operation not allowed in the current session state
	ErrInvalidState = errors.New("invalid session state")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")
)
