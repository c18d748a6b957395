package lfvec

import "fmt"

// RangeError is returned by ReadAt/WriteAt when the index is not below the
// vector's current Size. Unlike the fatal assertions below,
// this is caller input — a legitimate return value, not a panic.
type RangeError struct {
	Index   uint64
	Size    uint64
	Message string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lfvec: index %d out of range (size %d)", e.Index, e.Size)
	}
	return fmt.Sprintf("lfvec: index %d out of range (size %d): %s", e.Index, e.Size, e.Message)
}

// ConfigError is returned by New when the supplied Options violate a
// precondition (e.g. a non-power-of-two FirstBucketSize).
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("lfvec: invalid configuration for %s: %s", e.Field, e.Message)
}

// AssertionError wraps a recovered internal invariant violation: a bug in
// lfvec or in caller usage of a precondition that is not meant to be
// recoverable (e.g. releasing an already-free Node). A thread id outside
// MaxThreads is not one of these: SetThreadID returns a *ConfigError for
// it. These are programmer errors per
// spec; they panic rather than return, mirroring the "should abort"
// language used for the fatal failure class.
type AssertionError struct {
	Message string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return "lfvec: assertion failed: " + e.Message
}

// assertf panics with an *AssertionError if cond is false.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(&AssertionError{Message: fmt.Sprintf(format, args...)})
	}
}

// WrapError wraps an error with a message, preserving the cause chain for
// errors.Is/errors.As. Used to annotate diagnostics surfaced through the
// optional Logger.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
