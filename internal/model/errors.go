package model

import (
	"fmt"
	"strings"
)

// ParseError reports a source file that could not be read or parsed.
// It is fatal to that file only.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError carries every invariant violation found in one pass,
// never just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Validation failed:")
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v)
	}
	return b.String()
}

// GenerationError reports a configuration-tree assembly failure.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

// RangeError reports a construction-time range violation on a single
// entity, before the value enters any collection.
type RangeError struct {
	Entity string
	Reason string
}

func (e *RangeError) Error() string {
	if e.Entity == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

func rangeErrorf(entity, format string, args ...any) *RangeError {
	return &RangeError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}
