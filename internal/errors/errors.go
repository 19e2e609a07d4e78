// Package errors defines stable error codes for all Prism failure modes.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes surfaced to callers and reports.
type ErrorCode string

const (
	// Validation indicates a plan referenced a nonexistent node id, collided
	// with an existing id, or used an unknown operation or layer
	Validation ErrorCode = "VALIDATION_ERROR"
	// MalformedGraph indicates an input graph is missing required identity fields
	MalformedGraph ErrorCode = "MALFORMED_GRAPH"
	// GraphMissing indicates no graph was found at the given location
	GraphMissing ErrorCode = "GRAPH_MISSING"
	// GitError indicates a git command failed during snapshot materialization
	GitError ErrorCode = "GIT_ERROR"
	// ParseError indicates a source file could not be parsed
	ParseError ErrorCode = "PARSE_ERROR"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Safe        bool   `json:"safe,omitempty"`
	Description string `json:"description,omitempty"`
}

// PrismError represents a Prism error with code, message, and suggestions
type PrismError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewPrismError creates a new PrismError
func NewPrismError(code ErrorCode, message string, cause error) *PrismError {
	return &PrismError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes[code],
	}
}

// Error implements the error interface
func (e *PrismError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PrismError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *PrismError) WithDetails(details interface{}) *PrismError {
	e.Details = details
	return e
}

// suggestedFixes maps error codes to suggested fix actions
var suggestedFixes = map[ErrorCode][]FixAction{
	GraphMissing: {
		{
			Command:     "prism analyze .",
			Safe:        true,
			Description: "Build the architecture graph for the current repository",
		},
	},
	GitError: {
		{
			Command:     "git status",
			Safe:        true,
			Description: "Check that you are inside a valid git repository",
		},
	},
}
