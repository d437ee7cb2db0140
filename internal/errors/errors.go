// Package errors defines the typed error kinds the pipeline and semantic
// token engine raise, adapted from the teacher's indexing error types to
// the kinds spec.md §7 names: parse diagnostics, resolution failures, and
// configuration problems. Every kind carries its Underlying cause and
// implements Unwrap so callers can errors.Is/As through it.
package errors

import (
	"fmt"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/fileid"
)

// Kind classifies an error for logging and for routing to the right LSP
// diagnostic severity.
type Kind string

const (
	KindParse      Kind = "parse"
	KindResolution Kind = "resolution"
	KindConfig     Kind = "config"
	KindFile       Kind = "file"
	KindInternal   Kind = "internal"
)

// ParseError represents a tree-level parse diagnostic -- the equivalent
// of a tree-sitter ERROR node.
type ParseError struct {
	Kind       Kind
	FileID     fileid.FileID
	Path       string
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error with source position context.
func NewParseError(fid fileid.FileID, path string, line, column int, token string, err error) *ParseError {
	return &ParseError{
		Kind:       KindParse,
		FileID:     fid,
		Path:       path,
		Line:       line,
		Column:     column,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d (near %q): %v", e.Path, e.Line+1, e.Column+1, e.Token, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// ResolutionError represents a dotted path that RootGraph.Resolve could
// not find a symbol for. It is non-fatal -- the semantic-token engine
// falls back to a parameter token, this error is only surfaced as an
// optional diagnostic.
type ResolutionError struct {
	Kind       Kind
	FileID     fileid.FileID
	Path       string
	Suggestion string
	Underlying error
	Timestamp  time.Time
}

// NewResolutionError creates a resolution-failure error, optionally
// carrying a fuzzy-matched suggestion for the path that failed to resolve.
func NewResolutionError(fid fileid.FileID, path, suggestion string, err error) *ResolutionError {
	return &ResolutionError{
		Kind:       KindResolution,
		FileID:     fid,
		Path:       path,
		Suggestion: suggestion,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ResolutionError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("could not resolve %q (did you mean %q?): %v", e.Path, e.Suggestion, e.Underlying)
	}
	return fmt.Sprintf("could not resolve %q: %v", e.Path, e.Underlying)
}

func (e *ResolutionError) Unwrap() error { return e.Underlying }

// ConfigError represents a problem loading or validating a configuration
// document (server .uvls.kdl config, or a companion JSON config file).
type ConfigError struct {
	Kind       Kind
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error.
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Kind: KindConfig, Field: field, Value: value, Underlying: err, Timestamp: time.Now()}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// FileError represents a filesystem-level error.
type FileError struct {
	Kind       Kind
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error.
func NewFileError(op, path string, err error) *FileError {
	return &FileError{Kind: KindFile, Path: path, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error { return e.Underlying }

// MultiError aggregates multiple errors, e.g. all the diagnostics
// accumulated while constructing one RootGraph.
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }
