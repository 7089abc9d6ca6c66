package skill

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDirectoryNotFound means the skills root itself is absent. Fatal to Scan.
	ErrDirectoryNotFound = errors.New("skills directory not found")
	// ErrMissingRequiredField marks a descriptor missing name, version or description.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrTimeout marks a handler that exceeded its configured deadline.
	ErrTimeout = errors.New("execution timed out")
)

// ParseError wraps a malformed descriptor failure. Scan logs and skips these.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse descriptor %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError is returned when a skill name is not in the catalog.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("skill %q not found in registry, available skills: [%s]",
		e.Name, strings.Join(e.Known, ", "))
}

// ConfigError marks a definition that violates the variant invariant:
// script and hybrid skills require an execution block, prompt skills a
// prompt template.
type ConfigError struct {
	Name   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("skill %q: invalid configuration: %s", e.Name, e.Reason)
}

// ResolutionError means no handler module is registered for the composed
// locator of a script or hybrid skill.
type ResolutionError struct {
	Name    string
	Locator string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("skill %q: no handler registered for %q", e.Name, e.Locator)
}

// FunctionNotFoundError means the handler module exists but does not export
// the configured function.
type FunctionNotFoundError struct {
	Name     string
	Locator  string
	Function string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("skill %q: function %q not found in handler %q",
		e.Name, e.Function, e.Locator)
}

// UnknownVariantError marks a definition whose variant escaped validation.
// It fails the affected call only.
type UnknownVariantError struct {
	Name    string
	Variant Variant
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("skill %q: unknown skill type %q", e.Name, e.Variant)
}
