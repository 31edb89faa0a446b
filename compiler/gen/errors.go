// Package gen is the generation engine: it orchestrates entity, repository,
// and whole-project emission for one schema and one target language, using
// an injected language backend, type mapping, and sample/usage providers.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy. Validation findings are not
// errors at all; they are data returned by compiler/validate.
var (
	// ErrConfig indicates a fatal configuration error: unknown language,
	// unknown engine kind, or an incomplete type mapping detected at load.
	ErrConfig = errors.New("tablegen: invalid configuration")
	// ErrSecurity indicates an identifier or derived path that escapes the
	// backend configuration root.
	ErrSecurity = errors.New("tablegen: security violation")
	// ErrGeneration indicates a failure while emitting code.
	ErrGeneration = errors.New("tablegen: code generation failed")
	// ErrContract indicates a mapping lookup miss after the completeness
	// gate passed. This is a defect in the assembled system, never user input.
	ErrContract = errors.New("tablegen: mapping contract violated")
)

// ConfigError is a fatal configuration error. Available, when set, lists
// the valid alternatives for the offending value.
type ConfigError struct {
	Option    string
	Value     any
	Message   string
	Available []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tablegen: config error for %q", e.Option)
	if e.Value != nil {
		fmt.Fprintf(&b, " (value: %v)", e.Value)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, " (available: %s)", strings.Join(e.Available, ", "))
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string, available ...string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message, Available: available}
}

// SecurityError is a fatal error raised before any file access when an
// identifier or a path derived from it resolves outside the backend root.
type SecurityError struct {
	Ident   string
	Message string
}

// Error implements the error interface.
func (e *SecurityError) Error() string {
	return fmt.Sprintf("tablegen: security error for identifier %q: %s", e.Ident, e.Message)
}

// Is reports whether the target matches the sentinel for SecurityError.
func (e *SecurityError) Is(target error) bool { return target == ErrSecurity }

// ContractError reports a type-mapping lookup miss. When raised at backend
// load it carries every missing key; when raised during emission it means
// the completeness gate was bypassed and indicates a programming defect.
type ContractError struct {
	Lang    string
	Domain  string // "field types", "return kinds", or "parameter types"
	Missing []string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("tablegen: type mapping for %s is missing %s entries: %s",
		e.Lang, e.Domain, strings.Join(e.Missing, ", "))
}

// Is reports whether the target matches the sentinel for ContractError.
func (e *ContractError) Is(target error) bool { return target == ErrContract }

// GenerationError reports a failure while emitting a file.
type GenerationError struct {
	Phase   string // "entity", "repository", "example", "support", "write"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("tablegen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		fmt.Fprintf(&b, " (file: %s)", e.File)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the sentinel for GenerationError.
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, File: file, Message: message, Cause: cause}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsSecurityError reports whether the error is a SecurityError.
func IsSecurityError(err error) bool {
	var e *SecurityError
	return errors.As(err, &e)
}

// IsContractError reports whether the error is a ContractError.
func IsContractError(err error) bool {
	var e *ContractError
	return errors.As(err, &e)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
