package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error a checker can surface.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindNotSupported         ErrorKind = "not_supported"
	KindPlatformNotSupported ErrorKind = "platform_not_supported"
	KindVersionMismatch      ErrorKind = "version_mismatch"
	KindInstallFailed        ErrorKind = "install_failed"
	KindValidationFailed     ErrorKind = "validation_failed"
	KindInvalidOptions       ErrorKind = "invalid_options"
)

var (
	// ErrUnknownDependencyType is returned by the checker factory for a type it cannot build.
	ErrUnknownDependencyType = errors.New("unknown dependency type")
	// ErrNotImplemented marks contract paths that exist but are not available yet.
	ErrNotImplemented = errors.New("not implemented")
	// ErrNoMatchingVersion means the registry answered but published nothing in the requested range.
	ErrNoMatchingVersion = errors.New("no matching version")
)

// DepsError is a classified, user-facing dependency error.
type DepsError struct {
	Kind     ErrorKind `json:"kind" yaml:"kind"`
	Message  string    `json:"message" yaml:"message"`
	HelpLink string    `json:"helpLink" yaml:"helpLink"`
	Cause    error     `json:"-" yaml:"-"`
}

func (e *DepsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *DepsError) Unwrap() error {
	return e.Cause
}

// NewDepsError creates a new error of the given kind.
func NewDepsError(kind ErrorKind, message, helpLink string, cause error) *DepsError {
	return &DepsError{
		Kind:     kind,
		Message:  message,
		HelpLink: helpLink,
		Cause:    cause,
	}
}

func NewNotFoundError(message, helpLink string) *DepsError {
	return NewDepsError(KindNotFound, message, helpLink, nil)
}

func NewNotSupportedError(message, helpLink string) *DepsError {
	return NewDepsError(KindNotSupported, message, helpLink, nil)
}

func NewPlatformNotSupportedError(message, helpLink string) *DepsError {
	return NewDepsError(KindPlatformNotSupported, message, helpLink, nil)
}

func NewVersionMismatchError(message, helpLink string) *DepsError {
	return NewDepsError(KindVersionMismatch, message, helpLink, nil)
}

func NewInstallFailedError(message, helpLink string, cause error) *DepsError {
	return NewDepsError(KindInstallFailed, message, helpLink, cause)
}

func NewValidationFailedError(message, helpLink string, cause error) *DepsError {
	return NewDepsError(KindValidationFailed, message, helpLink, cause)
}

func NewInvalidOptionsError(message, helpLink string) *DepsError {
	return NewDepsError(KindInvalidOptions, message, helpLink, nil)
}

// NewNeedsPackageManagerError reports that npm is required to install name.
func NewNeedsPackageManagerError(name, helpLink string) *DepsError {
	return NewInstallFailedError(
		fmt.Sprintf("Cannot install %s because npm was not found. Install Node.js (which ships npm) and try again.", name),
		helpLink, nil)
}

// AsDepsError extracts a *DepsError from an error chain.
func AsDepsError(err error) (*DepsError, bool) {
	var de *DepsError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Classify returns err as a *DepsError, wrapping anything unclassified as an install failure.
func Classify(err error, helpLink string) *DepsError {
	if err == nil {
		return nil
	}
	if de, ok := AsDepsError(err); ok {
		return de
	}
	return NewInstallFailedError(err.Error(), helpLink, err)
}

func hasKind(err error, kind ErrorKind) bool {
	de, ok := AsDepsError(err)
	return ok && de.Kind == kind
}

func IsNotFound(err error) bool             { return hasKind(err, KindNotFound) }
func IsNotSupported(err error) bool         { return hasKind(err, KindNotSupported) }
func IsPlatformNotSupported(err error) bool { return hasKind(err, KindPlatformNotSupported) }
func IsVersionMismatch(err error) bool      { return hasKind(err, KindVersionMismatch) }
func IsInstallFailed(err error) bool        { return hasKind(err, KindInstallFailed) }
func IsValidationFailed(err error) bool     { return hasKind(err, KindValidationFailed) }
func IsInvalidOptions(err error) bool       { return hasKind(err, KindInvalidOptions) }
