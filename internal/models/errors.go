package models

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes the fatal failure classes of the repository layer.
type ErrorKind int

const (
	ErrUnavailable ErrorKind = iota
	ErrUnresolvableFamily
	ErrFetchDisabled
	ErrMissingCrossDevel
	ErrBuildNoArtifact
	ErrExternalTool
	ErrInvalidConfig
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrUnavailable:
		return "Unavailable"
	case ErrUnresolvableFamily:
		return "UnresolvableFamily"
	case ErrFetchDisabled:
		return "FetchDisabled"
	case ErrMissingCrossDevel:
		return "MissingCrossDevel"
	case ErrBuildNoArtifact:
		return "BuildNoArtifact"
	case ErrExternalTool:
		return "ExternalTool"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// ErrExcluded marks a package registration that was skipped because the
// artifact is absent locally while downloads are disabled. Callers check
// for it with errors.Is; an excluded package touches no index.
var ErrExcluded = errors.New("package excluded from registration")

// FetchError represents a fatal failure during resolution or fetch.
// Nothing in this layer retries; errors propagate to the build step.
type FetchError struct {
	Kind    ErrorKind
	Package string
	Err     error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped error
func (e *FetchError) Unwrap() error {
	return e.Err
}
