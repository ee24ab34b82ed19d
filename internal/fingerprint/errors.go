package fingerprint

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrShapeMismatch = errors.New("fingerprint shapes differ")
	ErrSize          = errors.New("image too small")
	ErrFormat        = errors.New("unsupported or malformed input")
	ErrConfiguration = errors.New("invalid configuration")
)

// ShapeMismatchError is returned when two fingerprints of different shape are
// compared.
type ShapeMismatchError struct {
	A, B Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("fingerprints must have the same shape: %s vs %s", e.A, e.B)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// SizeError is returned when the source image is too small for the requested
// hash size or decomposition depth.
type SizeError struct {
	Width, Height int
	Required      int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("image %dx%d is smaller than the required %dx%d", e.Width, e.Height, e.Required, e.Required)
}

func (e *SizeError) Is(target error) bool {
	return target == ErrSize
}

// FormatError is returned for undecodable images, images a collaborator
// cannot process, and malformed textual fingerprints.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("format error: %v", e.Err)
	}
	return fmt.Sprintf("format error in %q: %v", e.Input, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ConfigurationError is returned for invalid parameters or parameter
// combinations.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(param, format string, args ...any) error {
	return &ConfigurationError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

func formatError(input string, format string, args ...any) error {
	return &FormatError{Input: input, Err: fmt.Errorf(format, args...)}
}
