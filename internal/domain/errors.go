// Package domain defines domain-specific errors.
// These errors represent failures of the reactive pipeline and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrEmptyRegistry is returned when a switcher is created without patches.
	ErrEmptyRegistry = errors.New("patch registry is empty")

	// ErrInvalidPatchIndex is returned when a patch index is out of bounds.
	ErrInvalidPatchIndex = errors.New("invalid patch index")

	// ErrTransitionInProgress is returned when a switch is requested while another one runs.
	ErrTransitionInProgress = errors.New("patch transition in progress")

	// ErrPatchNotActive is returned when an operation requires an active patch.
	ErrPatchNotActive = errors.New("patch is not active")

	// ErrBankReleased is returned when an envelope is requested from a released bank.
	ErrBankReleased = errors.New("envelope bank released")

	// ErrDuplicateEnvelope is returned when two envelopes in one bank share a name.
	ErrDuplicateEnvelope = errors.New("envelope name already in use")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrSourceHidden is returned by sources that are asked for data while hidden.
	ErrSourceHidden = errors.New("signal source hidden")

	// ErrUnknownOutput is returned when a chain is sent to an output the renderer does not have.
	ErrUnknownOutput = errors.New("unknown render output")

	// ErrNoRenderer is returned when a patch is activated before a renderer exists.
	ErrNoRenderer = errors.New("no renderer available")

	// ErrFullscreenUnsupported is returned when no fullscreen capability is available.
	ErrFullscreenUnsupported = errors.New("fullscreen not supported")

	// ErrCaptureUnavailable is returned when no audio capture is configured.
	ErrCaptureUnavailable = errors.New("audio capture unavailable")

	// ErrLoopClosed is returned when work is posted to a closed event loop.
	ErrLoopClosed = errors.New("event loop closed")
)

// PatchError represents a failure while activating or deactivating a patch.
type PatchError struct {
	Op    string // Operation that failed (e.g., "activate", "deactivate")
	Patch string // Patch name
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %q %s failed: %v", e.Patch, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PatchError) Unwrap() error {
	return e.Err
}

// NewPatchError creates a new PatchError.
func NewPatchError(op, patch string, err error) *PatchError {
	return &PatchError{
		Op:    op,
		Patch: patch,
		Err:   err,
	}
}

// RendererError represents an error from the renderer.
type RendererError struct {
	Op      string // Operation that failed (e.g., "construct", "out")
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *RendererError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("renderer %s failed: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("renderer %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RendererError) Unwrap() error {
	return e.Err
}

// NewRendererError creates a new RendererError.
func NewRendererError(op, message string, err error) *RendererError {
	return &RendererError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// CaptureError represents an error from an audio capture backend.
// This wraps low-level audio library errors with additional context.
type CaptureError struct {
	Backend string // Capture backend (e.g., "portaudio", "oto")
	Op      string // Operation that failed
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s %s failed: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error {
	return e.Err
}

// NewCaptureError creates a new CaptureError.
func NewCaptureError(backend, op string, err error) *CaptureError {
	return &CaptureError{
		Backend: backend,
		Op:      op,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
