// Package errors provides unified error handling for the pipeline.
// It implements structured error types with machine-readable codes,
// retryable detection, and cause chains.
package errors

import "fmt"

// AppError is the unified error type for this module.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// OperatorFailed creates a new AppError for an operator whose transform returned an error.
func OperatorFailed(operator string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeOperatorFailed, Message: fmt.Sprintf("The %s operator failed to transform its input.", operator),
		Retryable: false, Cause: cause,
		Details: map[string]any{"operator": operator},
	}
}

// RunCanceled creates a new AppError for a run that was canceled before completing.
func RunCanceled(runID string) *AppError {
	return &AppError{
		Code: ErrCodeRunCanceled, Message: "The pipeline run was canceled.",
		Retryable: true,
		Details:   map[string]any{"run_id": runID},
	}
}

// Timeout creates a new AppError for an operator that exceeded its time budget.
func Timeout(operator string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("The %s operator took too long.", operator),
		Retryable: true,
		Details:   map[string]any{"operator": operator},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Retryable: false,
		Details:   map[string]any{"field": field},
	}
}

// DimensionMismatch creates a new AppError for a voxel buffer whose length
// disagrees with its declared extent.
func DimensionMismatch(dims [3]int, voxels int) *AppError {
	return &AppError{
		Code: ErrCodeDimensionMismatch, Message: fmt.Sprintf("Voxel count %d does not match extent %dx%dx%d.", voxels, dims[0], dims[1], dims[2]),
		Retryable: false,
		Details:   map[string]any{"dims": dims, "voxels": voxels},
	}
}

// ExecutorBusy creates a new AppError for an executor that cannot accept more runs.
func ExecutorBusy() *AppError {
	return &AppError{
		Code: ErrCodeExecutorBusy, Message: "The executor is at its concurrent run limit. Please try again.",
		Retryable: true,
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Retryable: false, Cause: cause,
	}
}
