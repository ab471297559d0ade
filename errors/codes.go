package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Execution errors
const (
	// ErrCodeOperatorFailed indicates an operator's transform returned an error.
	ErrCodeOperatorFailed ErrorCode = "OPERATOR_FAILED"
	// ErrCodeRunCanceled indicates a run was canceled before completing.
	ErrCodeRunCanceled ErrorCode = "RUN_CANCELED"
	// ErrCodeTimeout indicates an operator exceeded its time budget.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExecutorBusy indicates the executor is at its concurrent run limit.
	ErrCodeExecutorBusy ErrorCode = "EXECUTOR_BUSY"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDimensionMismatch indicates a voxel buffer disagrees with its extent.
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRunCanceled:  true,
	ErrCodeTimeout:      true,
	ErrCodeExecutorBusy: true,
	ErrCodeInternal:     false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
