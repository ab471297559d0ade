package pipeline

import "github.com/voxelkit/tomopipe/imagedata"

// Executor runs an operator sub-sequence over a data buffer asynchronously.
// The production implementation lives in the executor package; tests supply
// their own.
//
// The buffer passed to Run is exclusively owned by that run until it
// completes or is canceled, at which point ownership returns to the caller
// through Result.
type Executor interface {
	Run(img *imagedata.Image, ops []*Operator) Future
}

// Future is a cancellable handle to one asynchronous run.
//
// Completion callbacks may be invoked from any goroutine; the Pipeline
// marshals them onto its control loop. A Future reaches exactly one of two
// terminal notifications: finished (with a success flag) or canceled.
type Future interface {
	// Cancel requests cancellation of the whole run. The in-flight
	// operator is put into canceled state so later incremental runs know
	// the cached transform state is stale.
	Cancel()
	// CancelOperator attempts to excise a single operator from the run.
	// It reports false when the operator has already started or finished
	// and cannot be safely removed, in which case the caller must fall
	// back to re-running the chain segment.
	CancelOperator(op *Operator) bool
	// IsRunning reports whether the run has not yet reached a terminal state.
	IsRunning() bool
	// Result returns the run's output buffer: the final result after a
	// successful finish, or the last completed intermediate otherwise.
	Result() *imagedata.Image
	// Operators returns the sub-sequence this run executes.
	Operators() []*Operator
	// OnFinished registers fn for the finished notification. If the run
	// already finished, fn is invoked promptly.
	OnFinished(fn func(success bool))
	// OnCanceled registers fn for the canceled notification. If the run
	// was already canceled, fn is invoked promptly.
	OnCanceled(fn func())
}
