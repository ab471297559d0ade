package executor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxelkit/tomopipe/errors"
	"github.com/voxelkit/tomopipe/imagedata"
	"github.com/voxelkit/tomopipe/logger"
	"github.com/voxelkit/tomopipe/observability"
	"github.com/voxelkit/tomopipe/pipeline"
)

type runState int

const (
	stateRunning runState = iota
	stateFinished
	stateCanceled
)

// future is the executor's pipeline.Future implementation. One goroutine
// (started by Executor.Run) walks the operator sequence; all mutable state
// is guarded by mu because Cancel and CancelOperator arrive from other
// goroutines.
type future struct {
	exec *Executor
	id   string

	ctx       context.Context
	cancelCtx context.CancelFunc

	mu       sync.Mutex
	img      *imagedata.Image
	ops      []*pipeline.Operator
	state    runState
	success  bool
	canceled bool
	current  *pipeline.Operator
	started  map[*pipeline.Operator]bool
	skip     map[*pipeline.Operator]bool

	finishedCbs []func(bool)
	canceledCbs []func()
}

// Cancel requests cancellation of the whole run. The in-flight operator is
// marked canceled so the pipeline knows its cached downstream state is
// stale.
func (f *future) Cancel() {
	f.mu.Lock()
	if f.state != stateRunning || f.canceled {
		f.mu.Unlock()
		return
	}
	f.canceled = true
	cur := f.current
	f.mu.Unlock()

	if cur != nil {
		cur.Cancel()
	}
	f.cancelCtx()
}

// CancelOperator excises op from the run if it has not started yet.
func (f *future) CancelOperator(op *pipeline.Operator) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != stateRunning || f.canceled {
		return false
	}
	if f.started[op] {
		return false
	}
	f.skip[op] = true
	if f.exec.metrics != nil {
		f.exec.metrics.RecordCancel(f.ctx, "operator")
	}
	return true
}

// IsRunning reports whether the run has not yet reached a terminal state.
func (f *future) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateRunning
}

// Result returns the current output buffer: the final result after a
// successful finish, or the last completed intermediate otherwise.
func (f *future) Result() *imagedata.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.img
}

// Operators returns the sub-sequence this run executes.
func (f *future) Operators() []*pipeline.Operator {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*pipeline.Operator, len(f.ops))
	copy(out, f.ops)
	return out
}

// OnFinished registers fn for the finished notification. Registered after
// the run finished, fn is invoked promptly on the caller's goroutine.
func (f *future) OnFinished(fn func(success bool)) {
	f.mu.Lock()
	if f.state == stateFinished {
		success := f.success
		f.mu.Unlock()
		fn(success)
		return
	}
	if f.state == stateRunning {
		f.finishedCbs = append(f.finishedCbs, fn)
	}
	f.mu.Unlock()
}

// OnCanceled registers fn for the canceled notification. Registered after
// cancellation completed, fn is invoked promptly on the caller's goroutine.
func (f *future) OnCanceled(fn func()) {
	f.mu.Lock()
	if f.state == stateCanceled {
		f.mu.Unlock()
		fn()
		return
	}
	if f.state == stateRunning {
		f.canceledCbs = append(f.canceledCbs, fn)
	}
	f.mu.Unlock()
}

// run is the body of the run goroutine.
func (f *future) run() {
	e := f.exec

	if e.sem != nil {
		select {
		case e.sem <- struct{}{}:
			defer func() { <-e.sem }()
		case <-f.ctx.Done():
			f.terminateCanceled(nil, trace.Span(nil), time.Time{})
			return
		}
	}

	start := time.Now()
	ctx, span := e.tracer.Start(f.ctx, observability.SpanPipelineRun, trace.WithAttributes(
		attribute.String(observability.AttrRunID, f.id),
		attribute.Int("operator.count", len(f.ops)),
	))
	if e.metrics != nil {
		e.metrics.RecordRunStart(ctx)
	}

	for i, op := range f.ops {
		f.mu.Lock()
		if f.canceled {
			f.mu.Unlock()
			f.terminateCanceled(ctx, span, start)
			return
		}
		if f.skip[op] {
			f.mu.Unlock()
			continue
		}
		f.started[op] = true
		f.current = op
		img := f.img
		f.mu.Unlock()

		if err := f.applyOperator(ctx, op, i, img); err != nil {
			if f.ctx.Err() != nil || op.IsCanceled() {
				f.terminateCanceled(ctx, span, start)
			} else {
				f.terminateFailed(ctx, span, start, err)
			}
			return
		}
	}

	f.terminateFinished(ctx, span, start)
}

// applyOperator runs one operator over the current buffer, swapping the
// buffer when the transform allocates a new one.
func (f *future) applyOperator(ctx context.Context, op *pipeline.Operator, idx int, img *imagedata.Image) error {
	e := f.exec

	opCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.OperatorTimeout > 0 {
		opCtx, cancel = context.WithTimeout(ctx, e.cfg.OperatorTimeout)
		defer cancel()
	}

	opStart := time.Now()
	opCtx, span := e.tracer.Start(opCtx, observability.SpanOperator, trace.WithAttributes(
		attribute.String(observability.AttrOperatorName, op.Name()),
		attribute.Int(observability.AttrOperatorIdx, idx),
	))
	out, err := op.Transform().Apply(opCtx, img)
	duration := time.Since(opStart)

	if err == nil && out == nil {
		err = errors.OperatorFailed(op.Name(), nil).WithDetail("reason", "transform returned no image")
	}

	if err != nil {
		var appErr *errors.AppError
		switch {
		case f.ctx.Err() != nil || op.IsCanceled():
			appErr = errors.RunCanceled(f.id)
		case opCtx.Err() == context.DeadlineExceeded:
			appErr = errors.Timeout(op.Name())
		default:
			if ae, ok := err.(*errors.AppError); ok {
				appErr = ae
			} else {
				appErr = errors.OperatorFailed(op.Name(), err)
			}
		}
		span.RecordError(appErr)
		span.SetAttributes(attribute.String(observability.AttrStatus, "error"))
		span.End()
		if e.metrics != nil {
			e.metrics.RecordOperator(f.ctx, e.cfg.ServiceName, op.Name(), "error", duration)
		}
		return appErr
	}

	span.SetAttributes(
		attribute.String(observability.AttrStatus, "ok"),
		attribute.Int64(observability.AttrDurationMs, duration.Milliseconds()),
	)
	span.End()
	if e.metrics != nil {
		e.metrics.RecordOperator(f.ctx, e.cfg.ServiceName, op.Name(), "ok", duration)
	}

	if out != img {
		f.mu.Lock()
		old := f.img
		f.img = out
		f.mu.Unlock()
		if old != nil && old != out {
			old.Release()
		}
	}
	return nil
}

func (f *future) terminateFinished(ctx context.Context, span trace.Span, start time.Time) {
	e := f.exec
	span.SetAttributes(attribute.String(observability.AttrStatus, "ok"))
	span.End()
	if e.metrics != nil {
		e.metrics.RecordRunEnd(ctx, e.cfg.ServiceName, "ok", time.Since(start))
	}
	e.log.Debug("run finished", logger.Fields(
		logger.FieldRunID, f.id,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	f.finish(true)
}

func (f *future) terminateFailed(ctx context.Context, span trace.Span, start time.Time, err error) {
	e := f.exec
	span.RecordError(err)
	span.SetAttributes(attribute.String(observability.AttrStatus, "error"))
	span.End()
	if e.metrics != nil {
		e.metrics.RecordRunEnd(ctx, e.cfg.ServiceName, "error", time.Since(start))
		e.metrics.RecordError(ctx, string(errors.ErrCodeOperatorFailed), "executor")
	}
	e.log.Error("run failed", logger.MergeWithError(logger.Fields(
		logger.FieldRunID, f.id,
	), err))

	f.finish(false)
}

// terminateCanceled is reached both before the run acquired its concurrency
// slot (span is nil) and mid-run.
func (f *future) terminateCanceled(ctx context.Context, span trace.Span, start time.Time) {
	e := f.exec
	if span != nil {
		span.SetAttributes(attribute.String(observability.AttrStatus, "canceled"))
		span.End()
		if e.metrics != nil {
			e.metrics.RecordRunEnd(ctx, e.cfg.ServiceName, "canceled", time.Since(start))
		}
	}
	if e.metrics != nil {
		e.metrics.RecordCancel(f.ctx, "run")
	}
	e.log.Debug("run canceled", logger.Fields(logger.FieldRunID, f.id))

	f.mu.Lock()
	f.state = stateCanceled
	cbs := f.canceledCbs
	f.finishedCbs, f.canceledCbs = nil, nil
	f.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}

func (f *future) finish(success bool) {
	f.mu.Lock()
	f.state = stateFinished
	f.success = success
	cbs := f.finishedCbs
	f.finishedCbs, f.canceledCbs = nil, nil
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(success)
	}
}
