package pipeline

import (
	"github.com/voxelkit/tomopipe/imagedata"
)

// ImageFuture is an asynchronous handle to a snapshot of the data as it
// looked before a given operator. It completes with either a finished or a
// canceled notification; after a successful finish, Image returns the
// snapshot and the caller owns it.
//
// All ImageFuture state is confined to the pipeline's control loop.
type ImageFuture struct {
	p     *Pipeline
	inner Future

	img         *imagedata.Image
	done        bool
	success     bool
	wasCanceled bool

	finished signal[bool]
	canceled signal[struct{}]
}

// GetCopyOfImagePriorTo asynchronously produces a copy of the data as it
// would look immediately before op runs: the data source's buffer with every
// operator preceding op applied. For the first operator in the chain, the
// snapshot is simply a copy of the source data.
//
// The snapshot run is independent of the pipeline's tracked run and does not
// interfere with it.
func (p *Pipeline) GetCopyOfImagePriorTo(op *Operator) *ImageFuture {
	f := &ImageFuture{p: p}
	p.loop.Invoke(func() {
		ds := op.DataSource()
		if ds == nil {
			f.done = true
			f.wasCanceled = true
			p.loop.Post(func() { f.canceled.emit(struct{}{}) })
			return
		}
		ops := ds.Operators()
		idx := indexOfOperator(ops, op)
		if idx < 0 {
			f.done = true
			f.wasCanceled = true
			p.loop.Post(func() { f.canceled.emit(struct{}{}) })
			return
		}
		if idx == 0 {
			// Nothing precedes op. Complete immediately, but deliver
			// the notification on a later tick so callers can
			// connect first.
			f.img = ds.CopyData()
			f.done = true
			f.success = true
			p.loop.Post(func() { f.finished.emit(true) })
			return
		}

		prefix := ops[:idx]
		inner := p.exec.Run(ds.CopyData(), prefix)
		f.inner = inner
		inner.OnFinished(func(success bool) {
			p.loop.Post(func() {
				f.done = true
				f.success = success
				if success {
					f.img = inner.Result()
				} else if r := inner.Result(); r != nil {
					r.Release()
				}
				f.finished.emit(success)
			})
		})
		inner.OnCanceled(func() {
			p.loop.Post(func() {
				f.done = true
				f.wasCanceled = true
				if r := inner.Result(); r != nil {
					r.Release()
				}
				f.canceled.emit(struct{}{})
			})
		})
	})
	return f
}

// Image returns the snapshot after a successful finish, nil otherwise.
// Ownership passes to the caller; release it when done.
func (f *ImageFuture) Image() *imagedata.Image {
	var img *imagedata.Image
	f.p.loop.Invoke(func() {
		if f.done && f.success {
			img = f.img
		}
	})
	return img
}

// IsRunning reports whether the snapshot has not yet completed.
func (f *ImageFuture) IsRunning() bool {
	var running bool
	f.p.loop.Invoke(func() { running = !f.done })
	return running
}

// Cancel requests cancellation of the snapshot run.
func (f *ImageFuture) Cancel() {
	f.p.loop.Post(func() {
		if f.inner != nil && f.inner.IsRunning() {
			f.inner.Cancel()
		}
	})
}

// OnFinished registers fn to run (on the control loop) when the snapshot
// completes. If it already completed, fn is invoked on a later tick.
func (f *ImageFuture) OnFinished(fn func(success bool)) {
	f.p.loop.Post(func() {
		if f.done {
			if !f.wasCanceled {
				fn(f.success)
			}
			return
		}
		f.finished.connect(fn)
	})
}

// OnCanceled registers fn to run (on the control loop) when the snapshot is
// canceled. If it was already canceled, fn is invoked on a later tick.
func (f *ImageFuture) OnCanceled(fn func()) {
	f.p.loop.Post(func() {
		if f.done {
			if f.wasCanceled {
				fn()
			}
			return
		}
		f.canceled.connect(func(struct{}) { fn() })
	})
}
