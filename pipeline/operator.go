package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/voxelkit/tomopipe/imagedata"
)

// Transform is the user-supplied logic of an operator: one step of a
// tomographic processing chain. Apply may transform in place and return its
// argument, or allocate and return a new image. It should honor ctx
// cancellation for cooperative run cancellation.
type Transform interface {
	Name() string
	Apply(ctx context.Context, img *imagedata.Image) (*imagedata.Image, error)
}

// Resetter is optionally implemented by transforms that keep internal state
// which must be cleared before a re-run.
type Resetter interface {
	Reset()
}

// Operator is one step in a DataSource's chain. It carries the bookkeeping
// the pipeline needs around a Transform: the canceled flag, the child data
// source link for branch points, and the signals the pipeline emits on the
// operator's behalf.
type Operator struct {
	id         string
	transform  Transform
	dataSource *DataSource

	// child is where this operator's output materializes when it is a
	// branch point. explicitChild distinguishes operators whose semantics
	// always produce a separate dataset from the trailing implicit
	// "transform result" data source the pipeline attaches itself.
	child         *DataSource
	explicitChild bool

	// canceled is read by executor goroutines while a run is in flight.
	canceled atomic.Bool

	transformModified  signal[*Operator]
	newChildDataSource signal[*DataSource]
	dataSourceMoved    signal[*DataSource]
}

// OperatorOption configures an Operator.
type OperatorOption func(*Operator)

// WithExplicitChildDataSource marks the operator as one whose semantics
// always produce a separate dataset (a reconstruction step, for example).
// The pipeline will not attach its implicit transform data source to such an
// operator, and will not relocate the attached child during chain edits.
func WithExplicitChildDataSource() OperatorOption {
	return func(op *Operator) { op.explicitChild = true }
}

// NewOperator wraps a Transform for use in a DataSource chain.
func NewOperator(t Transform, opts ...OperatorOption) *Operator {
	op := &Operator{
		id:        uuid.NewString(),
		transform: t,
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// ID returns the operator's identity.
func (op *Operator) ID() string { return op.id }

// Name returns the wrapped transform's name.
func (op *Operator) Name() string { return op.transform.Name() }

// Transform returns the wrapped transform.
func (op *Operator) Transform() Transform { return op.transform }

// DataSource returns the data source whose chain this operator belongs to,
// or nil if unattached.
func (op *Operator) DataSource() *DataSource { return op.dataSource }

// ChildDataSource returns the data source receiving this operator's output
// when it is a branch point, or nil.
func (op *Operator) ChildDataSource() *DataSource { return op.child }

// SetChildDataSource attaches (or, with nil, detaches) the operator's child
// data source. Control-loop only.
func (op *Operator) SetChildDataSource(ds *DataSource) { op.child = ds }

// HasChildDataSource reports whether the operator's own semantics produce a
// separate dataset. It is false for operators holding only the pipeline's
// implicit transform data source; that distinction is what branch-point
// lookup and relocation key on.
func (op *Operator) HasChildDataSource() bool { return op.explicitChild }

// IsCanceled reports whether the operator is in canceled state.
func (op *Operator) IsCanceled() bool { return op.canceled.Load() }

// Cancel puts the operator into canceled state. An incremental run that
// would start after a canceled operator discards its cached input and
// re-runs the whole segment instead.
func (op *Operator) Cancel() { op.canceled.Store(true) }

// ResetState clears the canceled flag and resets the transform's internal
// state if it implements Resetter.
func (op *Operator) ResetState() {
	op.canceled.Store(false)
	if r, ok := op.transform.(Resetter); ok {
		r.Reset()
	}
}

// TransformModified announces that the operator's parameters changed.
// The adopting pipeline reacts by re-running from the root. Call from the
// control loop (Pipeline.Do).
func (op *Operator) TransformModified() {
	op.transformModified.emit(op)
}

// OnTransformModified registers fn to run when TransformModified is called.
func (op *Operator) OnTransformModified(fn func(*Operator)) int {
	return op.transformModified.connect(fn)
}

// OnNewChildDataSource registers fn to run when the pipeline materializes a
// new implicit child data source on this operator.
func (op *Operator) OnNewChildDataSource(fn func(*DataSource)) int {
	return op.newChildDataSource.connect(fn)
}

// OnDataSourceMoved registers fn to run when the pipeline relocates the
// implicit transform data source onto or off this operator.
func (op *Operator) OnDataSourceMoved(fn func(*DataSource)) int {
	return op.dataSourceMoved.connect(fn)
}

func (op *Operator) disconnectTransformModified(id int) {
	op.transformModified.disconnect(id)
}
