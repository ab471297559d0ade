package pipeline

import (
	"github.com/google/uuid"

	"github.com/voxelkit/tomopipe/imagedata"
)

// DataSource owns an ordered operator chain and the current data buffer the
// chain applies to. The root data source is supplied by the caller; branch
// output data sources are created and owned by the pipeline.
//
// Mutate a DataSource only from the control loop (Pipeline.Do) once a
// pipeline has adopted it.
type DataSource struct {
	id   string
	name string

	data      *imagedata.Image
	operators []*Operator

	operatorAdded   signal[*Operator]
	operatorRemoved signal[*Operator]
	dataModified    signal[*DataSource]
}

// NewDataSource creates a data source around img. img may be nil for a
// branch output that has not produced data yet.
func NewDataSource(name string, img *imagedata.Image) *DataSource {
	return &DataSource{
		id:   uuid.NewString(),
		name: name,
		data: img,
	}
}

// ID returns the data source identity.
func (ds *DataSource) ID() string { return ds.id }

// Name returns the data source's display name.
func (ds *DataSource) Name() string { return ds.name }

// Operators returns the chain in execution order. The returned slice is a
// copy; mutating it does not affect the chain.
func (ds *DataSource) Operators() []*Operator {
	out := make([]*Operator, len(ds.operators))
	copy(out, ds.operators)
	return out
}

// Data returns the current data buffer without copying.
func (ds *DataSource) Data() *imagedata.Image { return ds.data }

// CopyData returns an independent copy of the current buffer, or nil if the
// data source has no data. Runs consume copies so the original stays intact.
func (ds *DataSource) CopyData() *imagedata.Image {
	return ds.data.DeepCopy()
}

// SetData replaces the current buffer, releasing the previous one. The data
// source takes ownership of img.
func (ds *DataSource) SetData(img *imagedata.Image) {
	if ds.data != nil && ds.data != img {
		ds.data.Release()
	}
	ds.data = img
}

// DataModified announces that the current buffer's contents changed.
func (ds *DataSource) DataModified() {
	ds.dataModified.emit(ds)
}

// AddOperator appends op to the chain. op must not belong to another data
// source. Emits operatorAdded, which an adopting pipeline answers by running
// the new operator.
func (ds *DataSource) AddOperator(op *Operator) {
	op.dataSource = ds
	ds.operators = append(ds.operators, op)
	ds.operatorAdded.emit(op)
}

// RemoveOperator removes op from the chain and reports whether it was found.
// The operator keeps its data source reference while operatorRemoved handlers
// run, then is detached.
func (ds *DataSource) RemoveOperator(op *Operator) bool {
	for i, cur := range ds.operators {
		if cur == op {
			ds.operators = append(ds.operators[:i], ds.operators[i+1:]...)
			ds.operatorRemoved.emit(op)
			op.dataSource = nil
			return true
		}
	}
	return false
}

// RemoveAllOperators clears the chain without emitting per-operator removal
// signals. Used when tearing down an orphaned branch data source, where
// removal reactions must not fire.
func (ds *DataSource) RemoveAllOperators() {
	for _, op := range ds.operators {
		op.dataSource = nil
	}
	ds.operators = nil
}

// OnOperatorAdded registers fn to run when an operator is appended.
func (ds *DataSource) OnOperatorAdded(fn func(*Operator)) int {
	return ds.operatorAdded.connect(fn)
}

// OnOperatorRemoved registers fn to run when an operator is removed.
func (ds *DataSource) OnOperatorRemoved(fn func(*Operator)) int {
	return ds.operatorRemoved.connect(fn)
}

// OnDataModified registers fn to run when the buffer contents change.
func (ds *DataSource) OnDataModified(fn func(*DataSource)) int {
	return ds.dataModified.connect(fn)
}

func (ds *DataSource) disconnectOperatorAdded(id int)   { ds.operatorAdded.disconnect(id) }
func (ds *DataSource) disconnectOperatorRemoved(id int) { ds.operatorRemoved.disconnect(id) }
