package pipeline

import (
	"github.com/voxelkit/tomopipe/imagedata"
	"github.com/voxelkit/tomopipe/logger"
	"github.com/voxelkit/tomopipe/runloop"
)

// RunState is the pipeline's coarse execution state.
type RunState int

const (
	// StateIdle means no run is in flight and execution is not paused.
	StateIdle RunState = iota
	// StateRunning means a future is in flight.
	StateRunning
	// StatePaused means execution requests are being dropped.
	StatePaused
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// outputDataSourceName names the implicit transform data sources the
// pipeline creates to hold branch output.
const outputDataSourceName = "Output"

// Pipeline orchestrates runs of a root DataSource's operator chain and every
// branch reachable through child data sources.
//
// At most one future is in flight per pipeline; a new run request cancels the
// previous future before submitting. All internal state is confined to the
// control loop.
type Pipeline struct {
	loop    *runloop.Loop
	ownLoop bool
	exec    Executor
	root    *DataSource
	log     *logger.Logger

	// Control-loop confined from here down.
	future Future
	paused bool

	started  signal[struct{}]
	finished signal[struct{}]

	// Owned branch output data sources and the signal subscriptions made
	// at adoption time, kept so teardown can disconnect them.
	branches map[*DataSource]struct{}
	dsSubs   map[*DataSource][2]int
	opSubs   map[*Operator]int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoop runs the pipeline on an existing control loop instead of a
// private one. The caller keeps ownership of the loop.
func WithLoop(l *runloop.Loop) Option {
	return func(p *Pipeline) {
		p.loop = l
		p.ownLoop = false
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New creates a Pipeline over root, adopting it: chain edits on root (and on
// any branch data source the pipeline creates later) trigger the matching
// partial re-run.
func New(root *DataSource, exec Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		exec:     exec,
		root:     root,
		branches: make(map[*DataSource]struct{}),
		dsSubs:   make(map[*DataSource][2]int),
		opSubs:   make(map[*Operator]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.loop == nil {
		p.loop = runloop.New()
		p.ownLoop = true
	}
	if p.log == nil {
		p.log = logger.Get("pipeline")
	}

	p.loop.Invoke(func() { p.adoptDataSource(root) })
	return p
}

// Loop returns the control loop the pipeline runs on.
func (p *Pipeline) Loop() *runloop.Loop { return p.loop }

// Root returns the adopted root data source.
func (p *Pipeline) Root() *DataSource { return p.root }

// Do runs fn on the control loop and waits for it. Use it for chain
// mutations and any other access to adopted data sources and operators.
func (p *Pipeline) Do(fn func()) { p.loop.Invoke(fn) }

// OnStarted registers fn to run (on the control loop) whenever a chain
// segment execution is triggered.
func (p *Pipeline) OnStarted(fn func()) {
	p.loop.Post(func() { p.started.connect(func(struct{}) { fn() }) })
}

// OnFinished registers fn to run (on the control loop) when a whole pipeline
// run completes successfully.
func (p *Pipeline) OnFinished(fn func()) {
	p.loop.Post(func() { p.finished.connect(func(struct{}) { fn() }) })
}

// Execute runs the entire chain starting at the root data source.
func (p *Pipeline) Execute() {
	p.loop.Post(p.executeAll)
}

// ExecuteFrom runs ds's chain from its beginning.
func (p *Pipeline) ExecuteFrom(ds *DataSource) {
	p.loop.Post(func() { p.runFrom(ds) })
}

// ExecuteAppended runs only ds's last operator, splicing in the cached
// transform result of the preceding segment when it is still valid. Used
// after appending a single operator.
func (p *Pipeline) ExecuteAppended(ds *DataSource) {
	p.loop.Post(func() {
		ops := ds.Operators()
		var last *Operator
		if len(ops) > 0 {
			last = ops[len(ops)-1]
		}
		p.run(ds, last)
	})
}

// Pause makes the pipeline drop execution requests until Resume. A future
// already in flight keeps running, but its completion will not progress into
// further branches while paused.
func (p *Pipeline) Pause() {
	p.loop.Post(func() {
		p.paused = true
		p.log.Debug("pipeline paused")
	})
}

// Resume clears the paused flag. If run is true, a full execution from the
// root is triggered immediately.
func (p *Pipeline) Resume(run bool) {
	p.loop.Post(func() {
		p.paused = false
		p.log.Debug("pipeline resumed", logger.Fields("run", run))
		if run {
			p.executeAll()
		}
	})
}

// Cancel requests cancellation of the in-flight future, if any. onCanceled,
// when non-nil, runs once on the control loop after the run reports
// cancellation. Cancel with nothing running is a no-op.
func (p *Pipeline) Cancel(onCanceled func()) {
	p.loop.Post(func() {
		if p.future == nil {
			return
		}
		if onCanceled != nil {
			p.future.OnCanceled(func() { p.loop.Post(onCanceled) })
		}
		p.future.Cancel()
	})
}

// IsRunning reports whether a future is in flight.
func (p *Pipeline) IsRunning() bool {
	var running bool
	p.loop.Invoke(func() {
		running = p.future != nil && p.future.IsRunning()
	})
	return running
}

// State reports the pipeline's current coarse state.
func (p *Pipeline) State() RunState {
	state := StateIdle
	p.loop.Invoke(func() {
		switch {
		case p.paused:
			state = StatePaused
		case p.future != nil && p.future.IsRunning():
			state = StateRunning
		}
	})
	return state
}

// Close cancels any in-flight future, disconnects every subscription the
// pipeline made, and stops the control loop if the pipeline owns it.
func (p *Pipeline) Close() {
	p.loop.Invoke(func() {
		if p.future != nil && p.future.IsRunning() {
			p.future.Cancel()
		}
		p.future = nil
		for ds, ids := range p.dsSubs {
			ds.disconnectOperatorAdded(ids[0])
			ds.disconnectOperatorRemoved(ids[1])
		}
		for op, id := range p.opSubs {
			op.disconnectTransformModified(id)
		}
		p.dsSubs = make(map[*DataSource][2]int)
		p.opSubs = make(map[*Operator]int)
	})
	if p.ownLoop {
		p.loop.Close()
	}
}

// --- control-loop internals ---

func (p *Pipeline) executeAll() {
	p.runFrom(p.root)
}

// runFrom emits started and executes ds's chain from the top.
func (p *Pipeline) runFrom(ds *DataSource) {
	p.run(ds, nil)
}

// run emits started and executes ds's chain, beginning at start when given.
// While paused it performs no work and emits nothing.
func (p *Pipeline) run(ds *DataSource, start *Operator) {
	if p.paused {
		p.log.Debug("execution request dropped while paused")
		return
	}
	p.started.emit(struct{}{})
	if len(ds.Operators()) == 0 {
		// Nothing to run; the run completes immediately.
		p.finished.emit(struct{}{})
		return
	}
	p.executeBranch(ds, start)
}

// executeBranch is the branch execution algorithm: it decides the starting
// buffer and operator sub-sequence for one chain segment and submits them to
// the executor.
func (p *Pipeline) executeBranch(ds *DataSource, start *Operator) {
	if p.paused {
		return
	}
	ops := ds.Operators()
	if len(ops) == 0 {
		return
	}

	// One future per pipeline: replace-after-cancel, unconditionally.
	if p.future != nil && p.future.IsRunning() {
		p.future.Cancel()
	}

	var data *imagedata.Image
	if start != nil {
		// Resume from the cached transform result when the segment
		// before start is still valid.
		if tds := p.findTransformedDataSource(ds); tds != nil {
			data = tds.CopyData()
		}

		haveCanceled := false
		for _, op := range ops {
			if op == start {
				break
			}
			if op.IsCanceled() {
				op.ResetState()
				haveCanceled = true
				break
			}
		}

		if !haveCanceled {
			if idx := indexOfOperator(ops, start); idx >= 0 {
				ops = ops[idx:]
			}
			start.ResetState()
		} else if data != nil {
			// A canceled predecessor invalidates the cached
			// transform state: discard it and re-run the whole
			// segment from the source's own buffer.
			data.Release()
			data = nil
		}
	}

	if data == nil {
		data = ds.CopyData()
	}

	p.log.Debug("submitting branch run", logger.Fields(
		"data_source", ds.Name(),
		"operators", len(ops),
		"incremental", start != nil,
	))

	f := p.exec.Run(data, ops)
	p.future = f
	f.OnFinished(func(success bool) {
		p.loop.Post(func() { p.branchFinished(f, success) })
	})
	f.OnCanceled(func() {
		p.loop.Post(func() { p.branchCanceled(f) })
	})
}

// branchFinished handles a future's finished notification: it materializes
// the branch output and either recurses into the child branch or completes
// the run.
func (p *Pipeline) branchFinished(f Future, success bool) {
	if !success {
		// A failed run releases its buffer and does not progress.
		if r := f.Result(); r != nil {
			r.Release()
		}
		if p.future == f {
			p.future = nil
		}
		p.log.Warn("branch run failed")
		return
	}

	ops := f.Operators()
	lastOp := ops[len(ops)-1]

	if !lastOp.HasChildDataSource() {
		// Materialize the implicit transform data source, creating it
		// the first time this branch point produces output.
		var newChild *DataSource
		if lastOp.ChildDataSource() == nil {
			newChild = NewDataSource(outputDataSourceName, nil)
			p.adoptBranch(newChild)
			lastOp.SetChildDataSource(newChild)
		}
		child := lastOp.ChildDataSource()
		child.SetData(f.Result())
		child.DataModified()
		if newChild != nil {
			lastOp.newChildDataSource.emit(newChild)
		}
	} else if r := f.Result(); r != nil {
		// An explicit child data source manages its own data; the
		// run's working buffer is no longer needed.
		r.Release()
	}

	if child := lastOp.ChildDataSource(); child != nil && len(child.Operators()) > 0 {
		// Continue the run into the branch.
		p.runFrom(child)
	} else {
		p.log.Debug("pipeline run finished")
		p.finished.emit(struct{}{})
	}

	if p.future == f {
		p.future = nil
	}
}

// branchCanceled handles a future's canceled notification. The run's buffer
// is owned by the run until cancellation, so it is released here.
func (p *Pipeline) branchCanceled(f Future) {
	if r := f.Result(); r != nil {
		r.Release()
	}
	if p.future == f {
		p.future = nil
	}
	p.log.Debug("branch run canceled")
}

// adoptDataSource subscribes the pipeline to ds's chain mutations.
func (p *Pipeline) adoptDataSource(ds *DataSource) {
	addedID := ds.OnOperatorAdded(p.operatorAdded)
	removedID := ds.OnOperatorRemoved(p.operatorRemoved)
	p.dsSubs[ds] = [2]int{addedID, removedID}
}

// adoptBranch adopts a pipeline-created branch output data source and
// records ownership so it can be destroyed when orphaned.
func (p *Pipeline) adoptBranch(ds *DataSource) {
	p.adoptDataSource(ds)
	p.branches[ds] = struct{}{}
}

// operatorAdded reacts to an operator appended to an adopted data source:
// run just the new operator, wire its parameter-edit notification, and
// relocate the implicit transform data source onto the new chain tail.
func (p *Pipeline) operatorAdded(op *Operator) {
	ds := op.DataSource()

	p.run(ds, op)

	p.opSubs[op] = op.OnTransformModified(func(*Operator) {
		p.executeAll()
	})

	ops := ds.Operators()
	if len(ops) > 1 {
		if tdsOp := p.findTransformedDataSourceOperator(ds); tdsOp != nil && tdsOp != op {
			tds := tdsOp.ChildDataSource()
			tdsOp.SetChildDataSource(nil)
			op.SetChildDataSource(tds)
			// Deferred a tick so the move notification is not
			// delivered inside the call stack still appending
			// the operator.
			p.loop.Post(func() { op.dataSourceMoved.emit(tds) })
		}
	}
}

// operatorRemoved reacts to an operator removed from an adopted data source:
// relocate or destroy its implicit child, then excise the operator from the
// in-flight run or fall back to re-running the chain.
func (p *Pipeline) operatorRemoved(op *Operator) {
	ds := op.DataSource()

	if !op.HasChildDataSource() && op.ChildDataSource() != nil {
		tds := op.ChildDataSource()
		ops := ds.Operators()
		if len(ops) > 0 {
			newOp := ops[len(ops)-1]
			op.SetChildDataSource(nil)
			newOp.SetChildDataSource(tds)
			newOp.dataSourceMoved.emit(tds)
		} else {
			// Orphaned: the branch output has no chain to hang
			// off anymore. Clear and destroy it after the current
			// call stack unwinds.
			tds.RemoveAllOperators()
			op.SetChildDataSource(nil)
			p.loop.Post(func() { p.destroyBranch(tds) })
		}
	}

	if p.future != nil && p.future.IsRunning() {
		// Best effort: excise just the removed operator from the
		// in-flight run; on refusal re-run the chain segment.
		if !p.future.CancelOperator(op) {
			p.runFrom(ds)
		}
	} else {
		p.runFrom(ds)
	}
}

// destroyBranch tears down an orphaned pipeline-owned branch data source.
func (p *Pipeline) destroyBranch(ds *DataSource) {
	if ids, ok := p.dsSubs[ds]; ok {
		ds.disconnectOperatorAdded(ids[0])
		ds.disconnectOperatorRemoved(ids[1])
		delete(p.dsSubs, ds)
	}
	delete(p.branches, ds)
	ds.SetData(nil)
	p.log.Debug("destroyed orphaned branch data source", logger.Fields("name", ds.Name()))
}

// findTransformedDataSource returns the implicit transform data source for
// ds's chain segment, or nil.
func (p *Pipeline) findTransformedDataSource(ds *DataSource) *DataSource {
	if op := p.findTransformedDataSourceOperator(ds); op != nil {
		return op.ChildDataSource()
	}
	return nil
}

// findTransformedDataSourceOperator scans ds's chain backward for the
// operator holding the implicit (non-explicit) child data source.
func (p *Pipeline) findTransformedDataSourceOperator(ds *DataSource) *Operator {
	ops := ds.Operators()
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if !op.HasChildDataSource() && op.ChildDataSource() != nil {
			return op
		}
	}
	return nil
}

func indexOfOperator(ops []*Operator, op *Operator) int {
	for i, cur := range ops {
		if cur == op {
			return i
		}
	}
	return -1
}
