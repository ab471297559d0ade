package pipeline

import (
	"testing"
)

func TestSnapshotPriorToFirstOperatorIsSourceCopy(t *testing.T) {
	p, root, exec := newTestPipeline(t, 10)

	op := addOperator(p, root, "op1")
	exec.lastRun().complete(true, newImg(11))
	barrier(p)
	before := exec.runCount()

	snap := p.GetCopyOfImagePriorTo(op)
	done := false
	snap.OnFinished(func(bool) { done = true })
	barrier(p)
	barrier(p)

	var finished bool
	p.Do(func() { finished = done })
	if !finished {
		t.Fatal("expected immediate snapshot to finish")
	}
	// No prefix to run, so no executor run was submitted.
	if got := exec.runCount(); got != before {
		t.Errorf("expected no executor run for an empty prefix, got %d extra", got-before)
	}

	img := snap.Image()
	if img == nil {
		t.Fatal("expected snapshot image")
	}
	if got := img.At(0, 0, 0); got != 10 {
		t.Errorf("expected raw source value 10, got %v", got)
	}
	if img == root.Data() {
		t.Error("expected an independent copy, not the source buffer")
	}
	img.Release()
}

func TestSnapshotPriorToRunsPrefix(t *testing.T) {
	p, root, exec := newTestPipeline(t, 10)

	op1 := addOperator(p, root, "op1")
	exec.lastRun().complete(true, newImg(11))
	barrier(p)
	op2 := addOperator(p, root, "op2")
	exec.lastRun().complete(true, newImg(12))
	barrier(p)

	snap := p.GetCopyOfImagePriorTo(op2)

	run := exec.lastRun()
	ops := run.Operators()
	if len(ops) != 1 || ops[0] != op1 {
		t.Fatalf("expected snapshot run over the prefix before the operator")
	}
	if got := run.Result().At(0, 0, 0); got != 10 {
		t.Errorf("expected snapshot input from the source data (10), got %v", got)
	}
	if !snap.IsRunning() {
		t.Error("expected snapshot in flight until the prefix run completes")
	}

	run.complete(true, newImg(11))
	barrier(p)

	if snap.IsRunning() {
		t.Error("expected snapshot finished")
	}
	img := snap.Image()
	if img == nil {
		t.Fatal("expected snapshot image")
	}
	if got := img.At(0, 0, 0); got != 11 {
		t.Errorf("expected prefix result 11, got %v", got)
	}
	img.Release()
}

func TestSnapshotCancel(t *testing.T) {
	p, root, exec := newTestPipeline(t, 10)

	addOperator(p, root, "op1")
	exec.lastRun().complete(true, newImg(11))
	barrier(p)
	op2 := addOperator(p, root, "op2")
	exec.lastRun().complete(true, newImg(12))
	barrier(p)

	snap := p.GetCopyOfImagePriorTo(op2)
	canceled := false
	snap.OnCanceled(func() { canceled = true })
	barrier(p)

	snap.Cancel()
	barrier(p)
	barrier(p)

	var got bool
	p.Do(func() { got = canceled })
	if !got {
		t.Error("expected cancellation notification")
	}
	if snap.Image() != nil {
		t.Error("expected no image from a canceled snapshot")
	}
}

func TestSnapshotDetachedOperatorIsCanceled(t *testing.T) {
	p, _, _ := newTestPipeline(t, 10)

	op := NewOperator(&noopTransform{name: "floating"})
	snap := p.GetCopyOfImagePriorTo(op)

	canceled := false
	snap.OnCanceled(func() { canceled = true })
	barrier(p)
	barrier(p)

	var got bool
	p.Do(func() { got = canceled })
	if !got {
		t.Error("expected cancellation for an operator with no data source")
	}
	if snap.IsRunning() {
		t.Error("expected snapshot not running")
	}
}
