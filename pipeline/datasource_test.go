package pipeline

import (
	"testing"
)

// These tests exercise DataSource and Operator directly, without a pipeline,
// so no loop confinement applies.

func TestDataSourceAddRemoveOperator(t *testing.T) {
	ds := NewDataSource("source", newImg(1))
	op := NewOperator(&noopTransform{name: "op"})

	var added, removed *Operator
	ds.OnOperatorAdded(func(o *Operator) { added = o })
	ds.OnOperatorRemoved(func(o *Operator) { removed = o })

	ds.AddOperator(op)
	if added != op {
		t.Error("expected operatorAdded notification")
	}
	if op.DataSource() != ds {
		t.Error("expected operator attached to the data source")
	}
	if len(ds.Operators()) != 1 {
		t.Fatalf("expected 1 operator, got %d", len(ds.Operators()))
	}

	if !ds.RemoveOperator(op) {
		t.Fatal("expected removal to succeed")
	}
	if removed != op {
		t.Error("expected operatorRemoved notification")
	}
	if op.DataSource() != nil {
		t.Error("expected operator detached after removal")
	}
	if ds.RemoveOperator(op) {
		t.Error("expected second removal to report false")
	}
}

func TestDataSourceRemoveKeepsAttachmentDuringHandlers(t *testing.T) {
	ds := NewDataSource("source", newImg(1))
	op := NewOperator(&noopTransform{name: "op"})
	ds.AddOperator(op)

	var attachedDuringHandler bool
	ds.OnOperatorRemoved(func(o *Operator) {
		attachedDuringHandler = o.DataSource() == ds
	})
	ds.RemoveOperator(op)

	if !attachedDuringHandler {
		t.Error("expected the operator still attached while removal handlers run")
	}
}

func TestDataSourceRemoveAllOperatorsEmitsNothing(t *testing.T) {
	ds := NewDataSource("source", newImg(1))
	op1 := NewOperator(&noopTransform{name: "op1"})
	op2 := NewOperator(&noopTransform{name: "op2"})
	ds.AddOperator(op1)
	ds.AddOperator(op2)

	fired := false
	ds.OnOperatorRemoved(func(*Operator) { fired = true })

	ds.RemoveAllOperators()
	if fired {
		t.Error("expected no removal notifications from RemoveAllOperators")
	}
	if len(ds.Operators()) != 0 {
		t.Error("expected empty chain")
	}
	if op1.DataSource() != nil || op2.DataSource() != nil {
		t.Error("expected operators detached")
	}
}

func TestDataSourceSetDataReleasesPrevious(t *testing.T) {
	old := newImg(1)
	ds := NewDataSource("source", old)

	next := newImg(2)
	ds.SetData(next)

	if !old.Released() {
		t.Error("expected previous buffer released")
	}
	if ds.Data() != next {
		t.Error("expected new buffer installed")
	}

	// Setting the same buffer again must not release it.
	ds.SetData(next)
	if next.Released() {
		t.Error("expected buffer kept when unchanged")
	}
}

func TestDataSourceCopyDataNilSafe(t *testing.T) {
	ds := NewDataSource("empty", nil)
	if ds.CopyData() != nil {
		t.Error("expected nil copy from an empty data source")
	}
}

func TestOperatorCancelAndReset(t *testing.T) {
	op := NewOperator(&noopTransform{name: "op"})
	if op.IsCanceled() {
		t.Error("expected fresh operator not canceled")
	}
	op.Cancel()
	if !op.IsCanceled() {
		t.Error("expected operator canceled")
	}
	op.ResetState()
	if op.IsCanceled() {
		t.Error("expected canceled flag cleared")
	}
}

func TestOperatorExplicitChildOption(t *testing.T) {
	plain := NewOperator(&noopTransform{name: "plain"})
	if plain.HasChildDataSource() {
		t.Error("expected plain operator without explicit child")
	}

	recon := NewOperator(&noopTransform{name: "recon"}, WithExplicitChildDataSource())
	if !recon.HasChildDataSource() {
		t.Error("expected explicit child marker")
	}
}

func TestSignalConnectDisconnect(t *testing.T) {
	var s signal[int]

	var got []int
	id := s.connect(func(v int) { got = append(got, v) })
	s.connect(func(v int) { got = append(got, v*10) })

	s.emit(1)
	s.disconnect(id)
	s.emit(2)

	want := []int{1, 10, 20}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSignalHandlerMayDisconnectDuringEmit(t *testing.T) {
	var s signal[struct{}]

	calls := 0
	var id int
	id = s.connect(func(struct{}) {
		calls++
		s.disconnect(id)
	})
	s.connect(func(struct{}) { calls++ })

	s.emit(struct{}{})
	s.emit(struct{}{})

	if calls != 3 {
		t.Errorf("expected 3 handler calls, got %d", calls)
	}
}
