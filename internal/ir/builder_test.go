package ir

import (
	"testing"

	"github.com/seaopt/seac/internal/diag"
)

// buildSimpleFunc builds: START; x = CONSTANT 7; END(startCtrl, startMem, x).
func buildSimpleFunc(t *testing.T) (*Function, *Node) {
	t.Helper()
	f := NewFunction()
	s := Start(f)
	c := Constant(f, 7)
	End(f, s.StartCtrl, s.StartMem, c)
	return f, c
}

func TestStartEndBasic(t *testing.T) {
	f, c := buildSimpleFunc(t)
	Finalize(f)
	CheckUseListDuality(f)

	if f.End.Inputs[2] != c {
		t.Fatalf("END value input = %v, want constant node", f.End.Inputs[2])
	}
	if len(c.Uses()) != 1 {
		t.Fatalf("constant has %d uses, want 1", len(c.Uses()))
	}
}

func TestSecondEndFails(t *testing.T) {
	f, c := buildSimpleFunc(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic constructing a second END")
		}
	}()
	End(f, f.StartCtrl, f.StartMem, c)
}

func TestSetInputRewiresUses(t *testing.T) {
	f := NewFunction()
	s := Start(f)
	a := Constant(f, 1)
	b := Constant(f, 2)
	add := Add(f, a, b)
	End(f, s.StartCtrl, s.StartMem, add)

	if len(a.Uses()) != 1 || len(b.Uses()) != 1 {
		t.Fatalf("expected single uses after construction")
	}

	c := Constant(f, 3)
	f.SetInput(add, 0, c)

	if len(a.Uses()) != 0 {
		t.Fatalf("old input a should have no uses after SetInput rewires slot 0")
	}
	if len(c.Uses()) != 1 {
		t.Fatalf("new input c should have exactly one use")
	}
	CheckUseListDuality(f)
}

func TestWrongFlagClassIsStructuralError(t *testing.T) {
	f := NewFunction()
	s := Start(f)
	val := Constant(f, 1)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic for ctrl input of wrong flag class")
		}
		if _, ok := r.(*diag.StructuralError); !ok {
			t.Fatalf("expected a *diag.StructuralError panic value, got %T", r)
		}
	}()
	// val is a value node, not control; using it as END's ctrl input
	// must fail structurally.
	End(f, val, s.StartMem, val)
}

func TestIndexOutOfRangeFails(t *testing.T) {
	f := NewFunction()
	s := Start(f)
	c := Constant(f, 1)
	_ = c

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range input index")
		}
	}()
	f.SetInput(s.Start, 5, c)
}

func TestRegionAndPhi(t *testing.T) {
	f := NewFunction()
	s := Start(f)

	br := Branch(f, s.StartCtrl, Constant(f, 1))
	region := Region(f)
	SetRegionInputs(f, region, []*Node{br.BranchTrue, br.BranchFalse})

	phi := Phi(f)
	v1 := Constant(f, 10)
	v2 := Constant(f, 20)
	SetPhiInputs(f, phi, region, []*Node{v1, v2})

	if len(phi.Inputs) != len(region.Inputs)+1 {
		t.Fatalf("phi arity = %d, want region arity + 1 = %d", len(phi.Inputs), len(region.Inputs)+1)
	}

	End(f, region, s.StartMem, phi)
	Finalize(f)
	CheckUseListDuality(f)
}
