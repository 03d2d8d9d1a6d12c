package emit_test

import (
	"strings"
	"testing"

	"github.com/seaopt/seac/internal/emit"
	"github.com/seaopt/seac/internal/ir"
	"github.com/seaopt/seac/internal/sched"
	"github.com/seaopt/seac/internal/sel"
	"github.com/seaopt/seac/internal/x64"
)

func buildDiamond() *ir.Function {
	f := ir.NewFunction()
	s := ir.Start(f)
	p := ir.Constant(f, 1)
	br := ir.Branch(f, s.StartCtrl, p)
	region := ir.Region(f)
	ir.SetRegionInputs(f, region, []*ir.Node{br.BranchTrue, br.BranchFalse})
	x1 := ir.Add(f, ir.Constant(f, 1), ir.Constant(f, 1))
	x2 := ir.Add(f, ir.Constant(f, 2), ir.Constant(f, 2))
	phi := ir.Phi(f)
	ir.SetPhiInputs(f, phi, region, []*ir.Node{x1, x2})
	ir.End(f, region, s.StartMem, phi)
	return f
}

// TestEmitResolvesPhiWithPredecessorCopies checks Testable Property 9: each
// arm gets a temp copy of its value appended right before it falls into the
// merge block, and the merge block loads the phi's register from a temp at
// its head.
func TestEmitResolvesPhiWithPredecessorCopies(t *testing.T) {
	out := sel.Select(buildDiamond(), x64.DefaultRules())
	blocks := sched.Schedule(out)
	prog := emit.Emit(out, blocks)

	var mergeBlock *emit.MachBlock
	for _, b := range prog.Blocks {
		if len(b.Term) > 0 && strings.HasPrefix(b.Term[len(b.Term)-1].Text, "ret") {
			mergeBlock = b
		}
	}
	if mergeBlock == nil {
		t.Fatalf("expected a block ending in ret")
	}
	if len(prog.Blocks) != 4 {
		t.Fatalf("expected entry, two arms, and the merge block, got %d blocks", len(prog.Blocks))
	}

	if len(mergeBlock.Body) == 0 {
		t.Fatalf("expected the merge block to have a phi-resolution load at its head")
	}
	head := mergeBlock.Body[0]
	if !strings.HasPrefix(head.Text, "mov ") || !head.HasDef {
		t.Fatalf("expected merge block's first instruction to be a defining mov, got %q", head.Text)
	}

	foundCopy := false
	for _, b := range prog.Blocks {
		if b == mergeBlock {
			continue
		}
		if len(b.Body) == 0 {
			continue
		}
		last := b.Body[len(b.Body)-1]
		if strings.HasPrefix(last.Text, "mov ") && last.HasDef && len(last.Uses) == 1 {
			foundCopy = true
			found := false
			for _, r := range b.LiveOut {
				if r == last.Def {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected predecessor copy's temp %v to be live-out of block %s, live-out was %v", last.Def, b.Label, b.LiveOut)
			}
		}
	}
	if !foundCopy {
		t.Fatalf("expected at least one predecessor block to carry a phi-resolution copy")
	}
}

// TestEmitConstantFoldedReturnLowersToMovAndRet checks Testable Property
// 10's emitted-code shape for a function whose value graph has already
// collapsed to a bare constant feeding End: a single "mov eax, <imm>"
// followed by "ret", with no intervening materialization of the constant
// into its own register.
func TestEmitConstantFoldedReturnLowersToMovAndRet(t *testing.T) {
	f := ir.NewFunction()
	s := ir.Start(f)
	ir.End(f, s.StartCtrl, s.StartMem, ir.Constant(f, 0))

	out := sel.Select(f, x64.DefaultRules())
	blocks := sched.Schedule(out)
	prog := emit.Emit(out, blocks)

	if len(prog.Blocks) != 1 {
		t.Fatalf("expected a single block, got %d", len(prog.Blocks))
	}
	b := prog.Blocks[0]
	if len(b.Body) != 0 {
		t.Fatalf("expected no body instructions (the constant should be inlined at End, not materialized), got %v", b.Body)
	}
	if len(b.Term) != 2 {
		t.Fatalf("expected exactly two terminator instructions (mov, ret), got %d: %v", len(b.Term), b.Term)
	}
	if b.Term[0].Text != "mov eax, 0" {
		t.Fatalf("expected %q, got %q", "mov eax, 0", b.Term[0].Text)
	}
	if b.Term[1].Text != "ret" {
		t.Fatalf("expected %q, got %q", "ret", b.Term[1].Text)
	}
}

func TestProgramStringRendersLabelsAndLiveOut(t *testing.T) {
	f := ir.NewFunction()
	s := ir.Start(f)
	ir.End(f, s.StartCtrl, s.StartMem, ir.Constant(f, 5))

	out := sel.Select(f, x64.DefaultRules())
	blocks := sched.Schedule(out)
	prog := emit.Emit(out, blocks)

	text := prog.String()
	if !strings.Contains(text, "bb_0:") {
		t.Fatalf("expected a bb_0 label in:\n%s", text)
	}
	if !strings.Contains(text, "mov eax, 5") {
		t.Fatalf("expected the folded return value inlined in:\n%s", text)
	}
}
