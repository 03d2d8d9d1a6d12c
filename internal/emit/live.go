package emit

import (
	"sort"

	"github.com/seaopt/seac/internal/worklist"
	"github.com/seaopt/seac/internal/x64"
)

// computeLiveOut fills in every block's LiveOut field with the standard
// iterative UEVar/VarKill backward dataflow, grounded on x64.c's
// compute_live_out: UEVar(B) is every register read in B before any
// definition of it in B, VarKill(B) is every register B (re)defines, and
// LiveOut(B) = union over successors S of UEVar(S) ∪ (LiveOut(S) \
// VarKill(S)), iterated to a fixpoint. The absence of any real register
// allocator downstream makes this purely diagnostic output (the live-out
// line of each block in Program.String's listing), not load-bearing for
// code generation.
func computeLiveOut(prog *Program) {
	n := 1
	for _, b := range prog.Blocks {
		for _, in := range b.Body {
			n = growFor(n, in)
		}
		for _, in := range b.Term {
			n = growFor(n, in)
		}
	}

	ueVar := map[*MachBlock]*worklist.Bits{}
	varKill := map[*MachBlock]*worklist.Bits{}
	liveOut := map[*MachBlock]*worklist.Bits{}

	for _, b := range prog.Blocks {
		ue := worklist.NewBits(n)
		kill := worklist.NewBits(n)
		walk := func(in Instr) {
			for _, u := range in.Uses {
				if !kill.Test(int(u)) {
					ue.Set(int(u))
				}
			}
			if in.HasDef {
				kill.Set(int(in.Def))
			}
		}
		for _, in := range b.Body {
			walk(in)
		}
		for _, in := range b.Term {
			walk(in)
		}
		ueVar[b] = ue
		varKill[b] = kill
		liveOut[b] = worklist.NewBits(n)
	}

	changed := true
	for changed {
		changed = false
		for _, b := range prog.Blocks {
			next := worklist.NewBits(n)
			for _, s := range b.succs {
				live := liveOut[s].Clone()
				live.SubtractInto(varKill[s])
				next.UnionWith(live)
				next.UnionWith(ueVar[s])
			}
			if !next.Equal(liveOut[b]) {
				liveOut[b] = next
				changed = true
			}
		}
	}

	for _, b := range prog.Blocks {
		var regs []x64.Reg
		liveOut[b].Each(func(id int) {
			regs = append(regs, x64.Reg(id))
		})
		sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
		b.LiveOut = regs
	}
}

func growFor(n int, in Instr) int {
	if in.HasDef && int(in.Def)+1 > n {
		n = int(in.Def) + 1
	}
	for _, u := range in.Uses {
		if int(u)+1 > n {
			n = int(u) + 1
		}
	}
	return n
}
