// Package opt implements the worklist-driven peephole optimizer: a
// fixed-point loop alternating idealization (per-kind local rewrites) and
// dead-store elimination, grounded on original_source/cringe/back/opt.c.
package opt

import (
	"github.com/seaopt/seac/internal/arena"
	"github.com/seaopt/seac/internal/diag"
	"github.com/seaopt/seac/internal/ir"
	"github.com/seaopt/seac/internal/worklist"
)

// scratch backs the nested acquire/release region Optimize holds for the
// lifetime of one call, per internal/arena's contract.
var scratch = arena.NewScratchStack()

type idealizeFunc func(f *ir.Function, wl *worklist.Sparse, n *ir.Node) *ir.Node

var idealizeTable = map[ir.Kind]idealizeFunc{
	ir.PHI:    idealizePhi,
	ir.REGION: idealizeRegion,
	ir.LOAD:   idealizeLoad,
	ir.ADD:    idealizeAdd,
	ir.SUB:    idealizeSub,
	ir.MUL:    idealizeMul,
	ir.SDIV:   idealizeSdiv,
	ir.CMP:    idealizeCmp,
}

// Optimize runs peephole idealization and dead-store elimination to a fixed
// point: every node starts on the worklist, and any rewrite re-enqueues the
// nodes it touches, until nothing is left to reconsider.
func Optimize(f *ir.Function) {
	sc := scratch.Get()
	defer sc.Release()

	wl := worklist.NewSparse()
	for _, n := range ir.Reachable(f) {
		wl.Add(n.ID)
	}

	for {
		peepholes(f, wl)
		deadStoreElim(f, wl)
		if wl.Empty() {
			break
		}
	}
}

func peepholes(f *ir.Function, wl *worklist.Sparse) {
	all := f.AllNodes()
	for !wl.Empty() {
		node := all[wl.Pop()]

		idealize, ok := idealizeTable[node.Kind]
		if !ok {
			continue
		}

		ideal := idealize(f, wl, node)
		if ideal == node {
			continue
		}
		replace(f, wl, node, ideal)
	}
}

// replace rewires every use of target onto source, then collects target (and
// anything that falls dead as a result) from the graph.
func replace(f *ir.Function, wl *worklist.Sparse, target, source *ir.Node) {
	uses := append([]ir.Use(nil), target.Uses()...)
	for _, u := range uses {
		wl.Add(u.User.ID)
		f.SetInput(u.User, u.Index, source)
	}
	collect(f, wl, target)
}

// collect removes start from the graph if it is dead, transitively
// collecting any input that falls dead as a result, mirroring opt.c's
// explicit-stack remove_node.
func collect(f *ir.Function, wl *worklist.Sparse, start *ir.Node) {
	if !start.IsDead(f.End) {
		return
	}

	stack := []*ir.Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.IsDead(f.End) {
			continue
		}

		wl.Remove(n.ID)
		for i, in := range n.Inputs {
			if in == nil {
				continue
			}
			f.SetInput(n, i, nil)
			if in.IsDead(f.End) {
				stack = append(stack, in)
			}
		}
	}
}

// idealizePhi implements simple-phi elimination: a phi whose non-self inputs
// all agree is replaced by that one input.
func idealizePhi(f *ir.Function, wl *worklist.Sparse, phi *ir.Node) *ir.Node {
	var input *ir.Node
	for i := 1; i < len(phi.Inputs); i++ {
		if phi.Inputs[i] == phi {
			continue
		}
		if input == nil {
			input = phi.Inputs[i]
		} else if input != phi.Inputs[i] {
			return phi
		}
	}
	if input == nil {
		return phi
	}
	wl.Add(phi.Inputs[0].ID)
	return input
}

// idealizeRegion collapses a single-predecessor region with no attached phi
// into its one predecessor.
func idealizeRegion(f *ir.Function, wl *worklist.Sparse, region *ir.Node) *ir.Node {
	if len(region.Inputs) != 1 {
		return region
	}
	for _, u := range region.Uses() {
		if u.User.Kind == ir.PHI {
			return region
		}
	}
	return region.Inputs[0]
}

// idealizeLoad forwards a load through the memory chain when every reaching
// effect writes the same address, synthesizing new value-phis where the
// chain forks. It gives up (returning load unchanged) the moment it meets a
// memory-producing node kind it cannot see through, or a store to a
// different address.
func idealizeLoad(f *ir.Function, wl *worklist.Sparse, load *ir.Node) *ir.Node {
	address := load.Inputs[2]
	first := load.Inputs[1]

	all := f.AllNodes()
	resolved := make([]*ir.Node, f.NumNodes())

	stack := worklist.NewStack()
	stack.Push(worklist.StackItem{Processed: false, Node: first.ID})

	for !stack.Empty() {
		item := stack.Pop()
		node := all[item.Node]

		switch node.Kind {
		case ir.PHI:
			if !item.Processed {
				if resolved[node.ID] != nil {
					continue
				}
				resolved[node.ID] = ir.Phi(f)
				stack.Push(worklist.StackItem{Processed: true, Node: node.ID})
				for i := 1; i < len(node.Inputs); i++ {
					stack.Push(worklist.StackItem{Processed: false, Node: node.Inputs[i].ID})
				}
			} else {
				values := make([]*ir.Node, len(node.Inputs)-1)
				for i := 1; i < len(node.Inputs); i++ {
					v := resolved[node.Inputs[i].ID]
					diag.Assert(v != nil, "load forwarding: unresolved phi input on node %d", node.ID)
					values[i-1] = v
				}
				ir.SetPhiInputs(f, resolved[node.ID], node.Inputs[0], values)
			}

		case ir.STORE:
			if node.Inputs[2] != address {
				return load
			}
			resolved[node.ID] = node.Inputs[3]

		default:
			return load
		}
	}

	result := resolved[first.ID]
	diag.Assert(result != nil, "load forwarding: no resolved value for node %d", first.ID)
	return result
}

func constFold(f *ir.Function, n *ir.Node, compute func(a, b int64) (int64, bool)) *ir.Node {
	a, b := n.Inputs[0], n.Inputs[1]
	if a.Kind != ir.CONSTANT || b.Kind != ir.CONSTANT {
		return n
	}
	v, ok := compute(a.Payload.Const, b.Payload.Const)
	if !ok {
		return n
	}
	return ir.Constant(f, v)
}

func idealizeAdd(f *ir.Function, wl *worklist.Sparse, n *ir.Node) *ir.Node {
	return constFold(f, n, func(a, b int64) (int64, bool) { return a + b, true })
}

func idealizeSub(f *ir.Function, wl *worklist.Sparse, n *ir.Node) *ir.Node {
	return constFold(f, n, func(a, b int64) (int64, bool) { return a - b, true })
}

func idealizeMul(f *ir.Function, wl *worklist.Sparse, n *ir.Node) *ir.Node {
	return constFold(f, n, func(a, b int64) (int64, bool) { return a * b, true })
}

func idealizeSdiv(f *ir.Function, wl *worklist.Sparse, n *ir.Node) *ir.Node {
	return constFold(f, n, func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	})
}

func idealizeCmp(f *ir.Function, wl *worklist.Sparse, n *ir.Node) *ir.Node {
	op := ir.CmpOp(n.Payload.Const)
	return constFold(f, n, func(a, b int64) (int64, bool) {
		var r bool
		switch op {
		case ir.CmpEQ:
			r = a == b
		case ir.CmpNE:
			r = a != b
		case ir.CmpLT:
			r = a < b
		case ir.CmpLE:
			r = a <= b
		case ir.CmpGT:
			r = a > b
		case ir.CmpGE:
			r = a >= b
		default:
			return 0, false
		}
		if r {
			return 1, true
		}
		return 0, true
	})
}

// memDeps returns the memory-producing inputs node depends on, mirroring
// opt.c's get_mem_deps.
func memDeps(n *ir.Node) []*ir.Node {
	switch n.Kind {
	case ir.PHI:
		return n.Inputs[1:]
	case ir.LOAD, ir.STORE, ir.END:
		return n.Inputs[1:2]
	default:
		return nil
	}
}

// deadStoreElim colors every memory-producing node reachable, backwards,
// from a memory-reading sink, then removes any store that colors never
// reach.
func deadStoreElim(f *ir.Function, wl *worklist.Sparse) {
	nodes := ir.Reachable(f)
	seen := worklist.NewBits(f.NumNodes())

	var stack []*ir.Node
	var stores []*ir.Node

	for _, n := range nodes {
		if n.Flags.Has(ir.ReadsMemory) {
			stack = append(stack, n)
		}
		if n.Kind == ir.STORE {
			stores = append(stores, n)
		}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen.Test(n.ID) {
			continue
		}
		seen.Set(n.ID)
		for _, dep := range memDeps(n) {
			if dep != nil {
				stack = append(stack, dep)
			}
		}
	}

	for _, store := range stores {
		if !seen.Test(store.ID) {
			replace(f, wl, store, store.Inputs[1])
		}
	}
}
