// Package sched performs global code motion over a selected (target-kind)
// function: it recovers the basic-block structure implicit in the CFG
// skeleton (START/REGION/branch-projections/END), builds a dominator
// tree, and places every floating value node in the deepest block that
// still dominates all of its uses. The literal GCM implementation was not
// present in original_source/ (only its interface is described in
// spec.md §4.4), so this package is freshly authored in the style of
// internal/_teacher_ssa's schedule.go rather than ported line-for-line.
package sched

import "github.com/seaopt/seac/internal/ir"

// Block is one basic block, identified by the CFG anchor node that opens
// it: START_CTRL, REGION, or a branch projection. Instructions is filled
// in by GCM in final placement order; Anchor and the terminator are never
// themselves listed in it.
type Block struct {
	ID           int
	Anchor       *ir.Node
	Terminator   *ir.Node // BRANCH32-class or END32-class node; nil for a block that falls through to its successor
	Succs        []*Block
	Preds        []*Block
	Instructions []*ir.Node
	idom         *Block
	depth        int
}

// isAnchorKind reports whether n is a control value some other control
// node points back at as its predecessor: a REGION, or a control
// projection (START_CTRL, a branch arm). The raw START/END pseudo-nodes
// are never anchors themselves — START_CTRL, its projection, is what
// terminators actually carry as their predecessor edge.
func isAnchorKind(n *ir.Node) bool {
	if n.Kind == ir.REGION {
		return true
	}
	return n.Flags.Has(ir.IsCfg) && n.Flags.Has(ir.IsProj)
}

func isTerminator(n *ir.Node) bool {
	if !n.Flags.Has(ir.IsCfg) || n.Flags.Has(ir.IsProj) {
		return false
	}
	return n.Kind != ir.REGION && n.Kind != ir.START
}

// BuildBlocks recovers the block graph of f, in a deterministic order
// (Block 0 is always the entry block, anchored at f.StartCtrl — the
// control projection terminators actually carry as their predecessor
// edge, not the raw f.Start pseudo-node).
func BuildBlocks(f *ir.Function) []*Block {
	nodes := ir.Reachable(f)

	var anchors []*ir.Node
	regions := map[*ir.Node]*ir.Node{} // region -> dummy, just existence check
	var allTerms []*ir.Node
	for _, n := range nodes {
		if isAnchorKind(n) {
			anchors = append(anchors, n)
		}
		if n.Kind == ir.REGION {
			regions[n] = n
		}
		if isTerminator(n) {
			allTerms = append(allTerms, n)
		}
	}

	blocks := make(map[*ir.Node]*Block, len(anchors))
	order := []*ir.Node{f.StartCtrl}
	for _, a := range anchors {
		if a != f.StartCtrl {
			order = append(order, a)
		}
	}
	for i, a := range order {
		blocks[a] = &Block{ID: i, Anchor: a}
	}

	termFor := func(anchor *ir.Node) *ir.Node {
		for _, t := range allTerms {
			if len(t.Inputs) > 0 && t.Inputs[0] == anchor {
				return t
			}
		}
		return nil
	}

	// a region that no terminator targets directly is reached by fallthrough
	// from whichever anchor lists it as a predecessor.
	fallthroughSucc := func(anchor *ir.Node) *ir.Node {
		for region := range regions {
			for _, pred := range region.Inputs {
				if pred == anchor {
					return region
				}
			}
		}
		return nil
	}

	result := make([]*Block, len(order))
	for i, a := range order {
		b := blocks[a]
		result[i] = b
		b.Terminator = termFor(a)

		var succAnchors []*ir.Node
		if b.Terminator == nil {
			if next := fallthroughSucc(a); next != nil {
				succAnchors = []*ir.Node{next}
			}
		} else {
			for _, u := range b.Terminator.Uses() {
				if u.User.Flags.Has(ir.IsProj) {
					succAnchors = append(succAnchors, u.User)
				}
			}
		}
		for _, sa := range succAnchors {
			sb, ok := blocks[sa]
			if !ok {
				continue
			}
			b.Succs = append(b.Succs, sb)
			sb.Preds = append(sb.Preds, b)
		}
	}

	return result
}
