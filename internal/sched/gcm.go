package sched

import "github.com/seaopt/seac/internal/ir"

// gcm carries the memo tables threaded through one Place call.
type gcm struct {
	byAnchor map[*ir.Node]*Block
	term     map[*ir.Node]*Block
	early    map[*ir.Node]*Block
	final    map[*ir.Node]*Block
	visiting map[*ir.Node]bool
}

func blockByAnchor(blocks []*Block) map[*ir.Node]*Block {
	m := make(map[*ir.Node]*Block, len(blocks))
	for _, b := range blocks {
		m[b.Anchor] = b
	}
	return m
}

func blockByTerminator(blocks []*Block) map[*ir.Node]*Block {
	m := map[*ir.Node]*Block{}
	for _, b := range blocks {
		if b.Terminator != nil {
			m[b.Terminator] = b
		}
	}
	return m
}

// fixedBlock returns the block n is pinned to independent of GCM — an
// anchor, a block's terminator, a phi (pinned to its region), or any other
// IsPinned node (pinned to its first, control-anchored input) — and
// whether n is pinned at all.
func (g *gcm) fixedBlock(n *ir.Node) (*Block, bool) {
	if b, ok := g.byAnchor[n]; ok {
		return b, true
	}
	if b, ok := g.term[n]; ok {
		return b, true
	}
	if n.Kind == ir.PHI {
		return g.byAnchor[n.Inputs[0]], true
	}
	if n.Flags.Has(ir.IsPinned) && len(n.Inputs) > 0 {
		if b, ok := g.byAnchor[n.Inputs[0]]; ok {
			return b, true
		}
	}
	return nil, false
}

// computeEarly returns the deepest block among n's inputs' schedule-early
// blocks — the shallowest valid placement, since n cannot execute before
// any value it depends on is available.
func (g *gcm) computeEarly(entry *Block, n *ir.Node) *Block {
	if b, ok := g.early[n]; ok {
		return b
	}
	if b, ok := g.fixedBlock(n); ok {
		g.early[n] = b
		return b
	}
	if g.visiting[n] {
		return entry
	}
	g.visiting[n] = true
	best := entry
	for _, in := range n.Inputs {
		if in == nil {
			continue
		}
		if eb := g.computeEarly(entry, in); eb.depth > best.depth {
			best = eb
		}
	}
	g.visiting[n] = false
	g.early[n] = best
	return best
}

// useBlock returns the block that effectively constrains a use of n: the
// predecessor block corresponding to a phi input's own region slot, or
// the (recursively placed) block of the consuming node otherwise.
func (g *gcm) useBlock(use ir.Use) *Block {
	if use.User.Kind == ir.PHI {
		region := use.User.Inputs[0]
		predIndex := use.Index - 1
		return g.byAnchor[region.Inputs[predIndex]]
	}
	return g.placeLate(use.User)
}

// placeLate computes n's final block: the lowest common ancestor of every
// use's constraining block, walked back up toward (but never past) the
// early bound. With no loop-nesting information available, this always
// stops at the late bound itself rather than hoisting further — a
// deliberate simplification of Click's loop-depth-minimizing walk, noted
// in DESIGN.md.
func (g *gcm) placeLate(n *ir.Node) *Block {
	if b, ok := g.final[n]; ok {
		return b
	}
	if b, ok := g.fixedBlock(n); ok {
		g.final[n] = b
		return b
	}

	var chosen *Block
	for _, use := range n.Uses() {
		ub := g.useBlock(use)
		if ub == nil {
			continue
		}
		if chosen == nil {
			chosen = ub
		} else {
			chosen = lca(chosen, ub)
		}
	}
	if chosen == nil {
		chosen = g.early[n]
	}
	if !dominates(g.early[n], chosen) {
		chosen = g.early[n]
	}

	g.final[n] = chosen
	return chosen
}

// Place runs global code motion over f, filling each block's Instructions
// in a valid (every input either in an earlier block or earlier within the
// same block) order.
func Place(f *ir.Function, blocks []*Block) {
	computeDominators(blocks)

	g := &gcm{
		byAnchor: blockByAnchor(blocks),
		term:     blockByTerminator(blocks),
		early:    map[*ir.Node]*Block{},
		final:    map[*ir.Node]*Block{},
		visiting: map[*ir.Node]bool{},
	}

	nodes := ir.Reachable(f)
	entry := blocks[0]
	for _, n := range nodes {
		g.computeEarly(entry, n)
	}
	for _, n := range nodes {
		g.placeLate(n)
	}

	order := topoOrder(f, nodes)

	anchorSet := map[*ir.Node]bool{}
	termSet := map[*ir.Node]bool{}
	for _, b := range blocks {
		anchorSet[b.Anchor] = true
		if b.Terminator != nil {
			termSet[b.Terminator] = true
		}
	}

	for _, n := range order {
		if anchorSet[n] || termSet[n] {
			continue
		}
		if n.Kind == ir.START || n.Kind == ir.START_MEM {
			continue
		}
		b, ok := g.final[n]
		if !ok {
			continue
		}
		b.Instructions = append(b.Instructions, n)
	}
}

// topoOrder returns nodes in a valid inputs-before-uses order, breaking
// the only cycles the graph can contain (phi/region pairs) by treating a
// phi's non-self value inputs as ordered but never waiting on the region
// itself to be "ready" through the back edge.
func topoOrder(f *ir.Function, nodes []*ir.Node) []*ir.Node {
	visited := map[*ir.Node]bool{}
	var out []*ir.Node
	var visit func(n *ir.Node)
	onStack := map[*ir.Node]bool{}
	visit = func(n *ir.Node) {
		if visited[n] || onStack[n] {
			return
		}
		onStack[n] = true
		for _, in := range n.Inputs {
			if in != nil {
				visit(in)
			}
		}
		onStack[n] = false
		if !visited[n] {
			visited[n] = true
			out = append(out, n)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return out
}
